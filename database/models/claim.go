// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

// Claim is an append-only audit row recorded for every successful claim.
// Rows are written in the same transaction as the balance movements they
// describe, so the audit trail can never disagree with custody state.
type Claim struct {
	// grant is a reserved word in some SQL dialects, so the column gets an
	// explicit name
	Grant       []byte `gorm:"column:grant_address;index;size:32"`
	Pool        []byte `gorm:"index;size:32"`
	Beneficiary []byte `gorm:"index;size:32"`
	RequestID   string `gorm:"size:36"`
	ID          uint   `gorm:"primarykey"`
	Amount      int64
	ClaimedAt   int64
}

func (Claim) TableName() string {
	return "claim"
}
