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

import (
	"errors"
)

var ErrGrantNotFound = errors.New("grant not found")

// Grant is the queryable row for an employee vesting record. One exists per
// (beneficiary, pool) pair. TotalWithdrawn is the only mutable field and
// only ever increases.
type Grant struct {
	Address        []byte `gorm:"uniqueIndex;size:32"`
	Pool           []byte `gorm:"index;size:32"`
	Beneficiary    []byte `gorm:"index;size:32"`
	ID             uint   `gorm:"primarykey"`
	StartTime      int64
	CliffTime      int64
	EndTime        int64
	TotalGranted   int64
	TotalWithdrawn int64
	CreatedAt      int64
	Bump           uint8
}

func (Grant) TableName() string {
	return "grant"
}
