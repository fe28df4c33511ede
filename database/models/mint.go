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

var ErrMintNotFound = errors.New("mint not found")

// Mint is the queryable row for a token mint. Supply tracks the total
// amount ever issued across all accounts of the mint.
type Mint struct {
	Address   []byte `gorm:"uniqueIndex;size:32"`
	Authority []byte `gorm:"index;size:32"`
	ID        uint   `gorm:"primarykey"`
	Supply    int64
	CreatedAt int64
	Decimals  uint8
}

func (Mint) TableName() string {
	return "mint"
}
