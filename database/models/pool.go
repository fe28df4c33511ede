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
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

var ErrPoolNotFound = errors.New("pool not found")

// Pool is the queryable row for a vesting pool. The canonical record
// document lives in the blob store keyed by the derived address.
type Pool struct {
	Address       []byte `gorm:"uniqueIndex;size:32"`
	Administrator []byte `gorm:"index;size:32"`
	Mint          []byte `gorm:"index;size:32"`
	Treasury      []byte `gorm:"size:32"`
	ID            uint   `gorm:"primarykey"`
	Name          string `gorm:"uniqueIndex;size:50"`
	CreatedAt     int64
	Bump          uint8
	TreasuryBump  uint8
}

func (Pool) TableName() string {
	return "pool"
}

// String returns the bech32-encoded representation of the pool's derived
// address with the "vest" human-readable part
func (p *Pool) String() (string, error) {
	if len(p.Address) == 0 {
		return "", errors.New("pool address is empty")
	}
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(p.Address, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert bits: %w", err)
	}
	encoded, err := bech32.Encode("vest", convData)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32: %w", err)
	}
	return encoded, nil
}
