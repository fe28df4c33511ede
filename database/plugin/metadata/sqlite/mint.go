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

package sqlite

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/types"
	"gorm.io/gorm"
)

// GetMint gets a token mint by derived address
func (d *MetadataStoreSqlite) GetMint(
	address []byte,
	txn types.Txn,
) (*models.Mint, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Mint{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetMints returns all token mints
func (d *MetadataStoreSqlite) GetMints(
	txn types.Txn,
) ([]models.Mint, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Mint{}
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetMint saves a token mint. Mints are unique per derived address
func (d *MetadataStoreSqlite) SetMint(
	mint *models.Mint,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}

	// Find or create mint for this address
	tmpMint := &models.Mint{}
	result := db.FirstOrCreate(tmpMint, models.Mint{Address: mint.Address})
	if result.Error != nil {
		return fmt.Errorf("failed to find or create mint: %w", result.Error)
	}

	// Update mint fields
	updates := map[string]any{
		"authority":  mint.Authority,
		"supply":     mint.Supply,
		"created_at": mint.CreatedAt,
		"decimals":   mint.Decimals,
	}
	if err := db.Model(tmpMint).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update mint: %w", err)
	}

	return nil
}
