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

package postgres

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/types"
	"gorm.io/gorm"
)

// GetPool gets a vesting pool by company name
func (d *MetadataStorePostgres) GetPool(
	name string,
	txn types.Txn,
) (*models.Pool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Pool{}
	result := db.Where("name = ?", name).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetPoolByAddress gets a vesting pool by derived address
func (d *MetadataStorePostgres) GetPoolByAddress(
	address []byte,
	txn types.Txn,
) (*models.Pool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Pool{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetPools returns all vesting pools
func (d *MetadataStorePostgres) GetPools(
	txn types.Txn,
) ([]models.Pool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Pool{}
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetPool saves a vesting pool. Pools are unique per derived address
func (d *MetadataStorePostgres) SetPool(
	pool *models.Pool,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}

	// Find or create pool for this address
	tmpPool := &models.Pool{}
	result := db.FirstOrCreate(tmpPool, models.Pool{Address: pool.Address})
	if result.Error != nil {
		return fmt.Errorf("failed to find or create pool: %w", result.Error)
	}

	// Update pool fields
	updates := map[string]any{
		"name":          pool.Name,
		"administrator": pool.Administrator,
		"mint":          pool.Mint,
		"treasury":      pool.Treasury,
		"created_at":    pool.CreatedAt,
		"bump":          pool.Bump,
		"treasury_bump": pool.TreasuryBump,
	}
	if err := db.Model(tmpPool).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update pool: %w", err)
	}

	return nil
}
