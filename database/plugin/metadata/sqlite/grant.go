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

// GetGrant gets a vesting grant by derived address
func (d *MetadataStoreSqlite) GetGrant(
	address []byte,
	txn types.Txn,
) (*models.Grant, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Grant{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetGrantsByPool returns all grants issued from the given pool
func (d *MetadataStoreSqlite) GetGrantsByPool(
	pool []byte,
	txn types.Txn,
) ([]models.Grant, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Grant{}
	result := db.Where("pool = ?", pool).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetGrantsByBeneficiary returns all grants held by the given beneficiary
func (d *MetadataStoreSqlite) GetGrantsByBeneficiary(
	beneficiary []byte,
	txn types.Txn,
) ([]models.Grant, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Grant{}
	result := db.Where("beneficiary = ?", beneficiary).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetGrant saves a vesting grant. Grants are unique per derived address
func (d *MetadataStoreSqlite) SetGrant(
	grant *models.Grant,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}

	// Find or create grant for this address
	tmpGrant := &models.Grant{}
	result := db.FirstOrCreate(tmpGrant, models.Grant{Address: grant.Address})
	if result.Error != nil {
		return fmt.Errorf("failed to find or create grant: %w", result.Error)
	}

	// Update grant fields
	// Note: total_withdrawn advances on every claim, the rest is fixed at
	// grant creation
	updates := map[string]any{
		"pool":            grant.Pool,
		"beneficiary":     grant.Beneficiary,
		"start_time":      grant.StartTime,
		"cliff_time":      grant.CliffTime,
		"end_time":        grant.EndTime,
		"total_granted":   grant.TotalGranted,
		"total_withdrawn": grant.TotalWithdrawn,
		"created_at":      grant.CreatedAt,
		"bump":            grant.Bump,
	}
	if err := db.Model(tmpGrant).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}

	return nil
}
