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

// GetAccount gets a custody account by derived address
func (d *MetadataStoreSqlite) GetAccount(
	address []byte,
	txn types.Txn,
) (*models.Account, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Account{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetAccountsByOwner returns all custody accounts held by the given owner
func (d *MetadataStoreSqlite) GetAccountsByOwner(
	owner []byte,
	txn types.Txn,
) ([]models.Account, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Account{}
	result := db.Where("owner = ?", owner).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetAccount saves a custody account. Accounts are unique per derived address
func (d *MetadataStoreSqlite) SetAccount(
	account *models.Account,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}

	// Find or create account for this address
	tmpAccount := &models.Account{}
	result := db.FirstOrCreate(
		tmpAccount,
		models.Account{Address: account.Address},
	)
	if result.Error != nil {
		return fmt.Errorf("failed to find or create account: %w", result.Error)
	}

	// Update account fields
	// Note: balance must be updated through the map form so a zero balance
	// is written out
	updates := map[string]any{
		"owner":      account.Owner,
		"mint":       account.Mint,
		"authority":  account.Authority,
		"balance":    account.Balance,
		"created_at": account.CreatedAt,
		"bump":       account.Bump,
	}
	if err := db.Model(tmpAccount).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return nil
}
