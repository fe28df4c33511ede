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
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/types"
)

// AddClaim appends a claim audit row
func (d *MetadataStorePostgres) AddClaim(
	claim *models.Claim,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Create(claim)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetClaimsByGrant returns the claim history for a grant, oldest first
func (d *MetadataStorePostgres) GetClaimsByGrant(
	grant []byte,
	txn types.Txn,
) ([]models.Claim, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Claim{}
	result := db.Where("grant_address = ?", grant).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetClaimsByPool returns the claim history for every grant in a pool,
// oldest first
func (d *MetadataStorePostgres) GetClaimsByPool(
	pool []byte,
	txn types.Txn,
) ([]models.Claim, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Claim{}
	result := db.Where("pool = ?", pool).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetClaimsByBeneficiary returns the claim history for a beneficiary across
// all of their grants, oldest first
func (d *MetadataStorePostgres) GetClaimsByBeneficiary(
	beneficiary []byte,
	txn types.Txn,
) ([]models.Claim, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Claim{}
	result := db.Where("beneficiary = ?", beneficiary).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
