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

package database

import (
	"errors"

	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/types"
)

// GetGrant returns a grant by its derived address
func (d *Database) GetGrant(
	addr []byte,
	txn *Txn,
) (*models.Grant, error) {
	var rec GrantRecord
	if err := d.getRecord(types.GrantBlobKey(addr), txn, &rec); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrGrantNotFound
		}
		return nil, err
	}
	return rec.Model(addr), nil
}

// GetGrantsByPool returns all grants belonging to a pool
func (d *Database) GetGrantsByPool(
	pool []byte,
	txn *Txn,
) ([]models.Grant, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetGrantsByPool(pool, txn.Metadata())
}

// GetGrantsByBeneficiary returns all grants held by a beneficiary
func (d *Database) GetGrantsByBeneficiary(
	beneficiary []byte,
	txn *Txn,
) ([]models.Grant, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetGrantsByBeneficiary(beneficiary, txn.Metadata())
}

// SetGrant writes a grant's canonical record and its metadata row. A claim
// calls this with the advanced TotalWithdrawn inside the same transaction as
// the custody transfer.
func (d *Database) SetGrant(grant *models.Grant, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetGrant(grant, txn)
		})
	}
	if err := d.setRecord(
		types.GrantBlobKey(grant.Address),
		NewGrantRecord(grant),
		txn,
	); err != nil {
		return err
	}
	return d.metadata.SetGrant(grant, txn.Metadata())
}
