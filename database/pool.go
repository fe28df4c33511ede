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

// GetPool returns a pool by company name. The name is resolved to an address
// through the metadata store and the canonical record is read from the blob
// store.
func (d *Database) GetPool(
	name string,
	txn *Txn,
) (*models.Pool, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	row, err := d.metadata.GetPool(name, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, models.ErrPoolNotFound
	}
	return d.GetPoolByAddress(row.Address, txn)
}

// GetPoolByAddress returns a pool by its derived address
func (d *Database) GetPoolByAddress(
	addr []byte,
	txn *Txn,
) (*models.Pool, error) {
	var rec PoolRecord
	if err := d.getRecord(types.PoolBlobKey(addr), txn, &rec); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrPoolNotFound
		}
		return nil, err
	}
	return rec.Model(addr), nil
}

// GetPools returns all pools
func (d *Database) GetPools(txn *Txn) ([]models.Pool, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetPools(txn.Metadata())
}

// SetPool writes a pool's canonical record and its metadata row
func (d *Database) SetPool(pool *models.Pool, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetPool(pool, txn)
		})
	}
	if err := d.setRecord(
		types.PoolBlobKey(pool.Address),
		NewPoolRecord(pool),
		txn,
	); err != nil {
		return err
	}
	return d.metadata.SetPool(pool, txn.Metadata())
}
