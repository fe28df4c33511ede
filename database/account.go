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

// GetAccount returns a custody account by its address
func (d *Database) GetAccount(
	addr []byte,
	txn *Txn,
) (*models.Account, error) {
	var rec AccountRecord
	if err := d.getRecord(types.AccountBlobKey(addr), txn, &rec); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return rec.Model(addr), nil
}

// GetAccountsByOwner returns all custody accounts held by an owner
func (d *Database) GetAccountsByOwner(
	owner []byte,
	txn *Txn,
) ([]models.Account, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetAccountsByOwner(owner, txn.Metadata())
}

// SetAccount writes a custody account's canonical record and its metadata
// row. Transfers call this once per side of the movement inside a single
// transaction.
func (d *Database) SetAccount(account *models.Account, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetAccount(account, txn)
		})
	}
	if err := d.setRecord(
		types.AccountBlobKey(account.Address),
		NewAccountRecord(account),
		txn,
	); err != nil {
		return err
	}
	return d.metadata.SetAccount(account, txn.Metadata())
}
