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

// GetMint returns a token mint by its address
func (d *Database) GetMint(
	addr []byte,
	txn *Txn,
) (*models.Mint, error) {
	var rec MintRecord
	if err := d.getRecord(types.MintBlobKey(addr), txn, &rec); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrMintNotFound
		}
		return nil, err
	}
	return rec.Model(addr), nil
}

// GetMints returns all token mints
func (d *Database) GetMints(txn *Txn) ([]models.Mint, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetMints(txn.Metadata())
}

// SetMint writes a mint's canonical record and its metadata row
func (d *Database) SetMint(mint *models.Mint, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetMint(mint, txn)
		})
	}
	if err := d.setRecord(
		types.MintBlobKey(mint.Address),
		NewMintRecord(mint),
		txn,
	); err != nil {
		return err
	}
	return d.metadata.SetMint(mint, txn.Metadata())
}
