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
	"github.com/blinklabs-io/vestry/database/models"
)

// AddClaim appends a claim audit row. Claims are metadata-only: the mutable
// state they describe lives in the grant and account records.
func (d *Database) AddClaim(claim *models.Claim, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.AddClaim(claim, txn)
		})
	}
	return d.metadata.AddClaim(claim, txn.Metadata())
}

// GetClaimsByGrant returns the claim history for a grant, oldest first
func (d *Database) GetClaimsByGrant(
	grant []byte,
	txn *Txn,
) ([]models.Claim, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetClaimsByGrant(grant, txn.Metadata())
}

// GetClaimsByPool returns the claim history for every grant in a pool,
// oldest first
func (d *Database) GetClaimsByPool(
	pool []byte,
	txn *Txn,
) ([]models.Claim, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetClaimsByPool(pool, txn.Metadata())
}

// GetClaimsByBeneficiary returns the claim history for a beneficiary, oldest
// first
func (d *Database) GetClaimsByBeneficiary(
	beneficiary []byte,
	txn *Txn,
) ([]models.Claim, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetClaimsByBeneficiary(beneficiary, txn.Metadata())
}
