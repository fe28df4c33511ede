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

// getRecord fetches and decodes the record document under the given blob key.
// The record cache is consulted only when the caller supplied no transaction;
// transacted reads always hit the blob store so read-modify-write sequences
// see committed store state.
func (d *Database) getRecord(key []byte, txn *Txn, v any) error {
	if txn == nil {
		if data, ok := d.recordCache.Get(key); ok {
			return UnmarshalRecord(data, v)
		}
		txn = d.BlobTxn(false)
		defer txn.Commit() //nolint:errcheck
		data, err := d.blob.Get(txn.Blob(), key)
		if err != nil {
			return err
		}
		d.recordCache.Put(key, data)
		return UnmarshalRecord(data, v)
	}
	data, err := d.blob.Get(txn.Blob(), key)
	if err != nil {
		return err
	}
	return UnmarshalRecord(data, v)
}

// setRecord encodes and writes the record document under the given blob key
// inside the supplied transaction, and schedules cache invalidation for after
// the transaction commits.
func (d *Database) setRecord(key []byte, v any, txn *Txn) error {
	data, err := MarshalRecord(v)
	if err != nil {
		return err
	}
	if err := d.blob.Set(txn.Blob(), key, data); err != nil {
		return err
	}
	txn.OnCommit(func() {
		d.recordCache.Delete(key)
	})
	return nil
}

// Canonical record documents. The blob store holds one deterministic CBOR
// document per entity keyed by kind prefix + derived address; the metadata
// rows in database/models are queryable projections of these documents and
// are maintained in the same transaction. The record is the authoritative
// state: a metadata row can be rebuilt from its record, never the reverse.

// PoolRecord is the canonical document for a vesting pool. Every field is
// fixed at creation.
type PoolRecord struct {
	Name          string `cbor:"name"`
	Administrator []byte `cbor:"administrator"`
	Mint          []byte `cbor:"mint"`
	Treasury      []byte `cbor:"treasury"`
	CreatedAt     int64  `cbor:"created_at"`
	Bump          uint8  `cbor:"bump"`
	TreasuryBump  uint8  `cbor:"treasury_bump"`
}

// NewPoolRecord builds the canonical record for a pool row
func NewPoolRecord(pool *models.Pool) *PoolRecord {
	return &PoolRecord{
		Name:          pool.Name,
		Administrator: pool.Administrator,
		Mint:          pool.Mint,
		Treasury:      pool.Treasury,
		CreatedAt:     pool.CreatedAt,
		Bump:          pool.Bump,
		TreasuryBump:  pool.TreasuryBump,
	}
}

// Model projects the record into a metadata row for the given address
func (r *PoolRecord) Model(addr []byte) *models.Pool {
	return &models.Pool{
		Address:       addr,
		Administrator: r.Administrator,
		Mint:          r.Mint,
		Treasury:      r.Treasury,
		Name:          r.Name,
		CreatedAt:     r.CreatedAt,
		Bump:          r.Bump,
		TreasuryBump:  r.TreasuryBump,
	}
}

// GrantRecord is the canonical document for an employee vesting record.
// TotalWithdrawn is the only mutable field; a claim rewrites the document
// with the advanced value.
type GrantRecord struct {
	Pool           []byte `cbor:"pool"`
	Beneficiary    []byte `cbor:"beneficiary"`
	StartTime      int64  `cbor:"start_time"`
	CliffTime      int64  `cbor:"cliff_time"`
	EndTime        int64  `cbor:"end_time"`
	TotalGranted   int64  `cbor:"total_granted"`
	TotalWithdrawn int64  `cbor:"total_withdrawn"`
	CreatedAt      int64  `cbor:"created_at"`
	Bump           uint8  `cbor:"bump"`
}

// NewGrantRecord builds the canonical record for a grant row
func NewGrantRecord(grant *models.Grant) *GrantRecord {
	return &GrantRecord{
		Pool:           grant.Pool,
		Beneficiary:    grant.Beneficiary,
		StartTime:      grant.StartTime,
		CliffTime:      grant.CliffTime,
		EndTime:        grant.EndTime,
		TotalGranted:   grant.TotalGranted,
		TotalWithdrawn: grant.TotalWithdrawn,
		CreatedAt:      grant.CreatedAt,
		Bump:           grant.Bump,
	}
}

// Model projects the record into a metadata row for the given address
func (r *GrantRecord) Model(addr []byte) *models.Grant {
	return &models.Grant{
		Address:        addr,
		Pool:           r.Pool,
		Beneficiary:    r.Beneficiary,
		StartTime:      r.StartTime,
		CliffTime:      r.CliffTime,
		EndTime:        r.EndTime,
		TotalGranted:   r.TotalGranted,
		TotalWithdrawn: r.TotalWithdrawn,
		CreatedAt:      r.CreatedAt,
		Bump:           r.Bump,
	}
}

// AccountRecord is the canonical document for a custody account. Balance is
// the only mutable field.
type AccountRecord struct {
	Owner     []byte `cbor:"owner"`
	Mint      []byte `cbor:"mint"`
	Authority []byte `cbor:"authority"`
	Balance   int64  `cbor:"balance"`
	CreatedAt int64  `cbor:"created_at"`
	Bump      uint8  `cbor:"bump"`
}

// NewAccountRecord builds the canonical record for an account row
func NewAccountRecord(account *models.Account) *AccountRecord {
	return &AccountRecord{
		Owner:     account.Owner,
		Mint:      account.Mint,
		Authority: account.Authority,
		Balance:   account.Balance,
		CreatedAt: account.CreatedAt,
		Bump:      account.Bump,
	}
}

// Model projects the record into a metadata row for the given address
func (r *AccountRecord) Model(addr []byte) *models.Account {
	return &models.Account{
		Address:   addr,
		Owner:     r.Owner,
		Mint:      r.Mint,
		Authority: r.Authority,
		Balance:   r.Balance,
		CreatedAt: r.CreatedAt,
		Bump:      r.Bump,
	}
}

// MintRecord is the canonical document for a token mint. Supply is the only
// mutable field.
type MintRecord struct {
	Authority []byte `cbor:"authority"`
	Supply    int64  `cbor:"supply"`
	CreatedAt int64  `cbor:"created_at"`
	Decimals  uint8  `cbor:"decimals"`
}

// NewMintRecord builds the canonical record for a mint row
func NewMintRecord(mint *models.Mint) *MintRecord {
	return &MintRecord{
		Authority: mint.Authority,
		Supply:    mint.Supply,
		CreatedAt: mint.CreatedAt,
		Decimals:  mint.Decimals,
	}
}

// Model projects the record into a metadata row for the given address
func (r *MintRecord) Model(addr []byte) *models.Mint {
	return &models.Mint{
		Address:   addr,
		Authority: r.Authority,
		Supply:    r.Supply,
		CreatedAt: r.CreatedAt,
		Decimals:  r.Decimals,
	}
}
