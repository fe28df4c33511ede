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
	"bytes"
	"fmt"

	"github.com/blinklabs-io/vestry/database/types"
)

// ConsistencyError reports a canonical record whose metadata row is missing
// or does not match the record.
type ConsistencyError struct {
	Kind    string
	Address []byte
	Reason  string
}

func (e ConsistencyError) Error() string {
	return fmt.Sprintf(
		"inconsistent %s record %x: %s",
		e.Kind,
		e.Address,
		e.Reason,
	)
}

// VerifyConsistency scans every canonical record in the blob store and checks
// that its metadata row exists and matches the record's projection. It stops
// at the first inconsistency. Only the blob-to-metadata direction is checked:
// the blob store commits first, so a torn commit leaves the blob ahead and
// never the metadata.
func (d *Database) VerifyConsistency() error {
	if err := d.verifyPools(); err != nil {
		return err
	}
	if err := d.verifyGrants(); err != nil {
		return err
	}
	if err := d.verifyAccounts(); err != nil {
		return err
	}
	return d.verifyMints()
}

func (d *Database) verifyPools() error {
	iter := d.Records(types.PoolBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		var rec PoolRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return ConsistencyError{
				Kind:    "pool",
				Address: entry.Address,
				Reason:  fmt.Sprintf("record decode failed: %v", err),
			}
		}
		row, err := d.metadata.GetPoolByAddress(entry.Address, nil)
		if err != nil {
			return err
		}
		if row == nil {
			return ConsistencyError{
				Kind:    "pool",
				Address: entry.Address,
				Reason:  "metadata row missing",
			}
		}
		if row.Name != rec.Name ||
			!bytes.Equal(row.Administrator, rec.Administrator) ||
			!bytes.Equal(row.Mint, rec.Mint) ||
			!bytes.Equal(row.Treasury, rec.Treasury) ||
			row.CreatedAt != rec.CreatedAt ||
			row.Bump != rec.Bump ||
			row.TreasuryBump != rec.TreasuryBump {
			return ConsistencyError{
				Kind:    "pool",
				Address: entry.Address,
				Reason:  "metadata row does not match record",
			}
		}
	}
}

func (d *Database) verifyGrants() error {
	iter := d.Records(types.GrantBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		var rec GrantRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return ConsistencyError{
				Kind:    "grant",
				Address: entry.Address,
				Reason:  fmt.Sprintf("record decode failed: %v", err),
			}
		}
		row, err := d.metadata.GetGrant(entry.Address, nil)
		if err != nil {
			return err
		}
		if row == nil {
			return ConsistencyError{
				Kind:    "grant",
				Address: entry.Address,
				Reason:  "metadata row missing",
			}
		}
		if !bytes.Equal(row.Pool, rec.Pool) ||
			!bytes.Equal(row.Beneficiary, rec.Beneficiary) ||
			row.StartTime != rec.StartTime ||
			row.CliffTime != rec.CliffTime ||
			row.EndTime != rec.EndTime ||
			row.TotalGranted != rec.TotalGranted ||
			row.TotalWithdrawn != rec.TotalWithdrawn ||
			row.CreatedAt != rec.CreatedAt ||
			row.Bump != rec.Bump {
			return ConsistencyError{
				Kind:    "grant",
				Address: entry.Address,
				Reason:  "metadata row does not match record",
			}
		}
	}
}

func (d *Database) verifyAccounts() error {
	iter := d.Records(types.AccountBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		var rec AccountRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return ConsistencyError{
				Kind:    "account",
				Address: entry.Address,
				Reason:  fmt.Sprintf("record decode failed: %v", err),
			}
		}
		row, err := d.metadata.GetAccount(entry.Address, nil)
		if err != nil {
			return err
		}
		if row == nil {
			return ConsistencyError{
				Kind:    "account",
				Address: entry.Address,
				Reason:  "metadata row missing",
			}
		}
		if !bytes.Equal(row.Owner, rec.Owner) ||
			!bytes.Equal(row.Mint, rec.Mint) ||
			!bytes.Equal(row.Authority, rec.Authority) ||
			row.Balance != rec.Balance ||
			row.CreatedAt != rec.CreatedAt ||
			row.Bump != rec.Bump {
			return ConsistencyError{
				Kind:    "account",
				Address: entry.Address,
				Reason:  "metadata row does not match record",
			}
		}
	}
}

func (d *Database) verifyMints() error {
	iter := d.Records(types.MintBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		var rec MintRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return ConsistencyError{
				Kind:    "mint",
				Address: entry.Address,
				Reason:  fmt.Sprintf("record decode failed: %v", err),
			}
		}
		row, err := d.metadata.GetMint(entry.Address, nil)
		if err != nil {
			return err
		}
		if row == nil {
			return ConsistencyError{
				Kind:    "mint",
				Address: entry.Address,
				Reason:  "metadata row missing",
			}
		}
		if !bytes.Equal(row.Authority, rec.Authority) ||
			row.Supply != rec.Supply ||
			row.CreatedAt != rec.CreatedAt ||
			row.Decimals != rec.Decimals {
			return ConsistencyError{
				Kind:    "mint",
				Address: entry.Address,
				Reason:  "metadata row does not match record",
			}
		}
	}
}

// Recover rebuilds the metadata rows from the canonical records and realigns
// the commit timestamps. Call this when opening the database reports a
// CommitTimestampError: the blob store commits first, so after a torn commit
// the blob holds the authoritative state and the metadata projection is
// reconstructed from it. Claim audit rows are metadata-only and are left
// untouched.
func (d *Database) Recover() error {
	poolCount, err := d.recoverPools()
	if err != nil {
		return fmt.Errorf("recovering pools: %w", err)
	}
	grantCount, err := d.recoverGrants()
	if err != nil {
		return fmt.Errorf("recovering grants: %w", err)
	}
	accountCount, err := d.recoverAccounts()
	if err != nil {
		return fmt.Errorf("recovering accounts: %w", err)
	}
	mintCount, err := d.recoverMints()
	if err != nil {
		return fmt.Errorf("recovering mints: %w", err)
	}
	// The blob timestamp is authoritative; bring the metadata side level
	blobTimestamp, err := d.blob.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("reading blob commit timestamp: %w", err)
	}
	if err := d.metadata.SetCommitTimestamp(nil, blobTimestamp); err != nil {
		return fmt.Errorf("aligning metadata commit timestamp: %w", err)
	}
	d.logger.Info(
		"rebuilt metadata rows from canonical records",
		"component", "database",
		"pools", poolCount,
		"grants", grantCount,
		"accounts", accountCount,
		"mints", mintCount,
	)
	return nil
}

func (d *Database) recoverPools() (uint64, error) {
	iter := d.Records(types.PoolBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return iter.Progress(), err
		}
		if entry == nil {
			return iter.Progress(), nil
		}
		var rec PoolRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return iter.Progress(), fmt.Errorf(
				"decoding pool record %x: %w",
				entry.Address,
				err,
			)
		}
		if err := d.setMetadataRow(func(txn types.Txn) error {
			return d.metadata.SetPool(rec.Model(entry.Address), txn)
		}); err != nil {
			return iter.Progress(), err
		}
	}
}

func (d *Database) recoverGrants() (uint64, error) {
	iter := d.Records(types.GrantBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return iter.Progress(), err
		}
		if entry == nil {
			return iter.Progress(), nil
		}
		var rec GrantRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return iter.Progress(), fmt.Errorf(
				"decoding grant record %x: %w",
				entry.Address,
				err,
			)
		}
		if err := d.setMetadataRow(func(txn types.Txn) error {
			return d.metadata.SetGrant(rec.Model(entry.Address), txn)
		}); err != nil {
			return iter.Progress(), err
		}
	}
}

func (d *Database) recoverAccounts() (uint64, error) {
	iter := d.Records(types.AccountBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return iter.Progress(), err
		}
		if entry == nil {
			return iter.Progress(), nil
		}
		var rec AccountRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return iter.Progress(), fmt.Errorf(
				"decoding account record %x: %w",
				entry.Address,
				err,
			)
		}
		if err := d.setMetadataRow(func(txn types.Txn) error {
			return d.metadata.SetAccount(rec.Model(entry.Address), txn)
		}); err != nil {
			return iter.Progress(), err
		}
	}
}

func (d *Database) recoverMints() (uint64, error) {
	iter := d.Records(types.MintBlobKeyPrefix)
	defer iter.Close()
	for {
		entry, err := iter.Next()
		if err != nil {
			return iter.Progress(), err
		}
		if entry == nil {
			return iter.Progress(), nil
		}
		var rec MintRecord
		if err := UnmarshalRecord(entry.Data, &rec); err != nil {
			return iter.Progress(), fmt.Errorf(
				"decoding mint record %x: %w",
				entry.Address,
				err,
			)
		}
		if err := d.setMetadataRow(func(txn types.Txn) error {
			return d.metadata.SetMint(rec.Model(entry.Address), txn)
		}); err != nil {
			return iter.Progress(), err
		}
	}
}

// setMetadataRow runs a single metadata row upsert in its own metadata
// transaction
func (d *Database) setMetadataRow(fn func(types.Txn) error) error {
	txn := d.metadata.Transaction()
	if txn == nil {
		return types.ErrNoStoreAvailable
	}
	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}
