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

package database_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestTable struct {
	gorm.Model
}

var dbConfig = &database.Config{
	BlobCacheSize: 1 << 20,
	Logger:        nil,
	PromRegistry:  nil,
	DataDir:       "",
}

// testAddr builds a test-unique 32-byte address whose last byte is n
func testAddr(t *testing.T, n byte) []byte {
	addr := make([]byte, 32)
	copy(addr, t.Name())
	addr[31] = n
	return addr
}

// TestInMemorySqliteMultipleTransaction tests that our sqlite connection allows multiple
// concurrent transactions when using in-memory mode. This requires special URI flags, and
// this is mostly making sure that we don't lose them
func TestInMemorySqliteMultipleTransaction(t *testing.T) {
	var db *database.Database
	doQuery := func(sleep time.Duration) error {
		txn := db.Metadata().DB().Begin()
		if result := txn.First(&TestTable{}); result.Error != nil {
			return result.Error
		}
		time.Sleep(sleep)
		if result := txn.Commit(); result.Error != nil {
			return result.Error
		}
		return nil
	}
	db, err := database.New(dbConfig)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer db.Close()
	if err := db.Metadata().DB().AutoMigrate(&TestTable{}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result := db.Metadata().DB().Create(&TestTable{}); result.Error != nil {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	// The linter calls us on the lack of error checking, but it's a goroutine...
	//nolint:errcheck
	go doQuery(5 * time.Second)
	time.Sleep(1 * time.Second)
	if err := doQuery(0); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestPoolRecordRoundTrip(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	pool := &models.Pool{
		Address:       testAddr(t, 1),
		Administrator: testAddr(t, 2),
		Mint:          testAddr(t, 3),
		Treasury:      testAddr(t, 4),
		Name:          t.Name(),
		CreatedAt:     1700000000,
		Bump:          254,
		TreasuryBump:  253,
	}
	require.NoError(t, db.SetPool(pool, nil))

	// Lookup by derived address reads the canonical record
	byAddr, err := db.GetPoolByAddress(pool.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, pool.Name, byAddr.Name)
	assert.Equal(t, pool.Administrator, byAddr.Administrator)
	assert.Equal(t, pool.Treasury, byAddr.Treasury)
	assert.Equal(t, pool.Bump, byAddr.Bump)
	assert.Equal(t, pool.TreasuryBump, byAddr.TreasuryBump)

	// Lookup by company name resolves through the metadata row
	byName, err := db.GetPool(t.Name(), nil)
	require.NoError(t, err)
	assert.Equal(t, pool.Address, byName.Address)
	assert.Equal(t, pool.Mint, byName.Mint)

	pools, err := db.GetPools(nil)
	require.NoError(t, err)
	require.Len(t, pools, 1)
}

func TestRecordNotFound(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetPool("missing", nil)
	assert.ErrorIs(t, err, models.ErrPoolNotFound)
	_, err = db.GetPoolByAddress(testAddr(t, 1), nil)
	assert.ErrorIs(t, err, models.ErrPoolNotFound)
	_, err = db.GetGrant(testAddr(t, 2), nil)
	assert.ErrorIs(t, err, models.ErrGrantNotFound)
	_, err = db.GetAccount(testAddr(t, 3), nil)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	_, err = db.GetMint(testAddr(t, 4), nil)
	assert.ErrorIs(t, err, models.ErrMintNotFound)
}

func TestGrantTxnAtomicity(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	grant := &models.Grant{
		Address:      testAddr(t, 1),
		Pool:         testAddr(t, 2),
		Beneficiary:  testAddr(t, 3),
		StartTime:    0,
		CliffTime:    100,
		EndTime:      1000,
		TotalGranted: 1000,
		CreatedAt:    1700000000,
		Bump:         255,
	}

	// A rolled-back transaction leaves no trace in either store
	txn := db.Transaction(true)
	require.NoError(t, db.SetGrant(grant, txn))
	require.NoError(t, txn.Rollback())
	_, err = db.GetGrant(grant.Address, nil)
	assert.ErrorIs(t, err, models.ErrGrantNotFound)
	byPool, err := db.GetGrantsByPool(grant.Pool, nil)
	require.NoError(t, err)
	assert.Empty(t, byPool)

	// A committed transaction lands in both stores
	txn = db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		return db.SetGrant(grant, txn)
	})
	require.NoError(t, err)
	fetched, err := db.GetGrant(grant.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, grant.TotalGranted, fetched.TotalGranted)
	byPool, err = db.GetGrantsByPool(grant.Pool, nil)
	require.NoError(t, err)
	require.Len(t, byPool, 1)
	byBeneficiary, err := db.GetGrantsByBeneficiary(grant.Beneficiary, nil)
	require.NoError(t, err)
	require.Len(t, byBeneficiary, 1)
}

func TestRecordCacheInvalidation(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	account := &models.Account{
		Address:   testAddr(t, 1),
		Owner:     testAddr(t, 2),
		Mint:      testAddr(t, 3),
		Authority: testAddr(t, 2),
		Balance:   100,
		CreatedAt: 1700000000,
		Bump:      252,
	}
	require.NoError(t, db.SetAccount(account, nil))

	// Fill the cache with the committed state
	cached, err := db.GetAccount(account.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cached.Balance)

	// An open read-write transaction sees its own uncommitted write, while
	// untransacted reads keep serving the committed state
	account.Balance = 300
	txn := db.Transaction(true)
	require.NoError(t, db.SetAccount(account, txn))
	inTxn, err := db.GetAccount(account.Address, txn)
	require.NoError(t, err)
	assert.Equal(t, int64(300), inTxn.Balance)
	outside, err := db.GetAccount(account.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), outside.Balance)

	// Commit invalidates the cached entry
	require.NoError(t, txn.Commit())
	after, err := db.GetAccount(account.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(300), after.Balance)
}

func TestMintRecordRoundTrip(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	mint := &models.Mint{
		Address:   testAddr(t, 1),
		Authority: testAddr(t, 2),
		Supply:    0,
		CreatedAt: 1700000000,
		Decimals:  6,
	}
	require.NoError(t, db.SetMint(mint, nil))

	// Supply advances in place
	mint.Supply = 5000
	require.NoError(t, db.SetMint(mint, nil))

	fetched, err := db.GetMint(mint.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), fetched.Supply)
	assert.Equal(t, uint8(6), fetched.Decimals)

	mints, err := db.GetMints(nil)
	require.NoError(t, err)
	require.Len(t, mints, 1)
}

func TestClaimAudit(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	grantAddr := testAddr(t, 1)
	for i, amount := range []int64{250, 750} {
		claim := &models.Claim{
			Grant:       grantAddr,
			Pool:        testAddr(t, 2),
			Beneficiary: testAddr(t, 3),
			RequestID: fmt.Sprintf(
				"00000000-0000-0000-0000-%012d",
				i+1,
			),
			Amount:    amount,
			ClaimedAt: int64(1700000000 + i),
		}
		require.NoError(t, db.AddClaim(claim, nil))
	}

	claims, err := db.GetClaimsByGrant(grantAddr, nil)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, int64(250), claims[0].Amount)
	assert.Equal(t, int64(750), claims[1].Amount)

	byBeneficiary, err := db.GetClaimsByBeneficiary(testAddr(t, 3), nil)
	require.NoError(t, err)
	require.Len(t, byBeneficiary, 2)
}

func TestRecordIterator(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	// Insertion order differs from address order
	for _, n := range []byte{3, 1, 2} {
		pool := &models.Pool{
			Address:       testAddr(t, n),
			Administrator: testAddr(t, 10),
			Mint:          testAddr(t, 11),
			Treasury:      testAddr(t, 12),
			Name:          fmt.Sprintf("%s-%d", t.Name(), n),
			CreatedAt:     1700000000,
			Bump:          255,
			TreasuryBump:  255,
		}
		require.NoError(t, db.SetPool(pool, nil))
	}

	iter := db.Records(types.PoolBlobKeyPrefix)
	defer iter.Close()
	var addrs [][]byte
	for {
		entry, err := iter.Next()
		require.NoError(t, err)
		if entry == nil {
			break
		}
		var rec database.PoolRecord
		require.NoError(t, database.UnmarshalRecord(entry.Data, &rec))
		addrs = append(addrs, entry.Address)
	}
	require.Len(t, addrs, 3)
	// Iteration yields ascending address order
	assert.Equal(t, testAddr(t, 1), addrs[0])
	assert.Equal(t, testAddr(t, 2), addrs[1])
	assert.Equal(t, testAddr(t, 3), addrs[2])
	assert.Equal(t, uint64(3), iter.Progress())
}

func TestVerifyConsistencyAndRecover(t *testing.T) {
	db, err := database.New(dbConfig)
	require.NoError(t, err)
	defer db.Close()

	pool := &models.Pool{
		Address:       testAddr(t, 1),
		Administrator: testAddr(t, 2),
		Mint:          testAddr(t, 3),
		Treasury:      testAddr(t, 4),
		Name:          t.Name(),
		CreatedAt:     1700000000,
		Bump:          255,
		TreasuryBump:  254,
	}
	require.NoError(t, db.SetPool(pool, nil))
	account := &models.Account{
		Address:   testAddr(t, 4),
		Owner:     pool.Address,
		Mint:      pool.Mint,
		Authority: pool.Address,
		Balance:   1000,
		CreatedAt: 1700000000,
		Bump:      254,
	}
	require.NoError(t, db.SetAccount(account, nil))

	require.NoError(t, db.VerifyConsistency())

	// Losing a metadata row is detected and attributed
	result := db.Metadata().DB().
		Where("address = ?", pool.Address).
		Delete(&models.Pool{})
	require.NoError(t, result.Error)
	err = db.VerifyConsistency()
	require.Error(t, err)
	var consistencyErr database.ConsistencyError
	require.ErrorAs(t, err, &consistencyErr)
	assert.Equal(t, "pool", consistencyErr.Kind)
	assert.Equal(t, pool.Address, consistencyErr.Address)

	// Recovery rebuilds the projection from the canonical records
	require.NoError(t, db.Recover())
	require.NoError(t, db.VerifyConsistency())
	rebuilt, err := db.GetPool(t.Name(), nil)
	require.NoError(t, err)
	assert.Equal(t, pool.Address, rebuilt.Address)
	assert.Equal(t, pool.TreasuryBump, rebuilt.TreasuryBump)
}
