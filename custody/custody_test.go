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

package custody_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"math"
	"testing"
	"time"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCreatedAt = int64(1700000000)

func newTestLedger(t *testing.T) (*custody.Ledger, *database.Database) {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: ""})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ledger := custody.NewLedger(custody.LedgerConfig{
		Database: db,
		NowFunc:  func() time.Time { return time.Unix(testCreatedAt, 0) },
	})
	return ledger, db
}

func testIdentity(t *testing.T) derivation.Address {
	t.Helper()
	pubKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	addr, err := derivation.NewAddress(pubKey)
	require.NoError(t, err)
	return addr
}

func TestCreateMint(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)

	mint, err := ledger.CreateMint(context.Background(), authority, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, authority, mint.Authority)
	assert.Equal(t, uint8(6), mint.Decimals)
	assert.Equal(t, int64(0), mint.Supply)
	assert.Equal(t, testCreatedAt, mint.CreatedAt)

	fetched, err := ledger.Mint(mint.Address)
	require.NoError(t, err)
	assert.Equal(t, mint, fetched)

	// Mint addresses are generated, not derived
	other, err := ledger.CreateMint(context.Background(), authority, 6, nil)
	require.NoError(t, err)
	assert.NotEqual(t, mint.Address, other.Address)

	mints, err := ledger.Mints()
	require.NoError(t, err)
	assert.Len(t, mints, 2)
}

func TestMintTo(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	owner := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	account, err := ledger.CreateAccount(ctx, owner, mint.Address, nil)
	require.NoError(t, err)

	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mint.Address, account.Address, 1000, nil),
	)
	balance, err := ledger.Balance(account.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
	updated, err := ledger.Mint(mint.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), updated.Supply)

	// Only the mint authority may issue
	err = ledger.MintTo(
		ctx,
		testIdentity(t),
		mint.Address,
		account.Address,
		1,
		nil,
	)
	assert.ErrorIs(t, err, custody.ErrUnauthorized)

	err = ledger.MintTo(ctx, authority, mint.Address, account.Address, 0, nil)
	assert.ErrorIs(t, err, custody.ErrInvalidAmount)
	err = ledger.MintTo(ctx, authority, mint.Address, account.Address, -5, nil)
	assert.ErrorIs(t, err, custody.ErrInvalidAmount)

	err = ledger.MintTo(ctx, authority, mint.Address, testIdentity(t), 1, nil)
	assert.ErrorIs(t, err, custody.ErrNotFound)
}

func TestMintToSupplyOverflow(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	owner := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 0, nil)
	require.NoError(t, err)
	account, err := ledger.CreateAccount(ctx, owner, mint.Address, nil)
	require.NoError(t, err)

	require.NoError(
		t,
		ledger.MintTo(
			ctx,
			authority,
			mint.Address,
			account.Address,
			math.MaxInt64,
			nil,
		),
	)
	err = ledger.MintTo(ctx, authority, mint.Address, account.Address, 1, nil)
	assert.ErrorIs(t, err, custody.ErrAmountOverflow)

	// Nothing moved on the failed issue
	updated, err := ledger.Mint(mint.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), updated.Supply)
	balance, err := ledger.Balance(account.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance)
}

func TestCreateAccount(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	owner := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)

	account, err := ledger.CreateAccount(ctx, owner, mint.Address, nil)
	require.NoError(t, err)
	expectedAddr, expectedBump, err := derivation.CustodyAddress(
		owner,
		mint.Address,
	)
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, account.Address)
	assert.Equal(t, expectedBump, account.Bump)
	assert.Equal(t, owner, account.Owner)
	assert.Equal(t, owner, account.Authority)
	assert.Equal(t, int64(0), account.Balance)

	// Re-creation at the same derived address is rejected
	_, err = ledger.CreateAccount(ctx, owner, mint.Address, nil)
	assert.ErrorIs(t, err, custody.ErrDuplicateRecord)

	// The mint must exist first
	_, err = ledger.CreateAccount(ctx, owner, testIdentity(t), nil)
	assert.ErrorIs(t, err, custody.ErrNotFound)

	accounts, err := ledger.Accounts(owner)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, account.Address, accounts[0].Address)
}

func TestCreateAccountAt(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)

	// A treasury-style account: caller-derived address, derived authority
	poolAddr, _, err := derivation.PoolAddress("Acme Corp")
	require.NoError(t, err)
	treasuryAddr, treasuryBump, err := derivation.TreasuryAddress("Acme Corp")
	require.NoError(t, err)
	account, err := ledger.CreateAccountAt(ctx, custody.AccountParams{
		Address:   treasuryAddr,
		Owner:     poolAddr,
		Mint:      mint.Address,
		Authority: poolAddr,
		Bump:      treasuryBump,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, treasuryAddr, account.Address)
	assert.Equal(t, poolAddr, account.Owner)
	assert.Equal(t, poolAddr, account.Authority)
}

func TestTransfer(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	ownerA := testIdentity(t)
	ownerB := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	acctA, err := ledger.CreateAccount(ctx, ownerA, mint.Address, nil)
	require.NoError(t, err)
	acctB, err := ledger.CreateAccount(ctx, ownerB, mint.Address, nil)
	require.NoError(t, err)
	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mint.Address, acctA.Address, 1000, nil),
	)

	err = ledger.Transfer(
		ctx,
		acctA.Address,
		acctB.Address,
		400,
		custody.SignerAuthority(ownerA),
		nil,
	)
	require.NoError(t, err)
	balanceA, err := ledger.Balance(acctA.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balanceA)
	balanceB, err := ledger.Balance(acctB.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balanceB)

	// Issued supply is conserved across transfers
	updated, err := ledger.Mint(mint.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), updated.Supply)
}

func TestTransferInsufficientBalance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	ownerA := testIdentity(t)
	ownerB := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	acctA, err := ledger.CreateAccount(ctx, ownerA, mint.Address, nil)
	require.NoError(t, err)
	acctB, err := ledger.CreateAccount(ctx, ownerB, mint.Address, nil)
	require.NoError(t, err)
	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mint.Address, acctA.Address, 100, nil),
	)

	err = ledger.Transfer(
		ctx,
		acctA.Address,
		acctB.Address,
		101,
		custody.SignerAuthority(ownerA),
		nil,
	)
	assert.ErrorIs(t, err, custody.ErrInsufficientBalance)
	balanceA, err := ledger.Balance(acctA.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balanceA)
	balanceB, err := ledger.Balance(acctB.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balanceB)
}

func TestTransferAuthorization(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	ownerA := testIdentity(t)
	ownerB := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	acctA, err := ledger.CreateAccount(ctx, ownerA, mint.Address, nil)
	require.NoError(t, err)
	acctB, err := ledger.CreateAccount(ctx, ownerB, mint.Address, nil)
	require.NoError(t, err)
	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mint.Address, acctA.Address, 100, nil),
	)

	// Another identity cannot debit the account
	err = ledger.Transfer(
		ctx,
		acctA.Address,
		acctB.Address,
		10,
		custody.SignerAuthority(ownerB),
		nil,
	)
	assert.ErrorIs(t, err, custody.ErrUnauthorized)

	// Neither can a derived credential for a different address
	err = ledger.Transfer(
		ctx,
		acctA.Address,
		acctB.Address,
		10,
		derivation.TreasuryAuthority("Acme Corp", 0),
		nil,
	)
	assert.ErrorIs(t, err, custody.ErrUnauthorized)
}

func TestTransferDerivedAuthority(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	owner := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)

	poolAddr, _, err := derivation.PoolAddress("Acme Corp")
	require.NoError(t, err)
	treasuryAddr, treasuryBump, err := derivation.TreasuryAddress("Acme Corp")
	require.NoError(t, err)
	treasury, err := ledger.CreateAccountAt(ctx, custody.AccountParams{
		Address:   treasuryAddr,
		Owner:     poolAddr,
		Mint:      mint.Address,
		Authority: treasuryAddr,
		Bump:      treasuryBump,
	}, nil)
	require.NoError(t, err)
	dest, err := ledger.CreateAccount(ctx, owner, mint.Address, nil)
	require.NoError(t, err)
	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mint.Address, treasury.Address, 500, nil),
	)

	// Holding the treasury seeds is sufficient to debit it
	err = ledger.Transfer(
		ctx,
		treasury.Address,
		dest.Address,
		200,
		derivation.TreasuryAuthority("Acme Corp", treasuryBump),
		nil,
	)
	require.NoError(t, err)
	balance, err := ledger.Balance(dest.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)
}

func TestTransferMintMismatch(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := testIdentity(t)
	ownerA := testIdentity(t)
	ownerB := testIdentity(t)
	ctx := context.Background()

	mintOne, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	mintTwo, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	acctA, err := ledger.CreateAccount(ctx, ownerA, mintOne.Address, nil)
	require.NoError(t, err)
	acctB, err := ledger.CreateAccount(ctx, ownerB, mintTwo.Address, nil)
	require.NoError(t, err)
	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mintOne.Address, acctA.Address, 100, nil),
	)

	err = ledger.Transfer(
		ctx,
		acctA.Address,
		acctB.Address,
		10,
		custody.SignerAuthority(ownerA),
		nil,
	)
	assert.ErrorIs(t, err, custody.ErrMintMismatch)
}

func TestTransferRollback(t *testing.T) {
	ledger, db := newTestLedger(t)
	authority := testIdentity(t)
	ownerA := testIdentity(t)
	ownerB := testIdentity(t)
	ctx := context.Background()

	mint, err := ledger.CreateMint(ctx, authority, 6, nil)
	require.NoError(t, err)
	acctA, err := ledger.CreateAccount(ctx, ownerA, mint.Address, nil)
	require.NoError(t, err)
	acctB, err := ledger.CreateAccount(ctx, ownerB, mint.Address, nil)
	require.NoError(t, err)
	require.NoError(
		t,
		ledger.MintTo(ctx, authority, mint.Address, acctA.Address, 1000, nil),
	)

	// A transfer inside a rolled-back transaction never happened
	txn := db.Transaction(true)
	err = ledger.Transfer(
		ctx,
		acctA.Address,
		acctB.Address,
		400,
		custody.SignerAuthority(ownerA),
		txn,
	)
	require.NoError(t, err)
	require.NoError(t, txn.Rollback())

	balanceA, err := ledger.Balance(acctA.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balanceA)
	balanceB, err := ledger.Balance(acctB.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balanceB)
}
