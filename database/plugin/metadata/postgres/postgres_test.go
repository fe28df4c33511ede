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
	"bytes"
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/plugin"
)

// TestTable is a simple table for testing concurrent transactions
type TestTable struct {
	gorm.Model
}

func isPostgresConfigured() bool {
	// Check if cmdlineOptions has a password or DSN set
	cmdlineOptionsMutex.RLock()
	password := cmdlineOptions.password
	dsn := cmdlineOptions.dsn
	cmdlineOptionsMutex.RUnlock()

	if password != "" || dsn != "" {
		return true
	}

	// Fall back to environment variables
	return os.Getenv("POSTGRES_PASSWORD") != "" ||
		os.Getenv("POSTGRES_DSN") != ""
}

// getTestPostgresOptions returns options for creating a test postgres store.
// It uses cmdlineOptions if configured, otherwise falls back to environment variables.
func getTestPostgresOptions() []PostgresOptionFunc {
	cmdlineOptionsMutex.RLock()
	host := cmdlineOptions.host
	port := uint(cmdlineOptions.port)
	user := cmdlineOptions.user
	password := cmdlineOptions.password
	database := cmdlineOptions.database
	sslMode := cmdlineOptions.sslMode
	timeZone := cmdlineOptions.timeZone
	dsn := cmdlineOptions.dsn
	cmdlineOptionsMutex.RUnlock()

	// Override with environment variables if cmdlineOptions password is not set
	if password == "" {
		password = os.Getenv("POSTGRES_PASSWORD")

		// Also check for other env vars when using env-based config
		if envHost := os.Getenv("POSTGRES_HOST"); envHost != "" {
			host = envHost
		}
		if envPort := os.Getenv("POSTGRES_PORT"); envPort != "" {
			if p, err := strconv.ParseUint(envPort, 10, 32); err == nil {
				port = uint(p)
			}
		}
		if envUser := os.Getenv("POSTGRES_USER"); envUser != "" {
			user = envUser
		}
		if envDB := os.Getenv("POSTGRES_DATABASE"); envDB != "" {
			database = envDB
		} else if database == "postgres" {
			// Use a separate test database by default
			database = "vestry_test"
		}
		if envSSL := os.Getenv("POSTGRES_SSLMODE"); envSSL != "" {
			sslMode = envSSL
		}
		if envDSN := os.Getenv("POSTGRES_DSN"); envDSN != "" {
			dsn = envDSN
		}
	}

	return []PostgresOptionFunc{
		WithHost(host),
		WithPort(port),
		WithUser(user),
		WithPassword(password),
		WithDatabase(database),
		WithSSLMode(sslMode),
		WithTimeZone(timeZone),
		WithDSN(dsn),
	}
}

// newTestPostgresStore creates a new postgres store for testing.
// It skips the test if postgres is not configured (no password in cmdlineOptions or POSTGRES_PASSWORD env var).
func newTestPostgresStore(t *testing.T) *MetadataStorePostgres {
	t.Helper()

	if !isPostgresConfigured() {
		t.Skip(
			"Skipping postgres integration test: postgres not configured (set POSTGRES_PASSWORD or configure via cmdline options)",
		)
	}

	opts := getTestPostgresOptions()
	store, err := NewWithOptions(opts...)
	if err != nil {
		t.Fatalf("failed to create postgres store: %v", err)
	}

	if err := store.Start(); err != nil {
		t.Fatalf("failed to start postgres store: %v", err)
	}

	return store
}

// newTestPostgresStoreFromPlugin creates a postgres store using NewFromCmdlineOptions.
// This tests the plugin registration path. Skips if not configured.
func newTestPostgresStoreFromPlugin(t *testing.T) *MetadataStorePostgres {
	t.Helper()

	if !isPostgresConfigured() {
		t.Skip(
			"Skipping postgres integration test: postgres not configured (set POSTGRES_PASSWORD or configure via cmdline options)",
		)
	}

	// Capture original cmdlineOptions before any modifications
	cmdlineOptionsMutex.RLock()
	originalHost := cmdlineOptions.host
	originalPort := cmdlineOptions.port
	originalUser := cmdlineOptions.user
	originalPassword := cmdlineOptions.password
	originalDatabase := cmdlineOptions.database
	originalSslMode := cmdlineOptions.sslMode
	originalTimeZone := cmdlineOptions.timeZone
	originalDsn := cmdlineOptions.dsn
	cmdlineOptionsMutex.RUnlock()

	// Restore original cmdlineOptions after test setup
	t.Cleanup(func() {
		cmdlineOptionsMutex.Lock()
		cmdlineOptions.host = originalHost
		cmdlineOptions.port = originalPort
		cmdlineOptions.user = originalUser
		cmdlineOptions.password = originalPassword
		cmdlineOptions.database = originalDatabase
		cmdlineOptions.sslMode = originalSslMode
		cmdlineOptions.timeZone = originalTimeZone
		cmdlineOptions.dsn = originalDsn
		cmdlineOptionsMutex.Unlock()
	})

	if originalPassword == "" && originalDsn == "" {
		// Set cmdlineOptions from environment for this test
		cmdlineOptionsMutex.Lock()
		if envHost := os.Getenv("POSTGRES_HOST"); envHost != "" {
			cmdlineOptions.host = envHost
		}
		if envPort := os.Getenv("POSTGRES_PORT"); envPort != "" {
			if p, err := strconv.ParseUint(envPort, 10, 32); err == nil {
				cmdlineOptions.port = p
			}
		}
		if envUser := os.Getenv("POSTGRES_USER"); envUser != "" {
			cmdlineOptions.user = envUser
		}
		cmdlineOptions.password = os.Getenv("POSTGRES_PASSWORD")
		if envDB := os.Getenv("POSTGRES_DATABASE"); envDB != "" {
			cmdlineOptions.database = envDB
		} else {
			cmdlineOptions.database = "vestry_test"
		}
		if envSSL := os.Getenv("POSTGRES_SSLMODE"); envSSL != "" {
			cmdlineOptions.sslMode = envSSL
		}
		if envDSN := os.Getenv("POSTGRES_DSN"); envDSN != "" {
			cmdlineOptions.dsn = envDSN
		}
		cmdlineOptionsMutex.Unlock()
	}

	p := NewFromCmdlineOptions()
	if p == nil {
		t.Fatal("NewFromCmdlineOptions returned nil")
	}

	// Check if it's an error plugin
	if _, ok := p.(*plugin.ErrorPlugin); ok {
		t.Fatal("NewFromCmdlineOptions returned an error plugin")
	}

	store, ok := p.(*MetadataStorePostgres)
	if !ok {
		t.Fatalf("expected *MetadataStorePostgres, got %T", p)
	}

	if err := store.Start(); err != nil {
		t.Fatalf("failed to start postgres store: %v", err)
	}

	return store
}

// randomAddress generates a unique address so test rows never collide with
// rows left behind by earlier runs against the same database
func randomAddress(t *testing.T) []byte {
	t.Helper()
	addr := make([]byte, 32)
	if _, err := rand.Read(addr); err != nil {
		t.Fatalf("failed to generate address: %v", err)
	}
	return addr
}

// TestPostgresMultipleTransaction tests that postgres allows multiple
// concurrent transactions
func TestPostgresMultipleTransaction(t *testing.T) {
	pgStore := newTestPostgresStore(t)
	defer pgStore.Close() //nolint:errcheck

	if err := pgStore.DB().AutoMigrate(&TestTable{}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result := pgStore.DB().Create(&TestTable{}); result.Error != nil {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	doQuery := func(sleep time.Duration) error {
		txn := pgStore.DB().Begin()
		defer txn.Rollback() //nolint:errcheck
		if result := txn.First(&TestTable{}); result.Error != nil {
			return result.Error
		}
		time.Sleep(sleep)
		if result := txn.Commit(); result.Error != nil {
			return result.Error
		}
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- doQuery(5 * time.Second)
	}()
	time.Sleep(1 * time.Second)
	if err := doQuery(0); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("goroutine error: %s", err)
	}
}

func TestPostgresPoolRoundTrip(t *testing.T) {
	pgStore := newTestPostgresStore(t)
	defer pgStore.Close() //nolint:errcheck

	addr := randomAddress(t)
	pool := &models.Pool{
		Address:       addr,
		Name:          fmt.Sprintf("acme-%x", addr[:4]),
		Administrator: randomAddress(t),
		Mint:          randomAddress(t),
		Treasury:      randomAddress(t),
		CreatedAt:     time.Now().Unix(),
		Bump:          254,
		TreasuryBump:  253,
	}
	if err := pgStore.SetPool(pool, nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	byName, err := pgStore.GetPool(pool.Name, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if byName == nil {
		t.Fatal("expected pool, got nil")
	}
	if !bytes.Equal(byName.Address, pool.Address) {
		t.Fatalf(
			"expected address %x, got %x",
			pool.Address,
			byName.Address,
		)
	}
	if byName.Bump != pool.Bump {
		t.Fatalf("expected bump %d, got %d", pool.Bump, byName.Bump)
	}

	byAddr, err := pgStore.GetPoolByAddress(pool.Address, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if byAddr == nil {
		t.Fatal("expected pool, got nil")
	}
	if byAddr.Name != pool.Name {
		t.Fatalf("expected name %q, got %q", pool.Name, byAddr.Name)
	}

	missing, err := pgStore.GetPoolByAddress(randomAddress(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown address, got %v", missing)
	}
}

func TestPostgresGrantLifecycle(t *testing.T) {
	pgStore := newTestPostgresStore(t)
	defer pgStore.Close() //nolint:errcheck

	now := time.Now().Unix()
	grant := &models.Grant{
		Address:        randomAddress(t),
		Pool:           randomAddress(t),
		Beneficiary:    randomAddress(t),
		StartTime:      now,
		CliffTime:      now + 3600,
		EndTime:        now + 7200,
		TotalGranted:   1_000_000,
		TotalWithdrawn: 0,
		CreatedAt:      now,
		Bump:           250,
	}
	if err := pgStore.SetGrant(grant, nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	fetched, err := pgStore.GetGrant(grant.Address, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fetched == nil {
		t.Fatal("expected grant, got nil")
	}
	if fetched.TotalGranted != grant.TotalGranted {
		t.Fatalf(
			"expected total granted %d, got %d",
			grant.TotalGranted,
			fetched.TotalGranted,
		)
	}
	if fetched.TotalWithdrawn != 0 {
		t.Fatalf("expected zero withdrawn, got %d", fetched.TotalWithdrawn)
	}

	// Advance the withdrawn amount as a claim would
	grant.TotalWithdrawn = 250_000
	if err := pgStore.SetGrant(grant, nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	fetched, err = pgStore.GetGrant(grant.Address, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fetched == nil {
		t.Fatal("expected grant, got nil")
	}
	if fetched.TotalWithdrawn != 250_000 {
		t.Fatalf("expected withdrawn 250000, got %d", fetched.TotalWithdrawn)
	}

	byPool, err := pgStore.GetGrantsByPool(grant.Pool, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(byPool) != 1 {
		t.Fatalf("expected 1 grant for pool, got %d", len(byPool))
	}

	byBeneficiary, err := pgStore.GetGrantsByBeneficiary(
		grant.Beneficiary,
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(byBeneficiary) != 1 {
		t.Fatalf(
			"expected 1 grant for beneficiary, got %d",
			len(byBeneficiary),
		)
	}
}

func TestPostgresClaimHistory(t *testing.T) {
	pgStore := newTestPostgresStore(t)
	defer pgStore.Close() //nolint:errcheck

	grantAddr := randomAddress(t)
	poolAddr := randomAddress(t)
	beneficiary := randomAddress(t)
	now := time.Now().Unix()

	for i, amount := range []int64{100, 250} {
		claim := &models.Claim{
			Grant:       grantAddr,
			Pool:        poolAddr,
			Beneficiary: beneficiary,
			Amount:      amount,
			ClaimedAt:   now + int64(i),
		}
		if err := pgStore.AddClaim(claim, nil); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	byGrant, err := pgStore.GetClaimsByGrant(grantAddr, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(byGrant) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(byGrant))
	}
	// Oldest first
	if byGrant[0].Amount != 100 || byGrant[1].Amount != 250 {
		t.Fatalf(
			"expected amounts [100 250], got [%d %d]",
			byGrant[0].Amount,
			byGrant[1].Amount,
		)
	}

	byPool, err := pgStore.GetClaimsByPool(poolAddr, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(byPool) != 2 {
		t.Fatalf("expected 2 claims for pool, got %d", len(byPool))
	}

	byBeneficiary, err := pgStore.GetClaimsByBeneficiary(beneficiary, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(byBeneficiary) != 2 {
		t.Fatalf(
			"expected 2 claims for beneficiary, got %d",
			len(byBeneficiary),
		)
	}
}

func TestPostgresTransactionRollback(t *testing.T) {
	pgStore := newTestPostgresStore(t)
	defer pgStore.Close() //nolint:errcheck

	mint := &models.Mint{
		Address:   randomAddress(t),
		Authority: randomAddress(t),
		Supply:    10_000_000,
		CreatedAt: time.Now().Unix(),
		Decimals:  6,
	}

	txn := pgStore.Transaction()
	if err := pgStore.SetMint(mint, txn); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := txn.Rollback(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	fetched, err := pgStore.GetMint(mint.Address, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fetched != nil {
		t.Fatal("expected rolled-back mint to be absent")
	}

	// Same write, committed this time
	txn = pgStore.Transaction()
	if err := pgStore.SetMint(mint, txn); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	fetched, err = pgStore.GetMint(mint.Address, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fetched == nil {
		t.Fatal("expected committed mint to be present")
	}
	if fetched.Supply != mint.Supply {
		t.Fatalf("expected supply %d, got %d", mint.Supply, fetched.Supply)
	}
}

func TestPostgresCommitTimestamp(t *testing.T) {
	pgStore := newTestPostgresStore(t)
	defer pgStore.Close() //nolint:errcheck

	timestamp := time.Now().UnixMilli()
	if err := pgStore.SetCommitTimestamp(nil, timestamp); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	fetched, err := pgStore.GetCommitTimestamp()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fetched != timestamp {
		t.Fatalf("expected timestamp %d, got %d", timestamp, fetched)
	}
}

func TestPostgresFromPlugin(t *testing.T) {
	pgStore := newTestPostgresStoreFromPlugin(t)
	defer pgStore.Close() //nolint:errcheck

	if _, err := pgStore.GetPools(nil); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}
