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

package badger_test

import (
	"testing"

	"github.com/blinklabs-io/vestry/database/plugin/blob/badger"
	"github.com/blinklabs-io/vestry/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *badger.BlobStoreBadger {
	t.Helper()
	// Empty data dir gives us an in-memory store
	store, err := badger.New(
		badger.WithDataDir(""),
		badger.WithGc(false),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestBlobSetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("testkey"), []byte("testvalue")))
	require.NoError(t, txn.Commit())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	val, err := store.Get(readTxn, []byte("testkey"))
	require.NoError(t, err)
	assert.Equal(t, []byte("testvalue"), val)
}

func TestBlobGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := store.Get(txn, []byte("does-not-exist"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestBlobDelete(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("doomed"), []byte("value")))
	require.NoError(t, txn.Commit())

	delTxn := store.NewTransaction(true)
	require.NoError(t, store.Delete(delTxn, []byte("doomed")))
	require.NoError(t, delTxn.Commit())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	_, err := store.Get(readTxn, []byte("doomed"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestBlobRollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("discarded"), []byte("value")))
	require.NoError(t, txn.Rollback())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	_, err := store.Get(readTxn, []byte("discarded"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestBlobTxnFinishedReuse(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, txn.Commit())

	// Reusing a finished transaction should fail validation
	err := store.Set(txn, []byte("late"), []byte("value"))
	assert.Error(t, err)

	// Commit and Rollback on a finished transaction are no-ops
	assert.NoError(t, txn.Commit())
	assert.NoError(t, txn.Rollback())
}

func TestBlobNilTxn(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(nil, []byte("key"))
	assert.ErrorIs(t, err, types.ErrNilTxn)
}

func TestBlobIterator(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("aa1"), []byte("one")))
	require.NoError(t, store.Set(txn, []byte("aa2"), []byte("two")))
	require.NoError(t, store.Set(txn, []byte("bb1"), []byte("other")))
	require.NoError(t, txn.Commit())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	iter := store.NewIterator(
		readTxn,
		types.BlobIteratorOptions{Prefix: []byte("aa")},
	)
	defer iter.Close()
	require.NoError(t, iter.Err())

	var keys []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
	}
	assert.Equal(t, []string{"aa1", "aa2"}, keys)
}

func TestBlobCommitTimestamp(t *testing.T) {
	store := newTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(txn, 1234567890))
	require.NoError(t, txn.Commit())

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), ts)
}

func TestBlobCommitTimestampMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCommitTimestamp()
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}
