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
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/vestry/database/types"
)

const (
	// recordIteratorBatchSize controls how many records are fetched per
	// batch from the blob store. This avoids loading every record of a
	// kind into memory while keeping I/O efficient.
	recordIteratorBatchSize = 1000

	// recordAddressSize is the length of the derived address portion of a
	// record blob key.
	recordAddressSize = 32
)

// recordEntry holds a record discovered during batch scanning.
type recordEntry struct {
	key  []byte
	addr []byte
	data []byte
}

// RecordIterator iterates the canonical record documents of one kind in
// address order. Record blob keys are formatted as a two-byte kind prefix
// plus the 32-byte derived address, so forward iteration yields records in
// ascending address order.
//
// The iterator fetches keys and record bytes in batches so a full scan never
// holds more than one batch in memory. Each batch reads under its own
// snapshot; records written after iteration started may or may not be seen.
type RecordIterator struct {
	db     *Database
	prefix []byte

	// internal state
	mu        sync.Mutex
	batch     []recordEntry
	batchIdx  int
	count     uint64
	exhausted bool
	closed    bool

	// resumeKey is the blob key to seek past when fetching the next batch.
	// nil means start from the beginning of the kind prefix.
	resumeKey []byte
}

// RecordEntry holds the data returned by RecordIterator.Next.
type RecordEntry struct {
	Address []byte
	Data    []byte
}

// Records returns an iterator over all record documents stored under the
// given kind prefix (types.PoolBlobKeyPrefix and friends).
func (d *Database) Records(kindPrefix string) *RecordIterator {
	return &RecordIterator{
		db:     d,
		prefix: []byte(kindPrefix),
	}
}

// Next returns the next record's address and raw CBOR bytes. When iteration
// is complete, it returns (nil, nil). Keys that do not parse as record keys
// are skipped with a warning log.
func (it *RecordIterator) Next() (*RecordEntry, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.closed {
		return nil, nil
	}

	// Refill batch if needed
	if it.batchIdx >= len(it.batch) {
		if it.exhausted {
			return nil, nil
		}
		if err := it.fetchBatch(); err != nil {
			return nil, err
		}
		if len(it.batch) == 0 {
			it.exhausted = true
			return nil, nil
		}
	}

	entry := it.batch[it.batchIdx]
	it.batchIdx++
	it.count++

	return &RecordEntry{
		Address: entry.addr,
		Data:    entry.data,
	}, nil
}

// Progress returns the number of records yielded so far
func (it *RecordIterator) Progress() uint64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.count
}

// Close releases any resources held by the iterator. It is safe to call
// Close multiple times.
func (it *RecordIterator) Close() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.closed = true
	it.batch = nil
	it.resumeKey = nil
}

// fetchBatch retrieves the next batch of records from the blob store.
// Must be called with it.mu held.
func (it *RecordIterator) fetchBatch() error {
	blob := it.db.Blob()
	if blob == nil {
		return types.ErrBlobStoreUnavailable
	}

	txn := blob.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	iterOpts := types.BlobIteratorOptions{
		Prefix: it.prefix,
	}
	blobIter := blob.NewIterator(txn, iterOpts)
	if blobIter == nil {
		return errors.New("blob iterator is nil")
	}
	defer blobIter.Close()

	// Seek past the last key we processed, or to the start of the prefix
	seekKey := it.resumeKey
	if seekKey == nil {
		seekKey = it.prefix
	}

	batch := make([]recordEntry, 0, recordIteratorBatchSize)
	resuming := it.resumeKey != nil

	for blobIter.Seek(seekKey); blobIter.ValidForPrefix(it.prefix); blobIter.Next() {
		item := blobIter.Item()
		if item == nil {
			continue
		}
		key := item.Key()
		if key == nil {
			continue
		}

		// When resuming, skip the exact key we left off at. If resumeKey
		// was deleted meanwhile, Seek lands on the next key which should
		// be included, so we only continue on an exact match.
		if resuming {
			resuming = false
			if bytes.Equal(key, it.resumeKey) {
				continue
			}
		}

		if len(key) != len(it.prefix)+recordAddressSize {
			it.db.logger.Warn(
				"record iterator: skipping unparseable key",
				"key_length", len(key),
			)
			continue
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("reading record value: %w", err)
		}

		entry := recordEntry{
			key:  make([]byte, len(key)),
			addr: make([]byte, recordAddressSize),
			data: data,
		}
		copy(entry.key, key)
		copy(entry.addr, key[len(it.prefix):])

		batch = append(batch, entry)
		if len(batch) >= recordIteratorBatchSize {
			break
		}
	}

	if err := blobIter.Err(); err != nil {
		return fmt.Errorf("scanning record keys: %w", err)
	}

	it.batch = batch
	it.batchIdx = 0

	if len(batch) > 0 {
		it.resumeKey = batch[len(batch)-1].key
	}

	// If we got fewer than a full batch, we've exhausted the prefix
	if len(batch) < recordIteratorBatchSize {
		it.exhausted = true
	}

	return nil
}
