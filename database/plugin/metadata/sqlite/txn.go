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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/vestry/database/types"
	"gorm.io/gorm"
)

// sqliteTxn wraps a gorm transaction and implements types.Txn
type sqliteTxn struct {
	store    *MetadataStoreSqlite
	tx       *gorm.DB
	finished bool
}

func newSqliteTxn(store *MetadataStoreSqlite, tx *gorm.DB) *sqliteTxn {
	return &sqliteTxn{store: store, tx: tx}
}

func (t *sqliteTxn) Commit() error {
	if t.finished {
		return nil
	}
	if t.tx == nil {
		t.finished = true
		return nil
	}
	if err := t.tx.Commit().Error; err != nil {
		return err
	}
	t.finished = true
	return nil
}

func (t *sqliteTxn) Rollback() error {
	if t.finished {
		return nil
	}
	if t.tx != nil {
		if err := t.tx.Rollback().Error; err != nil {
			return err
		}
	}
	t.finished = true
	return nil
}

// resolveDB maps a types.Txn onto the gorm handle to use for a query. A nil
// transaction falls back to the base database handle
func (d *MetadataStoreSqlite) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		if d.db == nil {
			return nil, types.ErrNoStoreAvailable
		}
		return d.db, nil
	}
	sqlTxn, ok := txn.(*sqliteTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if sqlTxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if sqlTxn.finished {
		return nil, errors.New("transaction already finished")
	}
	if sqlTxn.tx == nil {
		return nil, types.ErrNoStoreAvailable
	}
	return sqlTxn.tx, nil
}
