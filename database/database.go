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
	"io"
	"log/slog"

	"github.com/blinklabs-io/vestry/database/plugin"
	"github.com/blinklabs-io/vestry/database/plugin/blob"
	"github.com/blinklabs-io/vestry/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Store plugins register themselves on import
	_ "github.com/blinklabs-io/vestry/database/plugin/blob/aws"
	_ "github.com/blinklabs-io/vestry/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/vestry/database/plugin/blob/gcs"
	_ "github.com/blinklabs-io/vestry/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/vestry/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/vestry/database/plugin/metadata/sqlite"
)

const (
	defaultBlobPlugin     = "badger"
	defaultMetadataPlugin = "sqlite"
)

// Config contains the configuration for a database instance
type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	BlobCacheSize  uint64
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
}

// Database is a wrapper around the blob store holding canonical records and
// the metadata store holding queryable projections of those records
type Database struct {
	logger      *slog.Logger
	blob        blob.BlobStore
	metadata    metadata.MetadataStore
	recordCache *RecordCache
	dataDir     string
}

// Blob returns the underlying blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// BlobTxn starts a new blob-only transaction and returns a handle to it
func (d *Database) BlobTxn(readWrite bool) *Txn {
	return NewBlobOnlyTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	metadataErr := d.Metadata().Close()
	err = errors.Join(err, metadataErr)
	// Close blob
	blobErr := d.Blob().Close()
	err = errors.Join(err, blobErr)
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance from the provided config. The config
// data directory and cache size are threaded through to the store plugins
// before they are started. An empty data directory selects in-memory storage
// in both default plugins.
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	blobPlugin := cfg.BlobPlugin
	if blobPlugin == "" {
		blobPlugin = defaultBlobPlugin
	}
	metadataPlugin := cfg.MetadataPlugin
	if metadataPlugin == "" {
		metadataPlugin = defaultMetadataPlugin
	}
	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		blobPlugin,
		"data-dir",
		cfg.DataDir,
	); err != nil {
		return nil, err
	}
	if cfg.BlobCacheSize > 0 {
		if err := plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			blobPlugin,
			"block-cache-size",
			cfg.BlobCacheSize,
		); err != nil {
			return nil, err
		}
	}
	if err := plugin.SetPluginOption(
		plugin.PluginTypeMetadata,
		metadataPlugin,
		"data-dir",
		cfg.DataDir,
	); err != nil {
		return nil, err
	}
	// Hand the logger and metrics registry to the plugins
	if err := plugin.Configure(
		plugin.PluginTypeBlob,
		blobPlugin,
		cfg.Logger,
		cfg.PromRegistry,
	); err != nil {
		return nil, err
	}
	if err := plugin.Configure(
		plugin.PluginTypeMetadata,
		metadataPlugin,
		cfg.Logger,
		cfg.PromRegistry,
	); err != nil {
		return nil, err
	}
	metadataDb, err := metadata.New(metadataPlugin)
	if err != nil {
		return nil, err
	}
	blobDb, err := blob.New(blobPlugin)
	if err != nil {
		// Don't leave the metadata store running with no owner
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:      cfg.Logger,
		blob:        blobDb,
		metadata:    metadataDb,
		recordCache: NewRecordCache(DefaultRecordCacheEntries),
		dataDir:     cfg.DataDir,
	}
	db.recordCache.RegisterMetrics(cfg.PromRegistry)
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
