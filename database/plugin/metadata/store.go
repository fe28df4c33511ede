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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/database/plugin"
	"github.com/blinklabs-io/vestry/database/types"
	"gorm.io/gorm"
)

// MetadataStore is the interface for the metadata store half of the
// database. It holds queryable rows projected from the canonical records in
// the blob store. Record lookups return nil (not an error) when no row
// matches, callers map that onto their own not-found errors
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(types.Txn, int64) error
	Transaction() types.Txn

	// Vesting pools
	GetPool(string, types.Txn) (*models.Pool, error)
	GetPoolByAddress([]byte, types.Txn) (*models.Pool, error)
	GetPools(types.Txn) ([]models.Pool, error)
	SetPool(*models.Pool, types.Txn) error

	// Vesting grants
	GetGrant([]byte, types.Txn) (*models.Grant, error)
	GetGrantsByPool([]byte, types.Txn) ([]models.Grant, error)
	GetGrantsByBeneficiary([]byte, types.Txn) ([]models.Grant, error)
	SetGrant(*models.Grant, types.Txn) error

	// Custody accounts
	GetAccount([]byte, types.Txn) (*models.Account, error)
	GetAccountsByOwner([]byte, types.Txn) ([]models.Account, error)
	SetAccount(*models.Account, types.Txn) error

	// Token mints
	GetMint([]byte, types.Txn) (*models.Mint, error)
	GetMints(types.Txn) ([]models.Mint, error)
	SetMint(*models.Mint, types.Txn) error

	// Claim audit trail
	AddClaim(*models.Claim, types.Txn) error
	GetClaimsByGrant([]byte, types.Txn) ([]models.Claim, error)
	GetClaimsByPool([]byte, types.Txn) ([]models.Claim, error)
	GetClaimsByBeneficiary([]byte, types.Txn) ([]models.Claim, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	// Get and start the plugin
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}

	// Type assert to MetadataStore interface
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}

	return metadataStore, nil
}
