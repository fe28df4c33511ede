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

package vesting

import (
	"context"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/derivation"
)

// The engine fronts the custody tooling so that every mutation in the
// system goes through one lock and one component. These wrappers carry the
// custody package's own error values.

// CreateMint registers a new token mint with the signer as its authority
func (e *Engine) CreateMint(
	ctx context.Context,
	signer derivation.Address,
	decimals uint8,
) (*custody.Mint, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.custody.CreateMint(ctx, signer, decimals, nil)
}

// IssueTokens mints new tokens directly into a custody account. The signer
// must be the mint authority. Funding a pool treasury has its own
// operation, FundTreasury, which resolves the treasury address by company
// name.
func (e *Engine) IssueTokens(
	ctx context.Context,
	signer derivation.Address,
	mint derivation.Address,
	to derivation.Address,
	amount int64,
) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.custody.MintTo(ctx, signer, mint, to, amount, nil)
}

// Mint returns a mint by address
func (e *Engine) Mint(addr derivation.Address) (*custody.Mint, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.custody.Mint(addr)
}

// Mints lists all registered mints
func (e *Engine) Mints() ([]custody.Mint, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.custody.Mints()
}

// Account returns a custody account by address
func (e *Engine) Account(addr derivation.Address) (*custody.Account, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.custody.Account(addr)
}

// Accounts lists the custody accounts held by an owner
func (e *Engine) Accounts(
	owner derivation.Address,
) ([]custody.Account, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.custody.Accounts(owner)
}
