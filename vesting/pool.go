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
	"errors"
	"fmt"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/derivation"
)

// Pool is a company-scoped vesting pool. Its address and its treasury
// address both derive from the company name, so one pool exists per name
// and anyone can locate it without holding a reference.
type Pool struct {
	Name          string
	Address       derivation.Address
	Administrator derivation.Address
	Mint          derivation.Address
	Treasury      derivation.Address
	CreatedAt     int64
	Bump          uint8
	TreasuryBump  uint8
}

func poolFromModel(row *models.Pool) (*Pool, error) {
	addr, err := derivation.NewAddress(row.Address)
	if err != nil {
		return nil, err
	}
	admin, err := derivation.NewAddress(row.Administrator)
	if err != nil {
		return nil, err
	}
	mint, err := derivation.NewAddress(row.Mint)
	if err != nil {
		return nil, err
	}
	treasury, err := derivation.NewAddress(row.Treasury)
	if err != nil {
		return nil, err
	}
	return &Pool{
		Name:          row.Name,
		Address:       addr,
		Administrator: admin,
		Mint:          mint,
		Treasury:      treasury,
		CreatedAt:     row.CreatedAt,
		Bump:          row.Bump,
		TreasuryBump:  row.TreasuryBump,
	}, nil
}

func (p *Pool) toModel() *models.Pool {
	return &models.Pool{
		Name:          p.Name,
		Address:       p.Address.Bytes(),
		Administrator: p.Administrator.Bytes(),
		Mint:          p.Mint.Bytes(),
		Treasury:      p.Treasury.Bytes(),
		CreatedAt:     p.CreatedAt,
		Bump:          p.Bump,
		TreasuryBump:  p.TreasuryBump,
	}
}

// verifyDerivation re-derives the pool and treasury addresses from the
// stored name and bumps and checks them against the stored addresses. A
// record that fails the cross-check does not belong to the name it claims
// and must not authorize anything.
func (p *Pool) verifyDerivation() error {
	addr, err := derivation.DeriveWithBump(
		p.Bump,
		[]byte(derivation.SeedPool),
		[]byte(p.Name),
	)
	if err != nil || addr != p.Address {
		return fmt.Errorf(
			"%w: pool %q failed address cross-check",
			ErrUnauthorized,
			p.Name,
		)
	}
	treasury, err := derivation.DeriveWithBump(
		p.TreasuryBump,
		[]byte(derivation.SeedTreasury),
		[]byte(p.Name),
	)
	if err != nil || treasury != p.Treasury {
		return fmt.Errorf(
			"%w: pool %q failed treasury cross-check",
			ErrUnauthorized,
			p.Name,
		)
	}
	return nil
}

func validateCompanyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidCompanyName)
	}
	if len(name) > derivation.MaxSeedLen {
		return fmt.Errorf(
			"%w: %d bytes exceeds maximum of %d",
			ErrInvalidCompanyName,
			len(name),
			derivation.MaxSeedLen,
		)
	}
	return nil
}

// CreatePool registers a vesting pool for a company name and creates its
// treasury custody account. The signer becomes the pool administrator. The
// treasury account's authority is the treasury address itself, so the only
// way to debit it is through the engine's claim path.
func (e *Engine) CreatePool(
	ctx context.Context,
	signer derivation.Address,
	companyName string,
	mint derivation.Address,
) (*Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateCompanyName(companyName); err != nil {
		return nil, err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	poolAddr, poolBump, err := derivation.PoolAddress(companyName)
	if err != nil {
		return nil, err
	}
	treasuryAddr, treasuryBump, err := derivation.TreasuryAddress(companyName)
	if err != nil {
		return nil, err
	}
	pool := &Pool{
		Name:          companyName,
		Address:       poolAddr,
		Administrator: signer,
		Mint:          mint,
		Treasury:      treasuryAddr,
		CreatedAt:     e.Now(),
		Bump:          poolBump,
		TreasuryBump:  treasuryBump,
	}
	err = e.db.Transaction(true).Do(func(txn *database.Txn) error {
		_, err := e.db.GetPoolByAddress(poolAddr.Bytes(), txn)
		if err == nil {
			return fmt.Errorf(
				"%w: pool %q",
				ErrDuplicateRecord,
				companyName,
			)
		}
		if !errors.Is(err, models.ErrPoolNotFound) {
			return err
		}
		// Creating the treasury account also verifies the mint exists
		if _, err := e.custody.CreateAccountAt(ctx, custody.AccountParams{
			Address:   treasuryAddr,
			Owner:     poolAddr,
			Mint:      mint,
			Authority: treasuryAddr,
			Bump:      treasuryBump,
		}, txn); err != nil {
			return fmt.Errorf("create treasury account: %w", err)
		}
		if err := e.db.SetPool(pool.toModel(), txn); err != nil {
			return err
		}
		txn.OnCommit(func() {
			e.publish(PoolCreatedEventType, PoolCreatedEvent{
				Name:          pool.Name,
				Pool:          pool.Address,
				Administrator: pool.Administrator,
				Mint:          pool.Mint,
				Treasury:      pool.Treasury,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.metrics.poolsCreated.Inc()
	e.logger.Info(
		"created vesting pool",
		"component", "vesting",
		"name", pool.Name,
		"pool", pool.Address.String(),
		"treasury", pool.Treasury.String(),
		"administrator", pool.Administrator.String(),
	)
	return pool, nil
}

// FundTreasury issues tokens from the pool's mint into the pool treasury.
// The signer must be the mint authority.
func (e *Engine) FundTreasury(
	ctx context.Context,
	signer derivation.Address,
	companyName string,
	amount int64,
) (*Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	var pool *Pool
	err := e.db.Transaction(true).Do(func(txn *database.Txn) error {
		var err error
		pool, err = e.loadPool(companyName, txn)
		if err != nil {
			return err
		}
		// MintTo enforces that the signer is the mint authority
		if err := e.custody.MintTo(
			ctx,
			signer,
			pool.Mint,
			pool.Treasury,
			amount,
			txn,
		); err != nil {
			if errors.Is(err, custody.ErrUnauthorized) {
				return fmt.Errorf(
					"%w: only the mint authority may fund the treasury",
					ErrUnauthorized,
				)
			}
			return err
		}
		txn.OnCommit(func() {
			e.publish(TreasuryFundedEventType, TreasuryFundedEvent{
				Pool:     pool.Address,
				Treasury: pool.Treasury,
				Amount:   amount,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.metrics.treasuryFunded.Add(float64(amount))
	e.logger.Info(
		"funded pool treasury",
		"component", "vesting",
		"name", pool.Name,
		"treasury", pool.Treasury.String(),
		"amount", amount,
	)
	return pool, nil
}

// Pool returns the pool registered for a company name
func (e *Engine) Pool(companyName string) (*Pool, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.loadPool(companyName, nil)
}

// PoolByAddress returns the pool with the given derived address
func (e *Engine) PoolByAddress(addr derivation.Address) (*Pool, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	row, err := e.db.GetPoolByAddress(addr.Bytes(), nil)
	if err != nil {
		if errors.Is(err, models.ErrPoolNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, addr)
		}
		return nil, err
	}
	pool, err := poolFromModel(row)
	if err != nil {
		return nil, err
	}
	if err := pool.verifyDerivation(); err != nil {
		return nil, err
	}
	return pool, nil
}

// Pools lists all registered pools
func (e *Engine) Pools() ([]Pool, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	rows, err := e.db.GetPools(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Pool, 0, len(rows))
	for _, row := range rows {
		pool, err := poolFromModel(&row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *pool)
	}
	return ret, nil
}

// TreasuryBalance returns the current balance of a pool's treasury account
func (e *Engine) TreasuryBalance(companyName string) (int64, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	pool, err := e.loadPool(companyName, nil)
	if err != nil {
		return 0, err
	}
	return e.custody.Balance(pool.Treasury)
}

// loadPool reads a pool by name and verifies its derivation cross-checks
func (e *Engine) loadPool(
	companyName string,
	txn *database.Txn,
) (*Pool, error) {
	row, err := e.db.GetPool(companyName, txn)
	if err != nil {
		if errors.Is(err, models.ErrPoolNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, companyName)
		}
		return nil, err
	}
	pool, err := poolFromModel(row)
	if err != nil {
		return nil, err
	}
	if err := pool.verifyDerivation(); err != nil {
		return nil, err
	}
	return pool, nil
}
