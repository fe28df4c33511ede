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

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/derivation"
)

// GrantState describes where a grant sits on its schedule at a point in
// time
type GrantState int

const (
	GrantStateBeforeCliff GrantState = iota
	GrantStateVesting
	GrantStateFullyVested
)

func (s GrantState) String() string {
	switch s {
	case GrantStateBeforeCliff:
		return "before-cliff"
	case GrantStateVesting:
		return "vesting"
	case GrantStateFullyVested:
		return "fully-vested"
	default:
		return "unknown"
	}
}

// Grant is an employee vesting record. One exists per (beneficiary, pool)
// pair at an address derived from both. All schedule fields are immutable
// after creation; TotalWithdrawn only ever increases and never exceeds
// TotalGranted.
type Grant struct {
	Address        derivation.Address
	Pool           derivation.Address
	Beneficiary    derivation.Address
	StartTime      int64
	CliffTime      int64
	EndTime        int64
	TotalGranted   int64
	TotalWithdrawn int64
	CreatedAt      int64
	Bump           uint8
}

func grantFromModel(row *models.Grant) (*Grant, error) {
	addr, err := derivation.NewAddress(row.Address)
	if err != nil {
		return nil, err
	}
	pool, err := derivation.NewAddress(row.Pool)
	if err != nil {
		return nil, err
	}
	beneficiary, err := derivation.NewAddress(row.Beneficiary)
	if err != nil {
		return nil, err
	}
	return &Grant{
		Address:        addr,
		Pool:           pool,
		Beneficiary:    beneficiary,
		StartTime:      row.StartTime,
		CliffTime:      row.CliffTime,
		EndTime:        row.EndTime,
		TotalGranted:   row.TotalGranted,
		TotalWithdrawn: row.TotalWithdrawn,
		CreatedAt:      row.CreatedAt,
		Bump:           row.Bump,
	}, nil
}

func (g *Grant) toModel() *models.Grant {
	return &models.Grant{
		Address:        g.Address.Bytes(),
		Pool:           g.Pool.Bytes(),
		Beneficiary:    g.Beneficiary.Bytes(),
		StartTime:      g.StartTime,
		CliffTime:      g.CliffTime,
		EndTime:        g.EndTime,
		TotalGranted:   g.TotalGranted,
		TotalWithdrawn: g.TotalWithdrawn,
		CreatedAt:      g.CreatedAt,
		Bump:           g.Bump,
	}
}

// StateAt returns the grant's schedule state at the given time
func (g *Grant) StateAt(now int64) GrantState {
	switch {
	case now < g.CliffTime:
		return GrantStateBeforeCliff
	case now < g.EndTime:
		return GrantStateVesting
	default:
		return GrantStateFullyVested
	}
}

// VestedAt returns the cumulative amount vested at the given time: zero
// before the cliff, the full grant from the end time on, and a linear
// interpolation over elapsed time in between. The result never decreases
// as now advances. A schedule whose span is not positive fails with
// ErrInvalidVestingPeriod, and an interpolation that cannot be represented
// fails with ErrCalculationOverflow, both before any state is touched.
func (g *Grant) VestedAt(now int64) (int64, error) {
	if now < g.CliffTime {
		return 0, nil
	}
	span, err := checkedSub(g.EndTime, g.StartTime)
	if err != nil {
		return 0, err
	}
	if span <= 0 {
		return 0, fmt.Errorf(
			"%w: span of %d seconds",
			ErrInvalidVestingPeriod,
			span,
		)
	}
	if now >= g.EndTime {
		return g.TotalGranted, nil
	}
	elapsed, err := checkedSub(now, g.StartTime)
	if err != nil {
		return 0, err
	}
	vested, err := checkedMul(g.TotalGranted, elapsed)
	if err != nil {
		return 0, err
	}
	return vested / span, nil
}

// verifyFor checks that a stored grant belongs to the given beneficiary and
// pool by re-deriving its address from the stored bump. A mismatch on any
// field means the record must not release tokens.
func (g *Grant) verifyFor(beneficiary derivation.Address, pool *Pool) error {
	if g.Beneficiary != beneficiary || g.Pool != pool.Address {
		return fmt.Errorf(
			"%w: grant %s failed ownership cross-check",
			ErrUnauthorized,
			g.Address,
		)
	}
	addr, err := derivation.DeriveWithBump(
		g.Bump,
		[]byte(derivation.SeedEmployee),
		beneficiary.Bytes(),
		pool.Address.Bytes(),
	)
	if err != nil || addr != g.Address {
		return fmt.Errorf(
			"%w: grant %s failed address cross-check",
			ErrUnauthorized,
			g.Address,
		)
	}
	return nil
}

// CreateGrant records a vesting grant for a beneficiary against a pool. The
// signer must be the pool administrator, and the schedule must satisfy
// startTime <= cliffTime <= endTime with a non-negative total.
func (e *Engine) CreateGrant(
	ctx context.Context,
	signer derivation.Address,
	companyName string,
	beneficiary derivation.Address,
	startTime int64,
	cliffTime int64,
	endTime int64,
	totalGranted int64,
) (*Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if startTime > cliffTime || cliffTime > endTime {
		return nil, fmt.Errorf(
			"%w: require start <= cliff <= end, got %d, %d, %d",
			ErrInvalidSchedule,
			startTime,
			cliffTime,
			endTime,
		)
	}
	if totalGranted < 0 {
		return nil, fmt.Errorf(
			"%w: negative grant amount %d",
			ErrInvalidSchedule,
			totalGranted,
		)
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	var grant *Grant
	err := e.db.Transaction(true).Do(func(txn *database.Txn) error {
		pool, err := e.loadPool(companyName, txn)
		if err != nil {
			return err
		}
		if signer != pool.Administrator {
			return fmt.Errorf(
				"%w: only the pool administrator may create grants",
				ErrUnauthorized,
			)
		}
		grantAddr, grantBump, err := derivation.GrantAddress(
			beneficiary,
			pool.Address,
		)
		if err != nil {
			return err
		}
		_, err = e.db.GetGrant(grantAddr.Bytes(), txn)
		if err == nil {
			return fmt.Errorf(
				"%w: grant for %s in pool %q",
				ErrDuplicateRecord,
				beneficiary,
				companyName,
			)
		}
		if !errors.Is(err, models.ErrGrantNotFound) {
			return err
		}
		grant = &Grant{
			Address:        grantAddr,
			Pool:           pool.Address,
			Beneficiary:    beneficiary,
			StartTime:      startTime,
			CliffTime:      cliffTime,
			EndTime:        endTime,
			TotalGranted:   totalGranted,
			TotalWithdrawn: 0,
			CreatedAt:      e.Now(),
			Bump:           grantBump,
		}
		if err := e.db.SetGrant(grant.toModel(), txn); err != nil {
			return err
		}
		txn.OnCommit(func() {
			e.publish(GrantCreatedEventType, GrantCreatedEvent{
				Grant:        grant.Address,
				Pool:         grant.Pool,
				Beneficiary:  grant.Beneficiary,
				TotalGranted: grant.TotalGranted,
				StartTime:    grant.StartTime,
				CliffTime:    grant.CliffTime,
				EndTime:      grant.EndTime,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.metrics.grantsCreated.Inc()
	e.logger.Info(
		"created vesting grant",
		"component", "vesting",
		"grant", grant.Address.String(),
		"pool", grant.Pool.String(),
		"beneficiary", grant.Beneficiary.String(),
		"total_granted", grant.TotalGranted,
	)
	return grant, nil
}

// Grant returns the grant held by a beneficiary in a company's pool
func (e *Engine) Grant(
	beneficiary derivation.Address,
	companyName string,
) (*Grant, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	pool, err := e.loadPool(companyName, nil)
	if err != nil {
		return nil, err
	}
	return e.loadGrant(beneficiary, pool, nil)
}

// GrantByAddress returns the grant with the given derived address
func (e *Engine) GrantByAddress(addr derivation.Address) (*Grant, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	row, err := e.db.GetGrant(addr.Bytes(), nil)
	if err != nil {
		if errors.Is(err, models.ErrGrantNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGrantNotFound, addr)
		}
		return nil, err
	}
	return grantFromModel(row)
}

// Grants lists all grants in a company's pool
func (e *Engine) Grants(companyName string) ([]Grant, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	pool, err := e.loadPool(companyName, nil)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.GetGrantsByPool(pool.Address.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Grant, 0, len(rows))
	for _, row := range rows {
		grant, err := grantFromModel(&row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *grant)
	}
	return ret, nil
}

// GrantsByBeneficiary lists the grants a beneficiary holds across all pools
func (e *Engine) GrantsByBeneficiary(
	beneficiary derivation.Address,
) ([]Grant, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	rows, err := e.db.GetGrantsByBeneficiary(beneficiary.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Grant, 0, len(rows))
	for _, row := range rows {
		grant, err := grantFromModel(&row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *grant)
	}
	return ret, nil
}

// loadGrant reads the grant at the derived address for a beneficiary and
// pool and verifies its cross-checks
func (e *Engine) loadGrant(
	beneficiary derivation.Address,
	pool *Pool,
	txn *database.Txn,
) (*Grant, error) {
	grantAddr, _, err := derivation.GrantAddress(beneficiary, pool.Address)
	if err != nil {
		return nil, err
	}
	row, err := e.db.GetGrant(grantAddr.Bytes(), txn)
	if err != nil {
		if errors.Is(err, models.ErrGrantNotFound) {
			return nil, fmt.Errorf(
				"%w: no grant for %s in pool %q",
				ErrGrantNotFound,
				beneficiary,
				pool.Name,
			)
		}
		return nil, err
	}
	grant, err := grantFromModel(row)
	if err != nil {
		return nil, err
	}
	if err := grant.verifyFor(beneficiary, pool); err != nil {
		return nil, err
	}
	return grant, nil
}

// checkedSub subtracts b from a, failing instead of wrapping on overflow
func checkedSub(a, b int64) (int64, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, fmt.Errorf(
			"%w: %d - %d",
			ErrCalculationOverflow,
			a,
			b,
		)
	}
	return diff, nil
}

// checkedMul multiplies two non-negative values, failing instead of
// wrapping on overflow
func checkedMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/b != a {
		return 0, fmt.Errorf(
			"%w: %d * %d",
			ErrCalculationOverflow,
			a,
			b,
		)
	}
	return product, nil
}
