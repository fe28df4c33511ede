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

package vesting_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/blinklabs-io/vestry/vesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimSchedule(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	pool, _ := setupPool(t, h, admin, "Acme Corp", 1000)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 100, 1000, 1000,
	)
	require.NoError(t, err)

	// Before the cliff nothing is claimable
	h.now.Store(50)
	_, err = h.engine.Claim(ctx, employee, "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrClaimNotAvailable)
	grant, err := h.engine.Grant(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(0), grant.TotalWithdrawn)

	// At the cliff the linear schedule has accrued 100 of 1000
	h.now.Store(100)
	result, err := h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Amount)
	assert.Equal(t, int64(100), result.ClaimedAt)

	// Midway: 550 vested minus the 100 already withdrawn
	h.now.Store(550)
	result, err = h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(450), result.Amount)

	// At the end the remainder of the full grant is released
	h.now.Store(1000)
	result, err = h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(450), result.Amount)

	// Nothing further accrues after the end
	h.now.Store(2000)
	_, err = h.engine.Claim(ctx, employee, "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrNothingToClaim)

	// Every released token landed in the beneficiary's custody account
	// and the treasury is empty
	grant, err = h.engine.Grant(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), grant.TotalWithdrawn)
	destAddr, _, err := derivation.CustodyAddress(employee, pool.Mint)
	require.NoError(t, err)
	assert.Equal(t, destAddr, result.Destination)
	account, err := h.engine.Account(destAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Balance)
	balance, err := h.engine.TreasuryBalance("Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestClaimSameInstant(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 100, 1000, 1000,
	)
	require.NoError(t, err)

	h.now.Store(500)
	result, err := h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.Amount)
	// A second claim at the same instant has nothing left to release
	_, err = h.engine.Claim(ctx, employee, "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrNothingToClaim)
}

func TestClaimIdentityChecks(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 100, 1000, 1000,
	)
	require.NoError(t, err)
	h.now.Store(500)

	// A signer with no grant record in the pool
	_, err = h.engine.Claim(ctx, testIdentity(t), "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrGrantNotFound)

	// A pool that was never created
	_, err = h.engine.Claim(ctx, employee, "Globex")
	assert.ErrorIs(t, err, vesting.ErrPoolNotFound)

	// The real beneficiary is unaffected
	result, err := h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.Amount)
}

func TestClaimDegenerateSchedule(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	// Equal boundaries pass creation but the schedule has no span to
	// interpolate over
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 100, 100, 100, 1000,
	)
	require.NoError(t, err)

	h.now.Store(200)
	_, err = h.engine.Claim(ctx, employee, "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrInvalidVestingPeriod)
}

func TestClaimCalculationOverflow(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 0, 10, math.MaxInt64,
	)
	require.NoError(t, err)

	// Interpolating MaxInt64 over two elapsed seconds overflows the
	// intermediate product
	h.now.Store(2)
	_, err = h.engine.Claim(ctx, employee, "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrCalculationOverflow)

	// The failed claim left the grant untouched
	grant, err := h.engine.Grant(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(0), grant.TotalWithdrawn)
}

func TestClaimInsufficientTreasury(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	pool, authority := setupPool(t, h, admin, "Acme Corp", 100)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 0, 10, 1000,
	)
	require.NoError(t, err)

	h.now.Store(10)
	_, err = h.engine.Claim(ctx, employee, "Acme Corp")
	assert.ErrorIs(t, err, vesting.ErrInsufficientTreasuryBalance)

	// The whole claim rolled back: no grant movement, no destination
	// account, treasury untouched
	grant, err := h.engine.Grant(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(0), grant.TotalWithdrawn)
	destAddr, _, err := derivation.CustodyAddress(employee, pool.Mint)
	require.NoError(t, err)
	_, err = h.engine.Account(destAddr)
	assert.ErrorIs(t, err, custody.ErrNotFound)
	balance, err := h.engine.TreasuryBalance("Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	// Funding the treasury unblocks the same claim
	_, err = h.engine.FundTreasury(ctx, authority, "Acme Corp", 900)
	require.NoError(t, err)
	result, err := h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.Amount)
}

func TestClaimAuditTrail(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	grant, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 100, 1000, 1000,
	)
	require.NoError(t, err)

	for _, instant := range []int64{100, 550, 1000} {
		h.now.Store(instant)
		_, err := h.engine.Claim(ctx, employee, "Acme Corp")
		require.NoError(t, err)
	}

	claims, err := h.engine.Claims("Acme Corp")
	require.NoError(t, err)
	require.Len(t, claims, 3)
	amounts := []int64{claims[0].Amount, claims[1].Amount, claims[2].Amount}
	assert.Equal(t, []int64{100, 450, 450}, amounts)
	seen := map[string]bool{}
	for _, claim := range claims {
		assert.Equal(t, grant.Address, claim.Grant)
		assert.Equal(t, employee, claim.Beneficiary)
		assert.NotEmpty(t, claim.RequestId)
		assert.False(t, seen[claim.RequestId], "request ids must be unique")
		seen[claim.RequestId] = true
	}
	assert.Equal(t, int64(100), claims[0].ClaimedAt)
	assert.Equal(t, int64(550), claims[1].ClaimedAt)
	assert.Equal(t, int64(1000), claims[2].ClaimedAt)

	mine, err := h.engine.ClaimsByBeneficiary(employee)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestClaimEvent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 100, 1000, 1000,
	)
	require.NoError(t, err)

	subId, evtCh := h.bus.Subscribe(vesting.ClaimEventType)
	defer h.bus.Unsubscribe(vesting.ClaimEventType, subId)

	h.now.Store(500)
	result, err := h.engine.Claim(ctx, employee, "Acme Corp")
	require.NoError(t, err)

	select {
	case evt := <-evtCh:
		payload, ok := evt.Data.(vesting.ClaimEvent)
		require.True(t, ok)
		assert.Equal(t, result.RequestId, payload.RequestId)
		assert.Equal(t, result.Amount, payload.Amount)
		assert.Equal(t, result.Beneficiary, payload.Beneficiary)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for claim event")
	}
}

func TestGrantStatus(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	admin := testIdentity(t)
	employee := testIdentity(t)
	setupPool(t, h, admin, "Acme Corp", 1000)
	_, err := h.engine.CreateGrant(
		ctx, admin, "Acme Corp", employee, 0, 100, 1000, 1000,
	)
	require.NoError(t, err)

	h.now.Store(50)
	status, err := h.engine.GrantStatus(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, vesting.GrantStateBeforeCliff, status.State)
	assert.Equal(t, int64(0), status.Vested)
	assert.Equal(t, int64(0), status.Claimable)
	assert.Equal(t, int64(50), status.AsOf)

	h.now.Store(500)
	status, err = h.engine.GrantStatus(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, vesting.GrantStateVesting, status.State)
	assert.Equal(t, int64(500), status.Vested)
	assert.Equal(t, int64(500), status.Claimable)

	// The status view does not mutate anything
	status, err = h.engine.GrantStatus(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(500), status.Claimable)

	h.now.Store(1500)
	status, err = h.engine.GrantStatus(employee, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, vesting.GrantStateFullyVested, status.State)
	assert.Equal(t, int64(1000), status.Vested)
	assert.Equal(t, int64(1000), status.Claimable)
}
