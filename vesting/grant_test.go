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
	"math"
	"testing"

	"github.com/blinklabs-io/vestry/vesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantStateAt(t *testing.T) {
	grant := &vesting.Grant{
		StartTime: 100,
		CliffTime: 200,
		EndTime:   1000,
	}
	assert.Equal(t, vesting.GrantStateBeforeCliff, grant.StateAt(0))
	assert.Equal(t, vesting.GrantStateBeforeCliff, grant.StateAt(199))
	assert.Equal(t, vesting.GrantStateVesting, grant.StateAt(200))
	assert.Equal(t, vesting.GrantStateVesting, grant.StateAt(999))
	assert.Equal(t, vesting.GrantStateFullyVested, grant.StateAt(1000))
	assert.Equal(t, vesting.GrantStateFullyVested, grant.StateAt(5000))
}

func TestGrantVestedAt(t *testing.T) {
	grant := &vesting.Grant{
		StartTime:    0,
		CliffTime:    100,
		EndTime:      1000,
		TotalGranted: 1000,
	}

	// Zero before the cliff
	vested, err := grant.VestedAt(50)
	require.NoError(t, err)
	assert.Equal(t, int64(0), vested)

	// Linear from start, observable once the cliff passes
	vested, err = grant.VestedAt(100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), vested)
	vested, err = grant.VestedAt(550)
	require.NoError(t, err)
	assert.Equal(t, int64(550), vested)

	// Truncating division rounds down
	uneven := &vesting.Grant{
		StartTime:    0,
		CliffTime:    0,
		EndTime:      3,
		TotalGranted: 10,
	}
	vested, err = uneven.VestedAt(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), vested)

	// The full amount from the end time on
	vested, err = grant.VestedAt(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), vested)
	vested, err = grant.VestedAt(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), vested)
}

func TestGrantVestedAtMonotonic(t *testing.T) {
	grant := &vesting.Grant{
		StartTime:    0,
		CliffTime:    250,
		EndTime:      10000,
		TotalGranted: 777,
	}
	var prev int64
	for now := int64(0); now <= 11000; now += 37 {
		vested, err := grant.VestedAt(now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, vested, prev, "vested must never decrease")
		assert.LessOrEqual(t, vested, grant.TotalGranted)
		prev = vested
	}
	assert.Equal(t, grant.TotalGranted, prev)
}

func TestGrantVestedAtDegenerate(t *testing.T) {
	grant := &vesting.Grant{
		StartTime:    100,
		CliffTime:    100,
		EndTime:      100,
		TotalGranted: 1000,
	}
	// Still before-cliff semantics below the boundary
	vested, err := grant.VestedAt(50)
	require.NoError(t, err)
	assert.Equal(t, int64(0), vested)
	// At or past the boundary there is no span to interpolate over
	_, err = grant.VestedAt(100)
	assert.ErrorIs(t, err, vesting.ErrInvalidVestingPeriod)
	_, err = grant.VestedAt(200)
	assert.ErrorIs(t, err, vesting.ErrInvalidVestingPeriod)
}

func TestGrantVestedAtOverflow(t *testing.T) {
	grant := &vesting.Grant{
		StartTime:    0,
		CliffTime:    0,
		EndTime:      10,
		TotalGranted: math.MaxInt64,
	}
	// One elapsed second still fits
	vested, err := grant.VestedAt(1)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt64/int64(10), vested)
	// Two elapsed seconds overflow the intermediate product
	_, err = grant.VestedAt(2)
	assert.ErrorIs(t, err, vesting.ErrCalculationOverflow)
	// From the end on, no interpolation happens at all
	vested, err = grant.VestedAt(10)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), vested)
}
