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

package derivation_test

import (
	"testing"

	"github.com/blinklabs-io/vestry/derivation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWellKnownDerivations(t *testing.T) {
	poolAddr, _, err := derivation.PoolAddress("Acme Corp")
	require.NoError(t, err)
	treasuryAddr, treasuryBump, err := derivation.TreasuryAddress("Acme Corp")
	require.NoError(t, err)
	assert.NotEqual(t, poolAddr, treasuryAddr)

	// The helpers are shorthand for the raw seed sequences
	rawPool, _, err := derivation.Derive([]byte("pool"), []byte("Acme Corp"))
	require.NoError(t, err)
	assert.Equal(t, rawPool, poolAddr)

	var beneficiary derivation.Address
	beneficiary[0] = 0x42
	grantAddr, _, err := derivation.GrantAddress(beneficiary, poolAddr)
	require.NoError(t, err)
	assert.NotEqual(t, poolAddr, grantAddr)

	var mint derivation.Address
	mint[0] = 0x99
	custodyAddr, _, err := derivation.CustodyAddress(beneficiary, mint)
	require.NoError(t, err)
	assert.NotEqual(t, grantAddr, custodyAddr)

	// Treasury credential re-derives the treasury address
	auth := derivation.TreasuryAuthority("Acme Corp", treasuryBump)
	authAddr, err := auth.Address()
	require.NoError(t, err)
	assert.Equal(t, treasuryAddr, authAddr)
}
