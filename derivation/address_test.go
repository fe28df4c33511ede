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
	"strings"
	"testing"

	"github.com/blinklabs-io/vestry/derivation"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressBech32RoundTrip(t *testing.T) {
	addr, _, err := derivation.Derive([]byte("pool"), []byte("Acme Corp"))
	require.NoError(t, err)

	encoded := addr.String()
	assert.True(
		t,
		strings.HasPrefix(encoded, derivation.Bech32HRP+"1"),
		"encoded address should carry the vest prefix: %s",
		encoded,
	)

	decoded, err := derivation.ParseAddress(encoded)
	require.NoError(t, err)
	assert.Equal(t, addr, decoded)
}

func TestParseAddressRejectsWrongPrefix(t *testing.T) {
	// A valid bech32 string with a foreign prefix
	_, err := derivation.ParseAddress(
		"stake1u9f9v0z5zzlldgx58n8tklphu8mf7h4jvp2j2gddluemnssjfnkzz",
	)
	assert.ErrorIs(t, err, derivation.ErrInvalidAddress)
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	_, err := derivation.ParseAddress("not-an-address")
	assert.ErrorIs(t, err, derivation.ErrInvalidAddress)
}

func TestNewAddressLength(t *testing.T) {
	_, err := derivation.NewAddress(make([]byte, 31))
	assert.ErrorIs(t, err, derivation.ErrInvalidAddress)

	_, err = derivation.NewAddress(make([]byte, 32))
	assert.NoError(t, err)
}

func TestAddressTextMarshaling(t *testing.T) {
	addr, _, err := derivation.Derive([]byte("pool"), []byte("Acme Corp"))
	require.NoError(t, err)

	text, err := addr.MarshalText()
	require.NoError(t, err)
	var decoded derivation.Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
}

func TestAddressCborMarshaling(t *testing.T) {
	addr, _, err := derivation.Derive([]byte("pool"), []byte("Acme Corp"))
	require.NoError(t, err)

	data, err := cbor.Marshal(addr)
	require.NoError(t, err)
	// Raw byte string, not an array of integers: 1 header byte + 1 length
	// byte + 32 payload bytes
	assert.Len(t, data, 34)

	var decoded derivation.Address
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestAddressIsZero(t *testing.T) {
	var addr derivation.Address
	assert.True(t, addr.IsZero())

	derived, _, err := derivation.Derive([]byte("pool"), []byte("Acme Corp"))
	require.NoError(t, err)
	assert.False(t, derived.IsZero())
}
