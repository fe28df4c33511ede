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

package derivation

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"
)

const (
	// AddressSize is the length of an address in bytes
	AddressSize = 32

	// Bech32HRP is the human-readable prefix for displayed addresses
	Bech32HRP = "vest"
)

var ErrInvalidAddress = errors.New("invalid address")

// Address is a 32-byte record or identity address. Derived record addresses
// and ed25519 signing identities share this representation but never
// overlap (see Derive).
//
// Display format is bech32 with the "vest" prefix. CBOR encoding is a raw
// 32-byte string.
type Address [AddressSize]byte

// NewAddress builds an Address from a raw 32-byte value
func NewAddress(data []byte) (Address, error) {
	var addr Address
	if len(data) != AddressSize {
		return addr, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidAddress,
			AddressSize,
			len(data),
		)
	}
	copy(addr[:], data)
	return addr, nil
}

// ParseAddress decodes a bech32 "vest" address
func ParseAddress(s string) (Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if hrp != Bech32HRP {
		return Address{}, fmt.Errorf(
			"%w: unexpected prefix %q",
			ErrInvalidAddress,
			hrp,
		)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return NewAddress(decoded)
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the bech32-encoded representation with the "vest" prefix
func (a Address) String() string {
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	encoded, err := bech32.Encode(Bech32HRP, convData)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	return encoded
}

// MarshalText implements encoding.TextMarshaler using the bech32 form
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// MarshalCBOR implements cbor.Marshaler, encoding the address as a raw
// 32-byte string rather than an array of integers
func (a Address) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a[:])
}

// UnmarshalCBOR implements cbor.Unmarshaler
func (a *Address) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	addr, err := NewAddress(raw)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
