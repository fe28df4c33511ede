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

// Package derivation computes deterministic record addresses from ordered
// seed sequences. An address is the BLAKE3 keyed hash of the length-framed
// seeds plus a trailing bump byte. The bump is searched from 255 downward
// until the candidate does not decode as a valid edwards25519 point. Signing
// identities are always valid curve points, so derived addresses never
// collide with them, and authority over a derived address reduces to
// knowledge of its seeds.
package derivation

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/zeebo/blake3"
)

const (
	// MaxSeedLen is the maximum length of a single seed in bytes
	MaxSeedLen = 50

	// MaxSeeds is the maximum number of seeds in a derivation
	MaxSeeds = 16
)

var (
	ErrSeedTooLong  = errors.New("seed exceeds maximum length")
	ErrTooManySeeds = errors.New("too many seeds")
	ErrNoValidBump  = errors.New("no valid bump for seeds")
	ErrOnCurve      = errors.New("derived address is a valid curve point")
)

// addressDomainKey is the BLAKE3 keyed-hash domain for address derivation.
// The byte values are the ASCII domain name zero-padded to 32 bytes. Fixed
// constant, changing it invalidates every existing derived address.
var addressDomainKey = [32]byte{
	'v', 'e', 's', 't', 'r', 'y', '.', 'd', 'e', 'r', 'i', 'v', 'a', 't', 'i', 'o',
	'n', '.', 'a', 'd', 'd', 'r', 'e', 's', 's', 0, 0, 0, 0, 0, 0, 0,
}

// Derive computes the address for a seed sequence along with the bump that
// produced it. The same seeds always yield the same address and bump.
func Derive(seeds ...[]byte) (Address, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return Address{}, 0, err
	}
	for i := 255; i >= 0; i-- {
		bump := uint8(i)
		addr := hashSeeds(seeds, bump)
		if !isOnCurve(addr) {
			return addr, bump, nil
		}
	}
	// Probability of reaching this is negligible, but the search space is
	// finite so it must be handled
	return Address{}, 0, ErrNoValidBump
}

// DeriveWithBump recomputes the address for a seed sequence and a known
// bump. It fails with ErrOnCurve if the candidate decodes as a curve point,
// since such an address could be forged by a signing keypair.
func DeriveWithBump(bump uint8, seeds ...[]byte) (Address, error) {
	if err := validateSeeds(seeds); err != nil {
		return Address{}, err
	}
	addr := hashSeeds(seeds, bump)
	if isOnCurve(addr) {
		return Address{}, ErrOnCurve
	}
	return addr, nil
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return ErrSeedTooLong
		}
	}
	return nil
}

// hashSeeds computes the candidate address for a seed sequence and bump.
// Each seed is framed with a single length byte so that seed boundaries are
// unambiguous ("ab","c" never hashes like "a","bc").
func hashSeeds(seeds [][]byte, bump uint8) Address {
	hasher, err := blake3.NewKeyed(addressDomainKey[:])
	if err != nil {
		// NewKeyed only fails on a wrong key length, which the fixed-size
		// domain key rules out
		panic("derivation: BLAKE3 keyed hasher init failed: " + err.Error())
	}
	for _, seed := range seeds {
		hasher.Write([]byte{byte(len(seed))})
		hasher.Write(seed)
	}
	hasher.Write([]byte{bump})
	var addr Address
	copy(addr[:], hasher.Sum(nil))
	return addr
}

func isOnCurve(addr Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err == nil
}
