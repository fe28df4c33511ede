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

// Authority is the scoped credential for a derived address: the seed
// sequence and bump that reproduce it. There is no secret key involved.
// Whoever holds the seeds can re-derive the address and thereby act as
// its authority.
type Authority struct {
	seeds [][]byte
	bump  uint8
}

// NewAuthority builds an Authority from a known bump and seed sequence.
// The seeds are copied so later mutation of the caller's slices cannot
// change the credential.
func NewAuthority(bump uint8, seeds ...[]byte) Authority {
	copied := make([][]byte, len(seeds))
	for i, seed := range seeds {
		copied[i] = make([]byte, len(seed))
		copy(copied[i], seed)
	}
	return Authority{
		seeds: copied,
		bump:  bump,
	}
}

// Address re-derives the address this credential stands for
func (a Authority) Address() (Address, error) {
	return DeriveWithBump(a.bump, a.seeds...)
}

func (a Authority) Bump() uint8 {
	return a.bump
}
