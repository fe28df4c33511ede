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

// Seed prefixes for the well-known derivations. These are part of the
// persistent address scheme and must never change.
const (
	SeedPool     = "pool"
	SeedTreasury = "treasury"
	SeedEmployee = "employee"
	SeedCustody  = "custody"
)

// PoolAddress derives the address of a vesting pool from its company name
func PoolAddress(companyName string) (Address, uint8, error) {
	return Derive([]byte(SeedPool), []byte(companyName))
}

// TreasuryAddress derives the address of a pool's treasury account from the
// company name
func TreasuryAddress(companyName string) (Address, uint8, error) {
	return Derive([]byte(SeedTreasury), []byte(companyName))
}

// TreasuryAuthority builds the credential that can act for a pool treasury.
// The bump comes from the stored pool record.
func TreasuryAuthority(companyName string, bump uint8) Authority {
	return NewAuthority(bump, []byte(SeedTreasury), []byte(companyName))
}

// GrantAddress derives the address of a vesting grant from the beneficiary
// identity and the pool address
func GrantAddress(beneficiary, pool Address) (Address, uint8, error) {
	return Derive([]byte(SeedEmployee), beneficiary.Bytes(), pool.Bytes())
}

// CustodyAddress derives the address of a custody account from its owner and
// mint
func CustodyAddress(owner, mint Address) (Address, uint8, error) {
	return Derive([]byte(SeedCustody), owner.Bytes(), mint.Bytes())
}
