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

import "errors"

var (
	// ErrDuplicateRecord is returned when creating a pool or grant whose
	// derived address is already occupied
	ErrDuplicateRecord = errors.New("record already exists")

	// ErrUnauthorized is returned when the signer does not hold the
	// required role for an operation, or a stored record fails its
	// derivation cross-check
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCompanyName is returned when a company name is empty or
	// too long to serve as a derivation seed
	ErrInvalidCompanyName = errors.New("invalid company name")

	// ErrInvalidSchedule is returned when a grant's schedule violates
	// start <= cliff <= end or grants a negative amount
	ErrInvalidSchedule = errors.New("invalid vesting schedule")

	// ErrClaimNotAvailable is returned when claiming before the cliff
	ErrClaimNotAvailable = errors.New("claim not available before cliff")

	// ErrInvalidVestingPeriod is returned when a stored schedule has a
	// non-positive span between start and end
	ErrInvalidVestingPeriod = errors.New("invalid vesting period")

	// ErrCalculationOverflow is returned when the vested-amount
	// computation would overflow
	ErrCalculationOverflow = errors.New("calculation overflow")

	// ErrNothingToClaim is returned when the vested amount has already
	// been fully withdrawn
	ErrNothingToClaim = errors.New("nothing to claim")

	// ErrInsufficientTreasuryBalance is returned when the pool treasury
	// cannot cover a claimable amount
	ErrInsufficientTreasuryBalance = errors.New(
		"insufficient treasury balance",
	)

	// ErrPoolNotFound is returned when no pool exists for a company name
	// or address
	ErrPoolNotFound = errors.New("pool not found")

	// ErrGrantNotFound is returned when no grant exists at the derived
	// address for a beneficiary and pool
	ErrGrantNotFound = errors.New("grant not found")
)
