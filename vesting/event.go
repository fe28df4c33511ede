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
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/blinklabs-io/vestry/event"
)

const (
	PoolCreatedEventType    event.EventType = "vesting.pool_created"
	GrantCreatedEventType   event.EventType = "vesting.grant_created"
	TreasuryFundedEventType event.EventType = "vesting.treasury_funded"
	ClaimEventType          event.EventType = "vesting.claim"
)

// PoolCreatedEvent represents a new vesting pool being registered
type PoolCreatedEvent struct {
	Name          string
	Pool          derivation.Address
	Administrator derivation.Address
	Mint          derivation.Address
	Treasury      derivation.Address
}

// GrantCreatedEvent represents a new grant being recorded against a pool
type GrantCreatedEvent struct {
	Grant        derivation.Address
	Pool         derivation.Address
	Beneficiary  derivation.Address
	TotalGranted int64
	StartTime    int64
	CliffTime    int64
	EndTime      int64
}

// TreasuryFundedEvent represents tokens being issued into a pool treasury
type TreasuryFundedEvent struct {
	Pool     derivation.Address
	Treasury derivation.Address
	Amount   int64
}

// ClaimEvent represents vested tokens being released to a beneficiary
type ClaimEvent struct {
	Grant       derivation.Address
	Pool        derivation.Address
	Beneficiary derivation.Address
	RequestId   string
	Amount      int64
	ClaimedAt   int64
}
