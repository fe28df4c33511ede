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

// Package vesting implements the token-vesting escrow core: company pools,
// per-beneficiary grants, and the claim engine that releases custodied
// tokens on a cliff-then-linear schedule. Records are located by derived
// address, and the authority to debit a pool treasury is knowledge of the
// treasury's derivation seeds rather than a held key. Every mutating
// operation runs as one database transaction under the engine's write lock,
// so an operation's read-modify-write sequence is never interleaved and
// either commits whole or not at all.
package vesting

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Config struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	Custody      *custody.Ledger
	NowFunc      func() time.Time
	PromRegistry prometheus.Registerer
}

// Engine owns the vesting pools and grants and processes claims against
// them. It is the single entry point for mutating operations, including the
// custody tooling it fronts.
type Engine struct {
	config   Config
	logger   *slog.Logger
	db       *database.Database
	eventBus *event.EventBus
	custody  *custody.Ledger
	nowFunc  func() time.Time
	mutex    sync.RWMutex
	metrics  struct {
		poolsCreated   prometheus.Counter
		grantsCreated  prometheus.Counter
		claimsTotal    prometheus.Counter
		tokensClaimed  prometheus.Counter
		treasuryFunded prometheus.Counter
	}
}

func NewEngine(config Config) *Engine {
	e := &Engine{
		config:   config,
		db:       config.Database,
		eventBus: config.EventBus,
		custody:  config.Custody,
		nowFunc:  config.NowFunc,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = config.Logger
	}
	if e.nowFunc == nil {
		e.nowFunc = time.Now
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	e.metrics.poolsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "vestry_vesting_pools_created_total",
			Help: "total vesting pools created",
		},
	)
	e.metrics.grantsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "vestry_vesting_grants_created_total",
			Help: "total vesting grants created",
		},
	)
	e.metrics.claimsTotal = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "vestry_vesting_claims_total",
			Help: "total successful claims processed",
		},
	)
	e.metrics.tokensClaimed = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "vestry_vesting_tokens_claimed_total",
			Help: "total tokens released to beneficiaries",
		},
	)
	e.metrics.treasuryFunded = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "vestry_vesting_treasury_funded_tokens_total",
			Help: "total tokens issued into pool treasuries",
		},
	)
	return e
}

// Now returns the engine's current time as a Unix timestamp. All schedule
// comparisons use this clock.
func (e *Engine) Now() int64 {
	return e.nowFunc().Unix()
}

// publish hands an event to the bus without blocking. The engine publishes
// from commit hooks while holding its write lock, so delivery must not wait
// on subscribers.
func (e *Engine) publish(eventType event.EventType, data any) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}
