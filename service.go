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

package vestry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/vestry/api"
	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/event"
	"github.com/blinklabs-io/vestry/vesting"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Service struct {
	api           *api.Api
	custody       *custody.Ledger
	vesting       *vesting.Engine
	eventBus      *event.EventBus
	db            *database.Database
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Service, error) {
	s := &Service{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := s.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
	return s, nil
}

// Engine returns the vesting engine. This is not populated until Run is called
func (s *Service) Engine() *vesting.Engine {
	return s.vesting
}

func (s *Service) Run() error {
	// Configure tracing
	if s.config.tracing {
		if err := s.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db := s.config.database
	if db == nil {
		dbConfig := &database.Config{
			DataDir:        s.config.dataDir,
			BlobPlugin:     s.config.blobPlugin,
			MetadataPlugin: s.config.metadataPlugin,
			Logger:         s.config.logger,
			PromRegistry:   s.config.promRegistry,
		}
		tmpDb, err := database.New(dbConfig)
		if tmpDb == nil {
			s.config.logger.Error(
				"failed to create database",
				"error",
				"empty database returned",
			)
			return errors.New("empty database returned")
		}
		if err != nil {
			var dbErr database.CommitTimestampError
			if !errors.As(err, &dbErr) {
				return fmt.Errorf("failed to open database: %w", err)
			}
			s.config.logger.Warn(
				"database initialization error, needs recovery",
				"error",
				err,
			)
			// The blob store holds the authoritative records, rebuild the
			// metadata projection from them
			if err := tmpDb.Recover(); err != nil {
				return fmt.Errorf("failed to recover database: %w", err)
			}
		}
		db = tmpDb
	}
	s.db = db
	// Initialize custody ledger
	s.custody = custody.NewLedger(custody.LedgerConfig{
		Logger:       s.config.logger,
		Database:     s.db,
		NowFunc:      s.config.nowFunc,
		PromRegistry: s.config.promRegistry,
	})
	// Initialize vesting engine
	s.vesting = vesting.NewEngine(vesting.Config{
		Logger:       s.config.logger,
		Database:     s.db,
		EventBus:     s.eventBus,
		Custody:      s.custody,
		NowFunc:      s.config.nowFunc,
		PromRegistry: s.config.promRegistry,
	})
	// Configure API
	s.api = api.New(api.Config{
		Logger:          s.config.logger,
		Engine:          s.vesting,
		ListenAddress:   s.config.apiListenAddress,
		InsecureDevMode: s.config.insecureDevMode,
		PromRegistry:    s.config.promRegistry,
	})
	if s.config.insecureDevMode {
		s.config.logger.Warn(
			"insecure dev mode enabled, request signatures are not verified",
		)
	}
	errChan := make(chan error, 2)
	// Start API listener
	go func() {
		if err := s.api.Start(); err != nil {
			errChan <- fmt.Errorf("api listener: %w", err)
		}
	}()
	// Start metrics listener
	if s.config.metricsListenAddress != "" {
		s.startMetricsListener(errChan)
	}

	// Wait for shutdown signal
	select {
	case err := <-errChan:
		return err
	case <-s.done:
	}
	return nil
}

func (s *Service) startMetricsListener(errChan chan<- error) {
	// The configured registry only covers registration, so serve from it
	// directly when it can also gather and fall back to the default
	// registry otherwise
	handler := promhttp.Handler()
	if gatherer, ok := s.config.promRegistry.(prometheus.Gatherer); ok {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	metricsServer := &http.Server{
		Addr:              s.config.metricsListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.config.logger.Info(
		"serving prometheus metrics",
		"component", "service",
		"address", s.config.metricsListenAddress,
	)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics listener: %w", err)
		}
	}()
	s.shutdownFuncs = append(s.shutdownFuncs, metricsServer.Shutdown)
}

func (s *Service) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})
	return err
}

func (s *Service) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if s.config.shutdownTimeout > 0 {
		shutdownTimeout = s.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	s.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	s.config.logger.Debug("shutdown phase 1: stopping new work")

	if s.api != nil {
		if stopErr := s.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain pending event deliveries
	s.config.logger.Debug("shutdown phase 2: draining events")

	if s.eventBus != nil {
		s.eventBus.Stop()
	}

	// Phase 3: Flush state and close database
	s.config.logger.Debug("shutdown phase 3: flushing state")

	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	s.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range s.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	s.shutdownFuncs = nil

	s.config.logger.Debug("graceful shutdown complete")
	close(s.done)
	return err
}
