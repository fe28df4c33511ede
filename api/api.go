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

// Package api exposes the vesting engine over HTTP. Mutating routes are
// authenticated by an ed25519 signature over the request, and the verified
// signer identity is what the engine authorizes against. Errors surface as
// JSON with a status code mapped from the engine's sentinel errors.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/blinklabs-io/vestry/vesting"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Config struct {
	Logger          *slog.Logger
	Engine          *vesting.Engine
	ListenAddress   string
	InsecureDevMode bool
	PromRegistry    prometheus.Registerer
}

type Api struct {
	config  Config
	logger  *slog.Logger
	engine  *vesting.Engine
	app     *fiber.App
	metrics struct {
		requestsTotal   *prometheus.CounterVec
		requestDuration *prometheus.HistogramVec
	}
}

// apiError is the JSON error body. Handlers and middleware return it
// directly; the error handler maps everything else onto it.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e apiError) Error() string {
	return e.Message
}

func New(config Config) *Api {
	a := &Api{
		config: config,
		engine: config.Engine,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		a.logger = config.Logger
	}
	promautoFactory := promauto.With(config.PromRegistry)
	a.metrics.requestsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestry_api_requests_total",
			Help: "total API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	a.metrics.requestDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vestry_api_request_duration_seconds",
			Help:    "API request duration by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	a.app = fiber.New(fiber.Config{
		AppName: "vestry",
		// Company names appear as path parameters and may contain
		// percent-encoded characters
		UnescapePath:          true,
		ErrorHandler:          a.errorHandler,
		DisableStartupMessage: true,
	})
	a.registerRoutes()
	return a
}

func (a *Api) registerRoutes() {
	a.app.Use(a.observe)

	a.app.Get("/healthcheck", handleHealthcheck)

	// Custody tooling
	a.app.Post("/v1/mints", a.authenticate, a.handleCreateMint)
	a.app.Post("/v1/mints/issue", a.authenticate, a.handleIssueTokens)
	a.app.Get("/v1/mints", a.handleListMints)
	a.app.Get("/v1/accounts/:address", a.handleGetAccount)

	// Pools
	a.app.Post("/v1/pools", a.authenticate, a.handleCreatePool)
	a.app.Get("/v1/pools", a.handleListPools)
	a.app.Get("/v1/pools/:name", a.handleGetPool)
	a.app.Post(
		"/v1/pools/:name/treasury/deposits",
		a.authenticate,
		a.handleFundTreasury,
	)
	a.app.Get("/v1/pools/:name/treasury", a.handleGetTreasury)

	// Grants
	a.app.Post(
		"/v1/pools/:name/grants",
		a.authenticate,
		a.handleCreateGrant,
	)
	a.app.Get("/v1/pools/:name/grants", a.handleListGrants)
	a.app.Get("/v1/grants/:address", a.handleGetGrant)

	// Claims
	a.app.Post("/v1/claims", a.authenticate, a.handleClaim)
	a.app.Get("/v1/claims", a.handleListClaims)
}

// Start serves the API and blocks until shutdown
func (a *Api) Start() error {
	a.logger.Info(
		"starting API listener",
		"component", "api",
		"address", a.config.ListenAddress,
	)
	return a.app.Listen(a.config.ListenAddress)
}

// Stop drains in-flight requests and shuts the listener down
func (a *Api) Stop(ctx context.Context) error {
	return a.app.ShutdownWithContext(ctx)
}

// App returns the underlying fiber app, mostly for tests
func (a *Api) App() *fiber.App {
	return a.app
}

// observe records request metrics. Errors have not reached the error
// handler yet when the middleware resumes, so their eventual status is
// resolved through the same mapping.
func (a *Api) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	route := c.Route().Path
	status := c.Response().StatusCode()
	if err != nil {
		status = mapError(err).Code
	}
	a.metrics.requestsTotal.WithLabelValues(
		c.Method(),
		route,
		strconv.Itoa(status),
	).Inc()
	a.metrics.requestDuration.WithLabelValues(c.Method(), route).
		Observe(time.Since(start).Seconds())
	return err
}

func (a *Api) errorHandler(c *fiber.Ctx, err error) error {
	apiErr := mapError(err)
	if apiErr.Code == fiber.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"component", "api",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(apiErr.Code).JSON(apiErr)
}

// mapError turns an error into its wire representation. Engine sentinels
// carry their own status; anything unrecognized is an internal error and
// its detail stays out of the response.
func mapError(err error) apiError {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, vesting.ErrDuplicateRecord),
		errors.Is(err, custody.ErrDuplicateRecord):
		return apiError{fiber.StatusConflict, err.Error()}
	case errors.Is(err, vesting.ErrUnauthorized),
		errors.Is(err, custody.ErrUnauthorized):
		return apiError{fiber.StatusForbidden, err.Error()}
	case errors.Is(err, vesting.ErrInsufficientTreasuryBalance),
		errors.Is(err, custody.ErrInsufficientBalance):
		return apiError{fiber.StatusPaymentRequired, err.Error()}
	case errors.Is(err, vesting.ErrPoolNotFound),
		errors.Is(err, vesting.ErrGrantNotFound),
		errors.Is(err, custody.ErrNotFound):
		return apiError{fiber.StatusNotFound, err.Error()}
	case errors.Is(err, vesting.ErrInvalidSchedule),
		errors.Is(err, vesting.ErrInvalidCompanyName),
		errors.Is(err, vesting.ErrClaimNotAvailable),
		errors.Is(err, vesting.ErrInvalidVestingPeriod),
		errors.Is(err, vesting.ErrCalculationOverflow),
		errors.Is(err, vesting.ErrNothingToClaim),
		errors.Is(err, custody.ErrInvalidAmount),
		errors.Is(err, custody.ErrAmountOverflow),
		errors.Is(err, custody.ErrMintMismatch),
		errors.Is(err, derivation.ErrSeedTooLong):
		return apiError{fiber.StatusUnprocessableEntity, err.Error()}
	case errors.Is(err, derivation.ErrInvalidAddress):
		return apiError{fiber.StatusBadRequest, err.Error()}
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apiError{fiberErr.Code, fiberErr.Message}
	}
	return apiError{fiber.StatusInternalServerError, "internal server error"}
}

func handleHealthcheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("OK")
}
