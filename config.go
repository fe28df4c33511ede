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
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/vestry/database"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry         prometheus.Registerer
	logger               *slog.Logger
	database             *database.Database
	nowFunc              func() time.Time
	dataDir              string
	blobPlugin           string
	metadataPlugin       string
	apiListenAddress     string
	metricsListenAddress string
	insecureDevMode      bool
	tracing              bool
	tracingStdout        bool
	shutdownTimeout      time.Duration
}

func (s *Service) configValidate() error {
	if s.config.apiListenAddress == "" {
		return errors.New("no API listen address defined")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Service config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new vestry config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithDatabase specifies an existing database instance to use. The default is to open
// one from the configured data directory
func WithDatabase(db *database.Database) ConfigOptionFunc {
	return func(c *Config) {
		c.database = db
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithApiListenAddress specifies the listen address for the REST API server
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithMetricsListenAddress specifies the listen address
// for the prometheus metrics server. An empty string
// disables the server. The default is empty (disabled).
func WithMetricsListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.metricsListenAddress = addr
	}
}

// WithNowFunc specifies the clock used to evaluate vesting schedules. This defaults
// to the system clock and is mostly useful for testing
func WithNowFunc(nowFunc func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.nowFunc = nowFunc
	}
}

// WithInsecureDevMode specifies whether to accept API requests on the signer
// header alone, without verifying request signatures. This is disabled by
// default and must never be enabled outside local development
func WithInsecureDevMode(insecure bool) ConfigOptionFunc {
	return func(c *Config) {
		c.insecureDevMode = insecure
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
