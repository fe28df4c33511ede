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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	// Logs are discarded rather than left nil
	require.NotNil(t, cfg.logger)
	assert.Empty(t, cfg.dataDir)
	assert.Empty(t, cfg.apiListenAddress)
	assert.Empty(t, cfg.metricsListenAddress)
	assert.Nil(t, cfg.database)
	assert.Nil(t, cfg.nowFunc)
	assert.False(t, cfg.insecureDevMode)
	assert.False(t, cfg.tracing)
	assert.Equal(t, time.Duration(0), cfg.shutdownTimeout)
}

func TestConfigOptions(t *testing.T) {
	registry := prometheus.NewRegistry()
	cfg := NewConfig(
		WithDataDir("/data/vestry"),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("sqlite"),
		WithApiListenAddress("localhost:8080"),
		WithMetricsListenAddress("localhost:12798"),
		WithInsecureDevMode(true),
		WithTracing(true),
		WithTracingStdout(true),
		WithShutdownTimeout(5*time.Second),
		WithPrometheusRegistry(registry),
	)

	assert.Equal(t, "/data/vestry", cfg.dataDir)
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "sqlite", cfg.metadataPlugin)
	assert.Equal(t, "localhost:8080", cfg.apiListenAddress)
	assert.Equal(t, "localhost:12798", cfg.metricsListenAddress)
	assert.True(t, cfg.insecureDevMode)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, prometheus.Registerer(registry), cfg.promRegistry)
}

func TestWithNowFunc(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	cfg := NewConfig(
		WithNowFunc(func() time.Time { return fixed }),
	)

	require.NotNil(t, cfg.nowFunc)
	assert.Equal(t, fixed, cfg.nowFunc())
}
