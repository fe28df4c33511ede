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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresApiListenAddress(t *testing.T) {
	svc, err := New(NewConfig())
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "no API listen address defined")
}

func TestServiceStopBeforeRun(t *testing.T) {
	svc, err := New(NewConfig(
		WithApiListenAddress("localhost:0"),
	))
	require.NoError(t, err)

	// Nothing has been started yet, shutdown must still be clean
	require.NoError(t, svc.Stop())
	// Stop is idempotent
	require.NoError(t, svc.Stop())
}
