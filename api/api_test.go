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

package api_test

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/vestry/api"
	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/blinklabs-io/vestry/vesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApi struct {
	api    *api.Api
	engine *vesting.Engine
	now    atomic.Int64
}

func newTestApi(t *testing.T, insecureDevMode bool) *testApi {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: ""})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ta := &testApi{}
	nowFunc := func() time.Time { return time.Unix(ta.now.Load(), 0) }
	ledger := custody.NewLedger(custody.LedgerConfig{
		Database: db,
		NowFunc:  nowFunc,
	})
	ta.engine = vesting.NewEngine(vesting.Config{
		Database: db,
		Custody:  ledger,
		NowFunc:  nowFunc,
	})
	ta.api = api.New(api.Config{
		Engine:          ta.engine,
		InsecureDevMode: insecureDevMode,
	})
	return ta
}

type testKey struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
	addr derivation.Address
}

func newTestKey(t *testing.T) *testKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	addr, err := derivation.NewAddress(pub)
	require.NoError(t, err)
	return &testKey{pub: pub, priv: priv, addr: addr}
}

// signedRequest builds a JSON request carrying the signer and signature
// headers. The signature covers the unescaped path, matching what the
// server verifies.
func signedRequest(
	t *testing.T,
	key *testKey,
	method string,
	target string,
	body any,
) *http.Request {
	t.Helper()
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignerHeader, key.addr.String())
	msg := api.SigningMessage(method, req.URL.Path, bodyBytes)
	sig := ed25519.Sign(key.priv, msg)
	req.Header.Set(api.SignatureHeader, hex.EncodeToString(sig))
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type mintJSON struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Supply    int64  `json:"supply"`
	Decimals  uint8  `json:"decimals"`
}

type poolJSON struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Administrator string `json:"administrator"`
	Mint          string `json:"mint"`
	Treasury      string `json:"treasury"`
}

type treasuryJSON struct {
	Name     string `json:"name"`
	Treasury string `json:"treasury"`
	Balance  int64  `json:"balance"`
}

type grantJSON struct {
	Address        string `json:"address"`
	Pool           string `json:"pool"`
	Beneficiary    string `json:"beneficiary"`
	TotalGranted   int64  `json:"total_granted"`
	TotalWithdrawn int64  `json:"total_withdrawn"`
	State          string `json:"state"`
	Vested         int64  `json:"vested"`
	Claimable      int64  `json:"claimable"`
}

type claimJSON struct {
	RequestId   string `json:"request_id"`
	Beneficiary string `json:"beneficiary"`
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
	ClaimedAt   int64  `json:"claimed_at"`
}

type errorJSON struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestHealthcheck(t *testing.T) {
	ta := newTestApi(t, false)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	resp, err := ta.api.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestAuthentication(t *testing.T) {
	ta := newTestApi(t, false)
	key := newTestKey(t)

	// No headers at all
	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/mints",
		bytes.NewReader([]byte(`{"decimals":6}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.api.App().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Signer without a signature
	req = httptest.NewRequest(
		http.MethodPost,
		"/v1/mints",
		bytes.NewReader([]byte(`{"decimals":6}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignerHeader, key.addr.String())
	resp, err = ta.api.App().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Signature from a different key than the claimed signer
	imposter := newTestKey(t)
	req = signedRequest(
		t,
		imposter,
		http.MethodPost,
		"/v1/mints",
		createBody{"decimals": 6},
	)
	req.Header.Set(api.SignerHeader, key.addr.String())
	resp, err = ta.api.App().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A valid signature passes
	req = signedRequest(
		t,
		key,
		http.MethodPost,
		"/v1/mints",
		createBody{"decimals": 6},
	)
	resp, err = ta.api.App().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestInsecureDevMode(t *testing.T) {
	ta := newTestApi(t, true)
	key := newTestKey(t)

	// Signer header alone is enough
	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/mints",
		bytes.NewReader([]byte(`{"decimals":6}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignerHeader, key.addr.String())
	resp, err := ta.api.App().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// The signer header itself is still required
	req = httptest.NewRequest(
		http.MethodPost,
		"/v1/mints",
		bytes.NewReader([]byte(`{"decimals":6}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	resp, err = ta.api.App().Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

type createBody map[string]any

func TestPoolLifecycle(t *testing.T) {
	ta := newTestApi(t, false)
	app := ta.api.App()
	authority := newTestKey(t)
	admin := newTestKey(t)

	// Mint
	resp, err := app.Test(signedRequest(
		t, authority, http.MethodPost, "/v1/mints",
		createBody{"decimals": 6},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var mint mintJSON
	decodeBody(t, resp, &mint)
	assert.Equal(t, authority.addr.String(), mint.Authority)
	assert.Equal(t, uint8(6), mint.Decimals)

	// Pool
	resp, err = app.Test(signedRequest(
		t, admin, http.MethodPost, "/v1/pools",
		createBody{"company_name": "Acme Corp", "mint": mint.Address},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var pool poolJSON
	decodeBody(t, resp, &pool)
	assert.Equal(t, "Acme Corp", pool.Name)
	assert.Equal(t, admin.addr.String(), pool.Administrator)
	assert.Equal(t, mint.Address, pool.Mint)

	// Creating the same pool again conflicts
	resp, err = app.Test(signedRequest(
		t, admin, http.MethodPost, "/v1/pools",
		createBody{"company_name": "Acme Corp", "mint": mint.Address},
	))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var apiErr errorJSON
	decodeBody(t, resp, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)

	// Fetch by name (URL-encoded space)
	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/pools/Acme%20Corp",
		nil,
	)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched poolJSON
	decodeBody(t, resp, &fetched)
	assert.Equal(t, pool.Address, fetched.Address)

	// Deposit requires the mint authority
	resp, err = app.Test(signedRequest(
		t, admin, http.MethodPost,
		"/v1/pools/Acme%20Corp/treasury/deposits",
		createBody{"amount": 1000},
	))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(signedRequest(
		t, authority, http.MethodPost,
		"/v1/pools/Acme%20Corp/treasury/deposits",
		createBody{"amount": 1000},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var treasury treasuryJSON
	decodeBody(t, resp, &treasury)
	assert.Equal(t, int64(1000), treasury.Balance)

	req = httptest.NewRequest(
		http.MethodGet,
		"/v1/pools/Acme%20Corp/treasury",
		nil,
	)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &treasury)
	assert.Equal(t, int64(1000), treasury.Balance)
}

func TestGrantAndClaimFlow(t *testing.T) {
	ta := newTestApi(t, false)
	app := ta.api.App()
	authority := newTestKey(t)
	admin := newTestKey(t)
	employee := newTestKey(t)

	resp, err := app.Test(signedRequest(
		t, authority, http.MethodPost, "/v1/mints",
		createBody{"decimals": 0},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var mint mintJSON
	decodeBody(t, resp, &mint)

	resp, err = app.Test(signedRequest(
		t, admin, http.MethodPost, "/v1/pools",
		createBody{"company_name": "Acme Corp", "mint": mint.Address},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(signedRequest(
		t, authority, http.MethodPost,
		"/v1/pools/Acme%20Corp/treasury/deposits",
		createBody{"amount": 1000},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Grant creation is admin-only
	resp, err = app.Test(signedRequest(
		t, employee, http.MethodPost, "/v1/pools/Acme%20Corp/grants",
		createBody{
			"beneficiary":   employee.addr.String(),
			"start_time":    0,
			"cliff_time":    100,
			"end_time":      1000,
			"total_granted": 1000,
		},
	))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(signedRequest(
		t, admin, http.MethodPost, "/v1/pools/Acme%20Corp/grants",
		createBody{
			"beneficiary":   employee.addr.String(),
			"start_time":    0,
			"cliff_time":    100,
			"end_time":      1000,
			"total_granted": 1000,
		},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var grant grantJSON
	decodeBody(t, resp, &grant)
	assert.Equal(t, employee.addr.String(), grant.Beneficiary)
	assert.Equal(t, int64(1000), grant.TotalGranted)

	// Claiming before the cliff is rejected
	ta.now.Store(50)
	resp, err = app.Test(signedRequest(
		t, employee, http.MethodPost, "/v1/claims",
		createBody{"company_name": "Acme Corp"},
	))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// After the cliff the vested amount is released
	ta.now.Store(500)
	resp, err = app.Test(signedRequest(
		t, employee, http.MethodPost, "/v1/claims",
		createBody{"company_name": "Acme Corp"},
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var claim claimJSON
	decodeBody(t, resp, &claim)
	assert.Equal(t, int64(500), claim.Amount)
	assert.Equal(t, int64(500), claim.ClaimedAt)
	assert.NotEmpty(t, claim.RequestId)

	// The grant view reflects the withdrawal and current schedule state
	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/grants/"+grant.Address,
		nil,
	)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched grantJSON
	decodeBody(t, resp, &fetched)
	assert.Equal(t, int64(500), fetched.TotalWithdrawn)
	assert.Equal(t, "vesting", fetched.State)
	assert.Equal(t, int64(500), fetched.Vested)
	assert.Equal(t, int64(0), fetched.Claimable)

	// The audit trail lists the claim
	req = httptest.NewRequest(
		http.MethodGet,
		"/v1/claims?pool=Acme%20Corp",
		nil,
	)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []claimJSON
	decodeBody(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, claim.RequestId, entries[0].RequestId)

	// The released tokens sit in the beneficiary's custody account
	req = httptest.NewRequest(
		http.MethodGet,
		"/v1/accounts/"+claim.Destination,
		nil,
	)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var account struct {
		Owner   string `json:"owner"`
		Balance int64  `json:"balance"`
	}
	decodeBody(t, resp, &account)
	assert.Equal(t, employee.addr.String(), account.Owner)
	assert.Equal(t, int64(500), account.Balance)
}

func TestRequestValidation(t *testing.T) {
	ta := newTestApi(t, true)
	app := ta.api.App()
	key := newTestKey(t)

	// Malformed JSON body
	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/mints",
		bytes.NewReader([]byte(`{"decimals`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignerHeader, key.addr.String())
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Invalid mint address in pool creation
	req = httptest.NewRequest(
		http.MethodPost,
		"/v1/pools",
		bytes.NewReader(
			[]byte(`{"company_name":"Acme Corp","mint":"bogus"}`),
		),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignerHeader, key.addr.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown pool
	req = httptest.NewRequest(http.MethodGet, "/v1/pools/Nowhere", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Claims listing needs a filter
	req = httptest.NewRequest(http.MethodGet, "/v1/claims", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
