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

package api

import (
	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/vesting"
)

// Request bodies

type createMintRequest struct {
	Decimals uint8 `json:"decimals"`
}

type issueTokensRequest struct {
	Mint   string `json:"mint"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type createPoolRequest struct {
	CompanyName string `json:"company_name"`
	Mint        string `json:"mint"`
}

type createGrantRequest struct {
	Beneficiary  string `json:"beneficiary"`
	StartTime    int64  `json:"start_time"`
	CliffTime    int64  `json:"cliff_time"`
	EndTime      int64  `json:"end_time"`
	TotalGranted int64  `json:"total_granted"`
}

type treasuryDepositRequest struct {
	Amount int64 `json:"amount"`
}

type claimRequest struct {
	CompanyName string `json:"company_name"`
}

// Response bodies. Addresses render as bech32 strings.

type mintResponse struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Supply    int64  `json:"supply"`
	Decimals  uint8  `json:"decimals"`
	CreatedAt int64  `json:"created_at"`
}

func newMintResponse(mint *custody.Mint) mintResponse {
	return mintResponse{
		Address:   mint.Address.String(),
		Authority: mint.Authority.String(),
		Supply:    mint.Supply,
		Decimals:  mint.Decimals,
		CreatedAt: mint.CreatedAt,
	}
}

type accountResponse struct {
	Address   string `json:"address"`
	Owner     string `json:"owner"`
	Mint      string `json:"mint"`
	Authority string `json:"authority"`
	Balance   int64  `json:"balance"`
	CreatedAt int64  `json:"created_at"`
}

func newAccountResponse(account *custody.Account) accountResponse {
	return accountResponse{
		Address:   account.Address.String(),
		Owner:     account.Owner.String(),
		Mint:      account.Mint.String(),
		Authority: account.Authority.String(),
		Balance:   account.Balance,
		CreatedAt: account.CreatedAt,
	}
}

type poolResponse struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Administrator string `json:"administrator"`
	Mint          string `json:"mint"`
	Treasury      string `json:"treasury"`
	CreatedAt     int64  `json:"created_at"`
}

func newPoolResponse(pool *vesting.Pool) poolResponse {
	return poolResponse{
		Name:          pool.Name,
		Address:       pool.Address.String(),
		Administrator: pool.Administrator.String(),
		Mint:          pool.Mint.String(),
		Treasury:      pool.Treasury.String(),
		CreatedAt:     pool.CreatedAt,
	}
}

type treasuryResponse struct {
	Pool     string `json:"pool"`
	Name     string `json:"name"`
	Treasury string `json:"treasury"`
	Mint     string `json:"mint"`
	Balance  int64  `json:"balance"`
}

type grantResponse struct {
	Address        string `json:"address"`
	Pool           string `json:"pool"`
	Beneficiary    string `json:"beneficiary"`
	StartTime      int64  `json:"start_time"`
	CliffTime      int64  `json:"cliff_time"`
	EndTime        int64  `json:"end_time"`
	TotalGranted   int64  `json:"total_granted"`
	TotalWithdrawn int64  `json:"total_withdrawn"`
	CreatedAt      int64  `json:"created_at"`
}

func newGrantResponse(grant *vesting.Grant) grantResponse {
	return grantResponse{
		Address:        grant.Address.String(),
		Pool:           grant.Pool.String(),
		Beneficiary:    grant.Beneficiary.String(),
		StartTime:      grant.StartTime,
		CliffTime:      grant.CliffTime,
		EndTime:        grant.EndTime,
		TotalGranted:   grant.TotalGranted,
		TotalWithdrawn: grant.TotalWithdrawn,
		CreatedAt:      grant.CreatedAt,
	}
}

type grantStatusResponse struct {
	grantResponse
	State     string `json:"state"`
	Vested    int64  `json:"vested"`
	Claimable int64  `json:"claimable"`
	AsOf      int64  `json:"as_of"`
}

func newGrantStatusResponse(status *vesting.GrantStatus) grantStatusResponse {
	return grantStatusResponse{
		grantResponse: newGrantResponse(status.Grant),
		State:         status.State.String(),
		Vested:        status.Vested,
		Claimable:     status.Claimable,
		AsOf:          status.AsOf,
	}
}

type claimResponse struct {
	RequestId   string `json:"request_id"`
	Grant       string `json:"grant"`
	Pool        string `json:"pool"`
	Beneficiary string `json:"beneficiary"`
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
	ClaimedAt   int64  `json:"claimed_at"`
}

func newClaimResponse(result *vesting.ClaimResult) claimResponse {
	return claimResponse{
		RequestId:   result.RequestId,
		Grant:       result.Grant.String(),
		Pool:        result.Pool.String(),
		Beneficiary: result.Beneficiary.String(),
		Destination: result.Destination.String(),
		Amount:      result.Amount,
		ClaimedAt:   result.ClaimedAt,
	}
}

type claimEntryResponse struct {
	RequestId   string `json:"request_id"`
	Grant       string `json:"grant"`
	Pool        string `json:"pool"`
	Beneficiary string `json:"beneficiary"`
	Amount      int64  `json:"amount"`
	ClaimedAt   int64  `json:"claimed_at"`
}

func newClaimEntryResponse(entry *vesting.ClaimEntry) claimEntryResponse {
	return claimEntryResponse{
		RequestId:   entry.RequestId,
		Grant:       entry.Grant.String(),
		Pool:        entry.Pool.String(),
		Beneficiary: entry.Beneficiary.String(),
		Amount:      entry.Amount,
		ClaimedAt:   entry.ClaimedAt,
	}
}
