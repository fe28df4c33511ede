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
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/gofiber/fiber/v2"
)

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apiError{fiber.StatusBadRequest, "invalid request body"}
	}
	return nil
}

func parseAddress(value string, what string) (derivation.Address, error) {
	addr, err := derivation.ParseAddress(value)
	if err != nil {
		return derivation.Address{}, apiError{
			fiber.StatusBadRequest,
			"invalid " + what + " address",
		}
	}
	return addr, nil
}

func (a *Api) handleCreateMint(c *fiber.Ctx) error {
	signer, err := signerFromContext(c)
	if err != nil {
		return err
	}
	var req createMintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mint, err := a.engine.CreateMint(c.UserContext(), signer, req.Decimals)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newMintResponse(mint))
}

func (a *Api) handleIssueTokens(c *fiber.Ctx) error {
	signer, err := signerFromContext(c)
	if err != nil {
		return err
	}
	var req issueTokensRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mint, err := parseAddress(req.Mint, "mint")
	if err != nil {
		return err
	}
	to, err := parseAddress(req.To, "destination")
	if err != nil {
		return err
	}
	if err := a.engine.IssueTokens(
		c.UserContext(),
		signer,
		mint,
		to,
		req.Amount,
	); err != nil {
		return err
	}
	account, err := a.engine.Account(to)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(newAccountResponse(account))
}

func (a *Api) handleListMints(c *fiber.Ctx) error {
	mints, err := a.engine.Mints()
	if err != nil {
		return err
	}
	ret := make([]mintResponse, 0, len(mints))
	for i := range mints {
		ret = append(ret, newMintResponse(&mints[i]))
	}
	return c.Status(fiber.StatusOK).JSON(ret)
}

func (a *Api) handleGetAccount(c *fiber.Ctx) error {
	addr, err := parseAddress(c.Params("address"), "account")
	if err != nil {
		return err
	}
	account, err := a.engine.Account(addr)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(newAccountResponse(account))
}

func (a *Api) handleCreatePool(c *fiber.Ctx) error {
	signer, err := signerFromContext(c)
	if err != nil {
		return err
	}
	var req createPoolRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mint, err := parseAddress(req.Mint, "mint")
	if err != nil {
		return err
	}
	pool, err := a.engine.CreatePool(
		c.UserContext(),
		signer,
		req.CompanyName,
		mint,
	)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newPoolResponse(pool))
}

func (a *Api) handleListPools(c *fiber.Ctx) error {
	pools, err := a.engine.Pools()
	if err != nil {
		return err
	}
	ret := make([]poolResponse, 0, len(pools))
	for i := range pools {
		ret = append(ret, newPoolResponse(&pools[i]))
	}
	return c.Status(fiber.StatusOK).JSON(ret)
}

func (a *Api) handleGetPool(c *fiber.Ctx) error {
	pool, err := a.engine.Pool(c.Params("name"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(newPoolResponse(pool))
}

func (a *Api) handleFundTreasury(c *fiber.Ctx) error {
	signer, err := signerFromContext(c)
	if err != nil {
		return err
	}
	var req treasuryDepositRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	name := c.Params("name")
	pool, err := a.engine.FundTreasury(
		c.UserContext(),
		signer,
		name,
		req.Amount,
	)
	if err != nil {
		return err
	}
	balance, err := a.engine.TreasuryBalance(name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(treasuryResponse{
		Pool:     pool.Address.String(),
		Name:     pool.Name,
		Treasury: pool.Treasury.String(),
		Mint:     pool.Mint.String(),
		Balance:  balance,
	})
}

func (a *Api) handleGetTreasury(c *fiber.Ctx) error {
	name := c.Params("name")
	pool, err := a.engine.Pool(name)
	if err != nil {
		return err
	}
	balance, err := a.engine.TreasuryBalance(name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(treasuryResponse{
		Pool:     pool.Address.String(),
		Name:     pool.Name,
		Treasury: pool.Treasury.String(),
		Mint:     pool.Mint.String(),
		Balance:  balance,
	})
}

func (a *Api) handleCreateGrant(c *fiber.Ctx) error {
	signer, err := signerFromContext(c)
	if err != nil {
		return err
	}
	var req createGrantRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	beneficiary, err := parseAddress(req.Beneficiary, "beneficiary")
	if err != nil {
		return err
	}
	grant, err := a.engine.CreateGrant(
		c.UserContext(),
		signer,
		c.Params("name"),
		beneficiary,
		req.StartTime,
		req.CliffTime,
		req.EndTime,
		req.TotalGranted,
	)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newGrantResponse(grant))
}

func (a *Api) handleListGrants(c *fiber.Ctx) error {
	grants, err := a.engine.Grants(c.Params("name"))
	if err != nil {
		return err
	}
	ret := make([]grantResponse, 0, len(grants))
	for i := range grants {
		ret = append(ret, newGrantResponse(&grants[i]))
	}
	return c.Status(fiber.StatusOK).JSON(ret)
}

func (a *Api) handleGetGrant(c *fiber.Ctx) error {
	addr, err := parseAddress(c.Params("address"), "grant")
	if err != nil {
		return err
	}
	grant, err := a.engine.GrantByAddress(addr)
	if err != nil {
		return err
	}
	pool, err := a.engine.PoolByAddress(grant.Pool)
	if err != nil {
		return err
	}
	status, err := a.engine.GrantStatus(grant.Beneficiary, pool.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(newGrantStatusResponse(status))
}

func (a *Api) handleClaim(c *fiber.Ctx) error {
	signer, err := signerFromContext(c)
	if err != nil {
		return err
	}
	var req claimRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := a.engine.Claim(c.UserContext(), signer, req.CompanyName)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(newClaimResponse(result))
}

func (a *Api) handleListClaims(c *fiber.Ctx) error {
	var entries []claimEntryResponse
	switch {
	case c.Query("pool") != "":
		claims, err := a.engine.Claims(c.Query("pool"))
		if err != nil {
			return err
		}
		entries = make([]claimEntryResponse, 0, len(claims))
		for i := range claims {
			entries = append(entries, newClaimEntryResponse(&claims[i]))
		}
	case c.Query("beneficiary") != "":
		beneficiary, err := parseAddress(
			c.Query("beneficiary"),
			"beneficiary",
		)
		if err != nil {
			return err
		}
		claims, err := a.engine.ClaimsByBeneficiary(beneficiary)
		if err != nil {
			return err
		}
		entries = make([]claimEntryResponse, 0, len(claims))
		for i := range claims {
			entries = append(entries, newClaimEntryResponse(&claims[i]))
		}
	default:
		return apiError{
			fiber.StatusBadRequest,
			"either pool or beneficiary query parameter is required",
		}
	}
	return c.Status(fiber.StatusOK).JSON(entries)
}
