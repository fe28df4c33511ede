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
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/vestry/custody"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/derivation"
	"github.com/google/uuid"
)

// ClaimResult describes a processed claim
type ClaimResult struct {
	Grant       derivation.Address
	Pool        derivation.Address
	Beneficiary derivation.Address
	Destination derivation.Address
	RequestId   string
	Amount      int64
	ClaimedAt   int64
}

// ClaimEntry is one row of the claim audit trail
type ClaimEntry struct {
	Grant       derivation.Address
	Pool        derivation.Address
	Beneficiary derivation.Address
	RequestId   string
	Amount      int64
	ClaimedAt   int64
}

// GrantStatus is a point-in-time view of a grant's schedule position
type GrantStatus struct {
	Grant     *Grant
	State     GrantState
	Vested    int64
	Claimable int64
	AsOf      int64
}

func claimFromModel(row *models.Claim) (*ClaimEntry, error) {
	grant, err := derivation.NewAddress(row.Grant)
	if err != nil {
		return nil, err
	}
	pool, err := derivation.NewAddress(row.Pool)
	if err != nil {
		return nil, err
	}
	beneficiary, err := derivation.NewAddress(row.Beneficiary)
	if err != nil {
		return nil, err
	}
	return &ClaimEntry{
		Grant:       grant,
		Pool:        pool,
		Beneficiary: beneficiary,
		RequestId:   row.RequestID,
		Amount:      row.Amount,
		ClaimedAt:   row.ClaimedAt,
	}, nil
}

// Claim releases everything the signer has vested but not yet withdrawn
// from their grant in a company's pool. The amount claimed is the vested
// amount at the engine's clock minus the total already withdrawn. The
// grant update, the treasury debit, the destination credit, and the audit
// row all commit in one transaction, so a failure at any step leaves no
// trace. The treasury is debited with its derivation credential rather
// than a signature, which is what makes the escrow self-custodial.
func (e *Engine) Claim(
	ctx context.Context,
	signer derivation.Address,
	companyName string,
) (*ClaimResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	now := e.Now()
	requestId := uuid.NewString()
	var result *ClaimResult
	err := e.db.Transaction(true).Do(func(txn *database.Txn) error {
		pool, err := e.loadPool(companyName, txn)
		if err != nil {
			return err
		}
		grant, err := e.loadGrant(signer, pool, txn)
		if err != nil {
			return err
		}
		if grant.StateAt(now) == GrantStateBeforeCliff {
			return fmt.Errorf(
				"%w: cliff at %d, now %d",
				ErrClaimNotAvailable,
				grant.CliffTime,
				now,
			)
		}
		vested, err := grant.VestedAt(now)
		if err != nil {
			return err
		}
		claimable := vested - grant.TotalWithdrawn
		if claimable <= 0 {
			return fmt.Errorf(
				"%w: vested %d, withdrawn %d",
				ErrNothingToClaim,
				vested,
				grant.TotalWithdrawn,
			)
		}
		dest, err := e.custody.EnsureAccount(ctx, signer, pool.Mint, txn)
		if err != nil {
			return err
		}
		auth := derivation.TreasuryAuthority(pool.Name, pool.TreasuryBump)
		if err := e.custody.Transfer(
			ctx,
			pool.Treasury,
			dest.Address,
			claimable,
			auth,
			txn,
		); err != nil {
			if errors.Is(err, custody.ErrInsufficientBalance) {
				return fmt.Errorf(
					"%w: need %d",
					ErrInsufficientTreasuryBalance,
					claimable,
				)
			}
			return err
		}
		grant.TotalWithdrawn += claimable
		if err := e.db.SetGrant(grant.toModel(), txn); err != nil {
			return err
		}
		if err := e.db.AddClaim(&models.Claim{
			Grant:       grant.Address.Bytes(),
			Pool:        pool.Address.Bytes(),
			Beneficiary: signer.Bytes(),
			RequestID:   requestId,
			Amount:      claimable,
			ClaimedAt:   now,
		}, txn); err != nil {
			return err
		}
		result = &ClaimResult{
			Grant:       grant.Address,
			Pool:        pool.Address,
			Beneficiary: signer,
			Destination: dest.Address,
			RequestId:   requestId,
			Amount:      claimable,
			ClaimedAt:   now,
		}
		txn.OnCommit(func() {
			e.publish(ClaimEventType, ClaimEvent{
				Grant:       result.Grant,
				Pool:        result.Pool,
				Beneficiary: result.Beneficiary,
				RequestId:   result.RequestId,
				Amount:      result.Amount,
				ClaimedAt:   result.ClaimedAt,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.metrics.claimsTotal.Inc()
	e.metrics.tokensClaimed.Add(float64(result.Amount))
	e.logger.Info(
		"processed claim",
		"component", "vesting",
		"request_id", result.RequestId,
		"grant", result.Grant.String(),
		"beneficiary", result.Beneficiary.String(),
		"amount", result.Amount,
	)
	return result, nil
}

// GrantStatus returns a grant along with its computed schedule position at
// the engine's clock. This is the read-side companion to Claim and does
// not mutate anything.
func (e *Engine) GrantStatus(
	beneficiary derivation.Address,
	companyName string,
) (*GrantStatus, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	pool, err := e.loadPool(companyName, nil)
	if err != nil {
		return nil, err
	}
	grant, err := e.loadGrant(beneficiary, pool, nil)
	if err != nil {
		return nil, err
	}
	now := e.Now()
	vested, err := grant.VestedAt(now)
	if err != nil {
		return nil, err
	}
	claimable := vested - grant.TotalWithdrawn
	if claimable < 0 {
		claimable = 0
	}
	return &GrantStatus{
		Grant:     grant,
		State:     grant.StateAt(now),
		Vested:    vested,
		Claimable: claimable,
		AsOf:      now,
	}, nil
}

// Claims returns the claim audit trail for a company's pool, oldest first
func (e *Engine) Claims(companyName string) ([]ClaimEntry, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	pool, err := e.loadPool(companyName, nil)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.GetClaimsByPool(pool.Address.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	return claimsFromModels(rows)
}

// ClaimsByBeneficiary returns a beneficiary's claim history across all
// pools, oldest first
func (e *Engine) ClaimsByBeneficiary(
	beneficiary derivation.Address,
) ([]ClaimEntry, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	rows, err := e.db.GetClaimsByBeneficiary(beneficiary.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	return claimsFromModels(rows)
}

func claimsFromModels(rows []models.Claim) ([]ClaimEntry, error) {
	ret := make([]ClaimEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := claimFromModel(&row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *entry)
	}
	return ret, nil
}
