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

package custody

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/derivation"
)

// Mint is a token type. Supply counts every token ever issued across the
// mint's accounts.
type Mint struct {
	Address   derivation.Address
	Authority derivation.Address
	Supply    int64
	CreatedAt int64
	Decimals  uint8
}

func mintFromModel(row *models.Mint) (*Mint, error) {
	addr, err := derivation.NewAddress(row.Address)
	if err != nil {
		return nil, err
	}
	authority, err := derivation.NewAddress(row.Authority)
	if err != nil {
		return nil, err
	}
	return &Mint{
		Address:   addr,
		Authority: authority,
		Supply:    row.Supply,
		CreatedAt: row.CreatedAt,
		Decimals:  row.Decimals,
	}, nil
}

func (m *Mint) toModel() *models.Mint {
	return &models.Mint{
		Address:   m.Address.Bytes(),
		Authority: m.Authority.Bytes(),
		Supply:    m.Supply,
		CreatedAt: m.CreatedAt,
		Decimals:  m.Decimals,
	}
}

// CreateMint creates a token mint controlled by the given authority. The
// mint address is generated like a signing identity rather than derived, so
// mints are located by their recorded address alone.
func (l *Ledger) CreateMint(
	ctx context.Context,
	authority derivation.Address,
	decimals uint8,
	txn *database.Txn,
) (*Mint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if txn == nil {
		var ret *Mint
		err := l.db.Transaction(true).Do(func(txn *database.Txn) error {
			var err error
			ret, err = l.CreateMint(ctx, authority, decimals, txn)
			return err
		})
		return ret, err
	}
	pubKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate mint address: %w", err)
	}
	addr, err := derivation.NewAddress(pubKey)
	if err != nil {
		return nil, err
	}
	if _, err := l.db.GetMint(addr.Bytes(), txn); err == nil {
		return nil, fmt.Errorf("%w: mint %s", ErrDuplicateRecord, addr)
	} else if !errors.Is(err, models.ErrMintNotFound) {
		return nil, err
	}
	mint := &Mint{
		Address:   addr,
		Authority: authority,
		Supply:    0,
		CreatedAt: l.nowFunc().Unix(),
		Decimals:  decimals,
	}
	if err := l.db.SetMint(mint.toModel(), txn); err != nil {
		return nil, err
	}
	l.metrics.mintsCreated.Inc()
	l.logger.Debug(
		"created mint",
		"component", "custody",
		"mint", mint.Address,
		"authority", mint.Authority,
		"decimals", mint.Decimals,
	)
	return mint, nil
}

// MintTo issues new supply into a custody account. Only the mint's
// recorded authority may issue, and both the mint supply and the receiving
// balance are checked against overflow before anything is written.
func (l *Ledger) MintTo(
	ctx context.Context,
	authority derivation.Address,
	mintAddr derivation.Address,
	to derivation.Address,
	amount int64,
	txn *database.Txn,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if txn == nil {
		return l.db.Transaction(true).Do(func(txn *database.Txn) error {
			return l.MintTo(ctx, authority, mintAddr, to, amount, txn)
		})
	}
	mint, err := l.mint(mintAddr, txn)
	if err != nil {
		return err
	}
	if authority != mint.Authority {
		return fmt.Errorf("%w: mint %s", ErrUnauthorized, mintAddr)
	}
	account, err := l.account(to, txn)
	if err != nil {
		return err
	}
	if account.Mint != mint.Address {
		return fmt.Errorf(
			"%w: account %s holds mint %s",
			ErrMintMismatch,
			to,
			account.Mint,
		)
	}
	if mint.Supply, err = checkedAdd(mint.Supply, amount); err != nil {
		return fmt.Errorf("mint %s supply: %w", mintAddr, err)
	}
	if account.Balance, err = checkedAdd(account.Balance, amount); err != nil {
		return fmt.Errorf("account %s balance: %w", to, err)
	}
	if err := l.db.SetMint(mint.toModel(), txn); err != nil {
		return err
	}
	if err := l.db.SetAccount(account.toModel(), txn); err != nil {
		return err
	}
	l.metrics.tokensIssued.Add(float64(amount))
	l.logger.Debug(
		"issued tokens",
		"component", "custody",
		"mint", mintAddr,
		"to", to,
		"amount", amount,
		"supply", mint.Supply,
	)
	return nil
}

// Mint returns a mint by address
func (l *Ledger) Mint(addr derivation.Address) (*Mint, error) {
	return l.mint(addr, nil)
}

// Mints lists all mints
func (l *Ledger) Mints() ([]Mint, error) {
	rows, err := l.db.GetMints(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Mint, 0, len(rows))
	for _, row := range rows {
		mint, err := mintFromModel(&row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *mint)
	}
	return ret, nil
}

func (l *Ledger) mint(
	addr derivation.Address,
	txn *database.Txn,
) (*Mint, error) {
	row, err := l.db.GetMint(addr.Bytes(), txn)
	if err != nil {
		if errors.Is(err, models.ErrMintNotFound) {
			return nil, fmt.Errorf("%w: mint %s", ErrNotFound, addr)
		}
		return nil, err
	}
	return mintFromModel(row)
}
