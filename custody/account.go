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
	"errors"
	"fmt"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/database/models"
	"github.com/blinklabs-io/vestry/derivation"
)

// Account is a custody account holding a balance of one mint. Authority is
// the address allowed to debit the account, either a signing identity or a
// derived address whose seeds are held by other logic.
type Account struct {
	Address   derivation.Address
	Owner     derivation.Address
	Mint      derivation.Address
	Authority derivation.Address
	Balance   int64
	CreatedAt int64
	Bump      uint8
}

// AccountParams describes an account whose address the caller derived
type AccountParams struct {
	Address   derivation.Address
	Owner     derivation.Address
	Mint      derivation.Address
	Authority derivation.Address
	Bump      uint8
}

func accountFromModel(row *models.Account) (*Account, error) {
	addr, err := derivation.NewAddress(row.Address)
	if err != nil {
		return nil, err
	}
	owner, err := derivation.NewAddress(row.Owner)
	if err != nil {
		return nil, err
	}
	mint, err := derivation.NewAddress(row.Mint)
	if err != nil {
		return nil, err
	}
	authority, err := derivation.NewAddress(row.Authority)
	if err != nil {
		return nil, err
	}
	return &Account{
		Address:   addr,
		Owner:     owner,
		Mint:      mint,
		Authority: authority,
		Balance:   row.Balance,
		CreatedAt: row.CreatedAt,
		Bump:      row.Bump,
	}, nil
}

func (a *Account) toModel() *models.Account {
	return &models.Account{
		Address:   a.Address.Bytes(),
		Owner:     a.Owner.Bytes(),
		Mint:      a.Mint.Bytes(),
		Authority: a.Authority.Bytes(),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		Bump:      a.Bump,
	}
}

// CreateAccount creates the custody account for an owner and mint at its
// standard derived address, with the owner as authority
func (l *Ledger) CreateAccount(
	ctx context.Context,
	owner derivation.Address,
	mint derivation.Address,
	txn *database.Txn,
) (*Account, error) {
	addr, bump, err := derivation.CustodyAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	return l.CreateAccountAt(ctx, AccountParams{
		Address:   addr,
		Owner:     owner,
		Mint:      mint,
		Authority: owner,
		Bump:      bump,
	}, txn)
}

// EnsureAccount returns the custody account for an owner and mint, creating
// it with a zero balance if it does not exist yet. Claims use this for the
// on-demand beneficiary account.
func (l *Ledger) EnsureAccount(
	ctx context.Context,
	owner derivation.Address,
	mint derivation.Address,
	txn *database.Txn,
) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if txn == nil {
		var ret *Account
		err := l.db.Transaction(true).Do(func(txn *database.Txn) error {
			var err error
			ret, err = l.EnsureAccount(ctx, owner, mint, txn)
			return err
		})
		return ret, err
	}
	addr, bump, err := derivation.CustodyAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	account, err := l.account(addr, txn)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return l.CreateAccountAt(ctx, AccountParams{
		Address:   addr,
		Owner:     owner,
		Mint:      mint,
		Authority: owner,
		Bump:      bump,
	}, txn)
}

// CreateAccountAt creates a custody account at a caller-derived address.
// The pool treasury uses this, since its address comes from the pool's own
// seeds rather than the standard owner+mint derivation.
func (l *Ledger) CreateAccountAt(
	ctx context.Context,
	params AccountParams,
	txn *database.Txn,
) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if txn == nil {
		var ret *Account
		err := l.db.Transaction(true).Do(func(txn *database.Txn) error {
			var err error
			ret, err = l.CreateAccountAt(ctx, params, txn)
			return err
		})
		return ret, err
	}
	if _, err := l.mint(params.Mint, txn); err != nil {
		return nil, err
	}
	if _, err := l.db.GetAccount(params.Address.Bytes(), txn); err == nil {
		return nil, fmt.Errorf(
			"%w: account %s",
			ErrDuplicateRecord,
			params.Address,
		)
	} else if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}
	account := &Account{
		Address:   params.Address,
		Owner:     params.Owner,
		Mint:      params.Mint,
		Authority: params.Authority,
		Balance:   0,
		CreatedAt: l.nowFunc().Unix(),
		Bump:      params.Bump,
	}
	if err := l.db.SetAccount(account.toModel(), txn); err != nil {
		return nil, err
	}
	l.metrics.accountsCreated.Inc()
	l.logger.Debug(
		"created custody account",
		"component", "custody",
		"account", account.Address,
		"owner", account.Owner,
		"mint", account.Mint,
	)
	return account, nil
}

// Account returns a custody account by address
func (l *Ledger) Account(addr derivation.Address) (*Account, error) {
	return l.account(addr, nil)
}

// Accounts lists the custody accounts held by an owner
func (l *Ledger) Accounts(owner derivation.Address) ([]Account, error) {
	rows, err := l.db.GetAccountsByOwner(owner.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Account, 0, len(rows))
	for _, row := range rows {
		account, err := accountFromModel(&row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *account)
	}
	return ret, nil
}

// Balance returns the balance of a custody account
func (l *Ledger) Balance(addr derivation.Address) (int64, error) {
	account, err := l.account(addr, nil)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (l *Ledger) account(
	addr derivation.Address,
	txn *database.Txn,
) (*Account, error) {
	row, err := l.db.GetAccount(addr.Bytes(), txn)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, addr)
		}
		return nil, err
	}
	return accountFromModel(row)
}
