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
	"fmt"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/derivation"
)

// Authorizer proves the right to debit a custody account by producing the
// address recorded as the account's authority. derivation.Authority
// satisfies this for derived authorities such as a pool treasury.
type Authorizer interface {
	Address() (derivation.Address, error)
}

// SignerAuthority adapts an authenticated signing identity into an
// Authorizer for accounts whose authority is the identity itself
type SignerAuthority derivation.Address

func (s SignerAuthority) Address() (derivation.Address, error) {
	return derivation.Address(s), nil
}

// Transfer moves tokens between two custody accounts of the same mint. The
// debit and credit land in the caller's transaction together, so a failure
// anywhere leaves both balances untouched. Authorization requires auth to
// produce the source account's recorded authority address.
func (l *Ledger) Transfer(
	ctx context.Context,
	from derivation.Address,
	to derivation.Address,
	amount int64,
	auth Authorizer,
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
			return l.Transfer(ctx, from, to, amount, auth, txn)
		})
	}
	source, err := l.account(from, txn)
	if err != nil {
		return err
	}
	dest, err := l.account(to, txn)
	if err != nil {
		return err
	}
	if source.Mint != dest.Mint {
		return fmt.Errorf(
			"%w: %s holds %s, %s holds %s",
			ErrMintMismatch,
			from,
			source.Mint,
			to,
			dest.Mint,
		)
	}
	authAddr, err := auth.Address()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if authAddr != source.Authority {
		return fmt.Errorf("%w: account %s", ErrUnauthorized, from)
	}
	if source.Balance < amount {
		return fmt.Errorf(
			"%w: account %s holds %d, needs %d",
			ErrInsufficientBalance,
			from,
			source.Balance,
			amount,
		)
	}
	if from == to {
		// A self-transfer is a validated no-op
		return nil
	}
	source.Balance -= amount
	if dest.Balance, err = checkedAdd(dest.Balance, amount); err != nil {
		return fmt.Errorf("account %s balance: %w", to, err)
	}
	if err := l.db.SetAccount(source.toModel(), txn); err != nil {
		return err
	}
	if err := l.db.SetAccount(dest.toModel(), txn); err != nil {
		return err
	}
	l.metrics.transfersTotal.Inc()
	l.metrics.tokensTransferred.Add(float64(amount))
	l.logger.Debug(
		"transferred tokens",
		"component", "custody",
		"from", from,
		"to", to,
		"amount", amount,
	)
	return nil
}
