package runtime

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// Currency moves funds for the entry points.
type Currency interface {
	Balance(account lightclient.AccountID) (*big.Int, error)
	// Hold fails when account cannot pay amount. It moves nothing.
	Hold(account lightclient.AccountID, amount *big.Int) error
	Charge(account lightclient.AccountID, amount *big.Int) error
	Reward(account lightclient.AccountID, amount *big.Int) error
}

// ledger is the Currency of one transaction. Charges go to the treasury
// when one is configured and are burnt otherwise. Rewards are minted.
type ledger struct {
	tx       *tx
	treasury *lightclient.AccountID
}

func (l *ledger) Balance(account lightclient.AccountID) (*big.Int, error) {
	balance, err := l.tx.storedBalance(account)
	if err != nil {
		return nil, err
	}
	if d, ok := l.tx.deltas[account]; ok {
		balance.Add(balance, d)
	}
	return balance, nil
}

func (l *ledger) Hold(account lightclient.AccountID, amount *big.Int) error {
	balance, err := l.Balance(account)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, account, balance, amount)
	}
	return nil
}

func (l *ledger) Charge(account lightclient.AccountID, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := l.Hold(account, amount); err != nil {
		return err
	}
	l.tx.addBalance(account, new(big.Int).Neg(amount))
	if l.treasury != nil {
		l.tx.addBalance(*l.treasury, amount)
	}
	return nil
}

func (l *ledger) Reward(account lightclient.AccountID, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	l.tx.addBalance(account, amount)
	return nil
}

// settle turns the balance deltas into writes. It must run with the ledger
// lock held so concurrent transactions see each other's balances.
func (t *tx) settle() error {
	for account, delta := range t.deltas {
		balance, err := t.storedBalance(account)
		if err != nil {
			return err
		}
		balance.Add(balance, delta)
		if balance.Sign() < 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientBalance, account)
		}
		if err := t.setStoredBalance(account, balance); err != nil {
			return err
		}
	}
	return nil
}
