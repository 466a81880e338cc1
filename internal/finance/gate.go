package finance

import (
	"context"
	"errors"
	"fmt"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/logging"
	"github.com/shopspring/decimal"
)

// The consistency gate. Every mutating operation funnels its invariant
// checks through the helpers below, so "available balance stays non-negative"
// is enforced in exactly one place.

func checkAmountPositive(amount decimal.Decimal, what string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s must be greater than zero", appErrors.ErrInvalidInput, what)
	}
	if amount.GreaterThan(decimal.NewFromInt(MAX_AMOUNT_LIMIT)) {
		return fmt.Errorf("%w: %s exceeds the maximum allowed amount", appErrors.ErrInvalidInput, what)
	}
	return nil
}

// checkBalanceCovers rejects any commitment of money that the available
// balance cannot cover. Invariant: availableBalance >= 0 after the mutation.
func (ft *FinanceTracker) checkBalanceCovers(ctx context.Context, accountID string, amount decimal.Decimal, what string) error {
	balance, err := ft.AvailableBalance(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to compute available balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return fmt.Errorf("%w: %s of %s exceeds the available balance of %s",
			appErrors.ErrInsufficientBalance, what, amount.StringFixed(2), balance.StringFixed(2))
	}
	return nil
}

// commit runs a read-validate-write operation as one logical transaction
// against the store. On a version conflict the whole operation is re-run once
// against fresh state; a second conflict is surfaced to the caller.
func (ft *FinanceTracker) commit(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil || !errors.Is(err, appErrors.ErrConflict) {
		return err
	}

	logging.Logger.Warnf("write conflict, re-validating and retrying once: %v", err)
	if err = op(ctx); err == nil {
		return nil
	}
	if errors.Is(err, appErrors.ErrConflict) {
		return fmt.Errorf("%w: record changed while the operation was being validated", appErrors.ErrConcurrentModification)
	}
	return err
}
