package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/logging"
)

// Income lifecycle: create, update, soft-delete, revert. A record is never
// physically removed; deletion flips the Deleted flag and revert clears it,
// each transition gated by the consistency checks below.

func (ft *FinanceTracker) SaveIncome(ctx context.Context, accountID string, request IncomeRequest) (IncomeRecord, error) {
	if strings.TrimSpace(request.Source) == "" {
		return IncomeRecord{}, fmt.Errorf("%w: income source is empty", appErrors.ErrInvalidInput)
	}
	if request.Category == "" {
		return IncomeRecord{}, fmt.Errorf("%w: income category is empty", appErrors.ErrInvalidInput)
	}
	if err := checkAmountPositive(request.Amount, "income amount"); err != nil {
		return IncomeRecord{}, err
	}
	if request.Date.IsZero() {
		return IncomeRecord{}, fmt.Errorf("%w: income date is required", appErrors.ErrInvalidInput)
	}

	if err := ft.checkDuplicateSource(ctx, accountID, request.Source, request.Category, ""); err != nil {
		return IncomeRecord{}, err
	}

	now := time.Now().UTC()
	record := IncomeRecord{
		ID:        uuid.New().String(),
		Source:    request.Source,
		Amount:    request.Amount,
		Date:      request.Date,
		Category:  request.Category,
		Recurring: request.Recurring,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: accountID,
	}
	if err := ft.storage.SaveIncome(ctx, record); err != nil {
		return IncomeRecord{}, fmt.Errorf("failed to save income: %w", err)
	}
	return record, nil
}

func (ft *FinanceTracker) GetIncomes(ctx context.Context, accountID string, filter IncomeFilter) ([]IncomeRecord, error) {
	records, err := ft.storage.GetFilteredIncomes(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get incomes: %w", err)
	}
	return records, nil
}

// UpdateIncome applies the patch. Reducing the amount is gated by the store's
// dependent-expense check; a no-op patch is reported, not failed.
func (ft *FinanceTracker) UpdateIncome(ctx context.Context, accountID string, incomeID string, request IncomeRequest) (IncomeRecord, bool, error) {
	if strings.TrimSpace(request.Source) == "" {
		return IncomeRecord{}, false, fmt.Errorf("%w: income source is empty", appErrors.ErrInvalidInput)
	}
	if err := checkAmountPositive(request.Amount, "income amount"); err != nil {
		return IncomeRecord{}, false, err
	}

	var updated IncomeRecord
	changed := false
	err := ft.commit(ctx, func(ctx context.Context) error {
		stored, err := ft.storage.GetIncomeById(ctx, accountID, incomeID)
		if err != nil {
			return fmt.Errorf("failed to get income: %w", err)
		}
		if stored.Deleted {
			return fmt.Errorf("%w: cannot update a deleted income, revert it first", appErrors.ErrInvalidInput)
		}

		if stored.Source == request.Source && stored.Amount.Equal(request.Amount) &&
			stored.Date.Equal(request.Date) && stored.Category == request.Category &&
			stored.Recurring == request.Recurring {
			updated, changed = stored, false
			return nil
		}

		if stored.Source != request.Source || stored.Category != request.Category {
			if err := ft.checkDuplicateSource(ctx, accountID, request.Source, request.Category, stored.ID); err != nil {
				return err
			}
		}

		candidate := stored
		candidate.Source = request.Source
		candidate.Amount = request.Amount
		candidate.Date = request.Date
		candidate.Category = request.Category
		candidate.Recurring = request.Recurring
		candidate.UpdatedAt = time.Now().UTC()

		if request.Amount.LessThan(stored.Amount) {
			ok, err := ft.storage.IncomeUpdateCheck(ctx, candidate)
			if err != nil {
				return fmt.Errorf("failed to run income update check: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: reducing this income to %s leaves the period's expenses uncovered",
					appErrors.ErrIncomeTooLowForExpenses, request.Amount.StringFixed(2))
			}
		}

		if err := ft.storage.UpdateIncome(ctx, candidate); err != nil {
			return err
		}
		updated, changed = candidate, true
		return nil
	})
	if err != nil {
		return IncomeRecord{}, false, err
	}
	return updated, changed, nil
}

// SoftDeleteIncome flags the record deleted once the store confirms the
// remaining income still covers the period's expenses. A failed check leaves
// the record untouched.
func (ft *FinanceTracker) SoftDeleteIncome(ctx context.Context, accountID string, incomeID string) error {
	return ft.commit(ctx, func(ctx context.Context) error {
		stored, err := ft.storage.GetIncomeById(ctx, accountID, incomeID)
		if err != nil {
			return fmt.Errorf("failed to get income: %w", err)
		}
		if stored.Deleted {
			return fmt.Errorf("%w: income is already deleted", appErrors.ErrInvalidInput)
		}

		ok, err := ft.storage.IncomeDeleteCheck(ctx, stored)
		if err != nil {
			return fmt.Errorf("failed to run income delete check: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: expenses recorded for %s %d still depend on this income",
				appErrors.ErrCannotDeleteIncomeInUse, stored.Date.Month(), stored.Date.Year())
		}

		if err := ft.storage.SetIncomeDeleted(ctx, accountID, incomeID, true); err != nil {
			return err
		}
		logging.Logger.Infof("income %s soft-deleted", incomeID)
		return nil
	})
}

// RevertIncome clears the soft-deleted flag. The transition is only legal
// from the deleted state and re-runs the create validation: another record
// may have taken the (source, category) pair meanwhile, and the aggregates
// must stay consistent once the amount rejoins them.
func (ft *FinanceTracker) RevertIncome(ctx context.Context, accountID string, incomeID string) error {
	return ft.commit(ctx, func(ctx context.Context) error {
		stored, err := ft.storage.GetIncomeById(ctx, accountID, incomeID)
		if err != nil {
			return fmt.Errorf("failed to get income: %w", err)
		}
		if !stored.Deleted {
			return fmt.Errorf("%w: income is not deleted, nothing to revert", appErrors.ErrInvalidInput)
		}

		if err := ft.checkDuplicateSource(ctx, accountID, stored.Source, stored.Category, stored.ID); err != nil {
			return err
		}

		balance, err := ft.AvailableBalance(ctx, accountID)
		if err != nil {
			return err
		}
		if balance.Add(stored.Amount).Sign() < 0 {
			return fmt.Errorf("%w: re-including this income would leave the balance at %s",
				appErrors.ErrRevertWouldViolateBalance, balance.Add(stored.Amount).StringFixed(2))
		}

		if err := ft.storage.SetIncomeDeleted(ctx, accountID, incomeID, false); err != nil {
			return err
		}
		logging.Logger.Infof("income %s reverted", incomeID)
		return nil
	})
}

// IncomeDeleteCheck and IncomeUpdateCheck are also exposed directly so the
// dashboard can pre-validate before opening a confirmation dialog.
func (ft *FinanceTracker) IncomeDeleteCheck(ctx context.Context, accountID string, incomeID string) (bool, error) {
	stored, err := ft.storage.GetIncomeById(ctx, accountID, incomeID)
	if err != nil {
		return false, fmt.Errorf("failed to get income: %w", err)
	}
	ok, err := ft.storage.IncomeDeleteCheck(ctx, stored)
	if err != nil {
		return false, fmt.Errorf("failed to run income delete check: %w", err)
	}
	return ok, nil
}

func (ft *FinanceTracker) IncomeUpdateCheck(ctx context.Context, accountID string, incomeID string, request IncomeRequest) (bool, error) {
	stored, err := ft.storage.GetIncomeById(ctx, accountID, incomeID)
	if err != nil {
		return false, fmt.Errorf("failed to get income: %w", err)
	}
	candidate := stored
	candidate.Amount = request.Amount
	candidate.Date = request.Date
	ok, err := ft.storage.IncomeUpdateCheck(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("failed to run income update check: %w", err)
	}
	return ok, nil
}

// checkDuplicateSource enforces the one-record-per-(source, category) rule
// over the non-deleted records. excludeID skips the record being edited.
func (ft *FinanceTracker) checkDuplicateSource(ctx context.Context, accountID string, source string, category string, excludeID string) error {
	records, err := ft.storage.GetFilteredIncomes(ctx, accountID, IncomeFilter{Category: CategoryAll})
	if err != nil {
		return fmt.Errorf("failed to check income sources: %w", err)
	}
	for _, record := range records {
		if record.ID == excludeID {
			continue
		}
		if strings.EqualFold(record.Source, source) && record.Category == category {
			return fmt.Errorf("%w: income from '%s' in category '%s' already exists",
				appErrors.ErrDuplicateSource, source, category)
		}
	}
	return nil
}
