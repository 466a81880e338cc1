package finance

import (
	"context"
	"fmt"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/shopspring/decimal"
)

const MAX_AMOUNT_LIMIT = 999999999999999999

// FinanceTracker is the consistency core: every mutation against the income,
// expense, budget and goal records goes through its validation gate before it
// reaches the storage backend.
type FinanceTracker struct {
	storage     Storage
	StorageType string
}

func NewFinanceTracker(s Storage) FinanceTracker {
	return FinanceTracker{
		storage:     s,
		StorageType: s.GetStorageType(),
	}
}

// Storage is the persistence collaborator. The remote backend talks to the
// REST store, the MySQL and in-memory backends keep the records themselves.
// The income update/delete checks live here because the dependent-expense
// data belongs to the store.
type Storage interface {
	CheckSession(ctx context.Context, token string) (accountID string, err error)

	SaveIncome(ctx context.Context, record IncomeRecord) error
	GetIncomeById(ctx context.Context, accountID string, incomeID string) (IncomeRecord, error)
	GetFilteredIncomes(ctx context.Context, accountID string, filter IncomeFilter) ([]IncomeRecord, error)
	UpdateIncome(ctx context.Context, record IncomeRecord) error
	SetIncomeDeleted(ctx context.Context, accountID string, incomeID string, deleted bool) error
	IncomeUpdateCheck(ctx context.Context, record IncomeRecord) (bool, error)
	IncomeDeleteCheck(ctx context.Context, record IncomeRecord) (bool, error)

	SaveExpense(ctx context.Context, record ExpenseRecord) error
	GetExpenseById(ctx context.Context, accountID string, expenseID string) (ExpenseRecord, error)
	GetFilteredExpenses(ctx context.Context, accountID string, filter ExpenseFilter) ([]ExpenseRecord, error)
	UpdateExpense(ctx context.Context, record ExpenseRecord) error
	DeleteExpenses(ctx context.Context, accountID string, expenseIDs []string) error

	SaveBudgets(ctx context.Context, plans []BudgetPlan) error
	GetBudgets(ctx context.Context, accountID string, category string, period Period) ([]BudgetPlan, error)
	GetBudgetById(ctx context.Context, accountID string, budgetID string) (BudgetPlan, error)
	UpdateBudgetLimit(ctx context.Context, accountID string, budgetID string, limit decimal.Decimal) error

	SaveGoal(ctx context.Context, goal Goal) error
	GetGoalById(ctx context.Context, accountID string, goalID string) (Goal, error)
	GetGoals(ctx context.Context, accountID string) ([]Goal, error)
	UpdateGoal(ctx context.Context, goal Goal) error
	DeleteGoal(ctx context.Context, accountID string, goalID string) error

	GetStorageType() string
}

// CheckSession resolves an auth token to an account id. Session handling is
// owned by the collaborator; the core only passes the token through.
func (ft *FinanceTracker) CheckSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: token is empty", appErrors.ErrAuth)
	}
	accountID, err := ft.storage.CheckSession(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to check session: %w", err)
	}
	return accountID, nil
}
