package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/shopspring/decimal"
)

// InMemoryStorage keeps all records in process memory. It backs the tests and
// local runs without a MySQL server or a remote store. Writes check record
// versions the same way the SQL backend does, so the gate's conflict path
// behaves identically everywhere.
type InMemoryStorage struct {
	mu       sync.Mutex
	incomes  []finance.IncomeRecord
	expenses []finance.ExpenseRecord
	budgets  []finance.BudgetPlan
	goals    []finance.Goal
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return "inmemory"
}

// CheckSession treats the token as the account key. Single-user scope: real
// session resolution belongs to the remote collaborator.
func (inMem *InMemoryStorage) CheckSession(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: empty token", appErrors.ErrAuth)
	}
	return token, nil
}

func matchesPeriod(month int, year int, period finance.Period) bool {
	if period.Year != 0 && year != period.Year {
		return false
	}
	if period.Month != 0 && month != period.Month {
		return false
	}
	return true
}

func categoryMatches(category string, filter string) bool {
	return filter == "" || filter == finance.CategoryAll || category == filter
}

// --- INCOME --- //

func (inMem *InMemoryStorage) SaveIncome(ctx context.Context, record finance.IncomeRecord) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.incomes = append(inMem.incomes, record)
	return nil
}

func (inMem *InMemoryStorage) GetIncomeById(ctx context.Context, accountID string, incomeID string) (finance.IncomeRecord, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for _, record := range inMem.incomes {
		if record.ID == incomeID && record.CreatedBy == accountID {
			return record, nil
		}
	}
	return finance.IncomeRecord{}, fmt.Errorf("%w: income %s", appErrors.ErrNotFound, incomeID)
}

func (inMem *InMemoryStorage) GetFilteredIncomes(ctx context.Context, accountID string, filter finance.IncomeFilter) ([]finance.IncomeRecord, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	var records []finance.IncomeRecord
	for _, record := range inMem.incomes {
		if record.CreatedBy != accountID || record.Deleted != filter.Deleted {
			continue
		}
		if !filter.Period.Contains(record.Date) || !categoryMatches(record.Category, filter.Category) {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (inMem *InMemoryStorage) UpdateIncome(ctx context.Context, record finance.IncomeRecord) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for i, stored := range inMem.incomes {
		if stored.ID != record.ID || stored.CreatedBy != record.CreatedBy {
			continue
		}
		if stored.Version != record.Version {
			return fmt.Errorf("%w: income %s version %d is stale", appErrors.ErrConflict, record.ID, record.Version)
		}
		record.Version++
		inMem.incomes[i] = record
		return nil
	}
	return fmt.Errorf("%w: income %s", appErrors.ErrNotFound, record.ID)
}

func (inMem *InMemoryStorage) SetIncomeDeleted(ctx context.Context, accountID string, incomeID string, deleted bool) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for i, stored := range inMem.incomes {
		if stored.ID == incomeID && stored.CreatedBy == accountID {
			inMem.incomes[i].Deleted = deleted
			inMem.incomes[i].Version++
			inMem.incomes[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: income %s", appErrors.ErrNotFound, incomeID)
}

// IncomeUpdateCheck verifies the period's expenses are still covered when the
// candidate record (with its new amount) replaces the stored one.
func (inMem *InMemoryStorage) IncomeUpdateCheck(ctx context.Context, record finance.IncomeRecord) (bool, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	period := finance.Period{Month: int(record.Date.Month()), Year: record.Date.Year()}

	income := decimal.Zero
	for _, stored := range inMem.incomes {
		if stored.CreatedBy != record.CreatedBy || stored.Deleted || !matchesPeriod(int(stored.Date.Month()), stored.Date.Year(), period) {
			continue
		}
		if stored.ID == record.ID {
			income = income.Add(record.Amount)
		} else {
			income = income.Add(stored.Amount)
		}
	}
	return income.GreaterThanOrEqual(inMem.expenseTotalLocked(record.CreatedBy, period)), nil
}

// IncomeDeleteCheck verifies the period's expenses remain covered once the
// record's amount leaves the aggregates.
func (inMem *InMemoryStorage) IncomeDeleteCheck(ctx context.Context, record finance.IncomeRecord) (bool, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	period := finance.Period{Month: int(record.Date.Month()), Year: record.Date.Year()}

	income := decimal.Zero
	for _, stored := range inMem.incomes {
		if stored.CreatedBy != record.CreatedBy || stored.Deleted || stored.ID == record.ID {
			continue
		}
		if matchesPeriod(int(stored.Date.Month()), stored.Date.Year(), period) {
			income = income.Add(stored.Amount)
		}
	}
	return income.GreaterThanOrEqual(inMem.expenseTotalLocked(record.CreatedBy, period)), nil
}

func (inMem *InMemoryStorage) expenseTotalLocked(accountID string, period finance.Period) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range inMem.expenses {
		if expense.CreatedBy != accountID {
			continue
		}
		if matchesPeriod(int(expense.Date.Month()), expense.Date.Year(), period) {
			total = total.Add(expense.Amount)
		}
	}
	return total
}

// --- EXPENSE --- //

func (inMem *InMemoryStorage) SaveExpense(ctx context.Context, record finance.ExpenseRecord) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.expenses = append(inMem.expenses, record)
	return nil
}

func (inMem *InMemoryStorage) GetExpenseById(ctx context.Context, accountID string, expenseID string) (finance.ExpenseRecord, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for _, record := range inMem.expenses {
		if record.ID == expenseID && record.CreatedBy == accountID {
			return record, nil
		}
	}
	return finance.ExpenseRecord{}, fmt.Errorf("%w: expense %s", appErrors.ErrNotFound, expenseID)
}

func (inMem *InMemoryStorage) GetFilteredExpenses(ctx context.Context, accountID string, filter finance.ExpenseFilter) ([]finance.ExpenseRecord, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	var records []finance.ExpenseRecord
	for _, record := range inMem.expenses {
		if record.CreatedBy != accountID {
			continue
		}
		if !filter.Period.Contains(record.Date) || !categoryMatches(record.Category, filter.Category) {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (inMem *InMemoryStorage) UpdateExpense(ctx context.Context, record finance.ExpenseRecord) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for i, stored := range inMem.expenses {
		if stored.ID != record.ID || stored.CreatedBy != record.CreatedBy {
			continue
		}
		if stored.Version != record.Version {
			return fmt.Errorf("%w: expense %s version %d is stale", appErrors.ErrConflict, record.ID, record.Version)
		}
		record.Version++
		inMem.expenses[i] = record
		return nil
	}
	return fmt.Errorf("%w: expense %s", appErrors.ErrNotFound, record.ID)
}

func (inMem *InMemoryStorage) DeleteExpenses(ctx context.Context, accountID string, expenseIDs []string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	doomed := make(map[string]bool, len(expenseIDs))
	for _, id := range expenseIDs {
		doomed[id] = true
	}
	kept := inMem.expenses[:0]
	for _, record := range inMem.expenses {
		if record.CreatedBy == accountID && doomed[record.ID] {
			continue
		}
		kept = append(kept, record)
	}
	inMem.expenses = kept
	return nil
}

// --- BUDGET --- //

// SaveBudgets replaces the period's plans so that re-allocating is idempotent.
func (inMem *InMemoryStorage) SaveBudgets(ctx context.Context, plans []finance.BudgetPlan) error {
	if len(plans) == 0 {
		return nil
	}
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	month, year, account := plans[0].Month, plans[0].Year, plans[0].CreatedBy
	kept := inMem.budgets[:0]
	for _, plan := range inMem.budgets {
		if plan.CreatedBy == account && plan.Month == month && plan.Year == year {
			continue
		}
		kept = append(kept, plan)
	}
	inMem.budgets = append(kept, plans...)
	return nil
}

func (inMem *InMemoryStorage) GetBudgets(ctx context.Context, accountID string, category string, period finance.Period) ([]finance.BudgetPlan, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	var plans []finance.BudgetPlan
	for _, plan := range inMem.budgets {
		if plan.CreatedBy != accountID {
			continue
		}
		if !matchesPeriod(plan.Month, plan.Year, period) || !categoryMatches(plan.Category, category) {
			continue
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (inMem *InMemoryStorage) GetBudgetById(ctx context.Context, accountID string, budgetID string) (finance.BudgetPlan, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for _, plan := range inMem.budgets {
		if plan.ID == budgetID && plan.CreatedBy == accountID {
			return plan, nil
		}
	}
	return finance.BudgetPlan{}, fmt.Errorf("%w: budget %s", appErrors.ErrNotFound, budgetID)
}

func (inMem *InMemoryStorage) UpdateBudgetLimit(ctx context.Context, accountID string, budgetID string, limit decimal.Decimal) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for i, plan := range inMem.budgets {
		if plan.ID == budgetID && plan.CreatedBy == accountID {
			inMem.budgets[i].MoneyLimit = limit
			inMem.budgets[i].Version++
			inMem.budgets[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: budget %s", appErrors.ErrNotFound, budgetID)
}

// --- GOAL --- //

func (inMem *InMemoryStorage) SaveGoal(ctx context.Context, goal finance.Goal) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.goals = append(inMem.goals, goal)
	return nil
}

func (inMem *InMemoryStorage) GetGoalById(ctx context.Context, accountID string, goalID string) (finance.Goal, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for _, goal := range inMem.goals {
		if goal.ID == goalID && goal.CreatedBy == accountID {
			return goal, nil
		}
	}
	return finance.Goal{}, fmt.Errorf("%w: goal %s", appErrors.ErrNotFound, goalID)
}

func (inMem *InMemoryStorage) GetGoals(ctx context.Context, accountID string) ([]finance.Goal, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	var goals []finance.Goal
	for _, goal := range inMem.goals {
		if goal.CreatedBy == accountID {
			goals = append(goals, goal)
		}
	}
	return goals, nil
}

func (inMem *InMemoryStorage) UpdateGoal(ctx context.Context, goal finance.Goal) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for i, stored := range inMem.goals {
		if stored.ID != goal.ID || stored.CreatedBy != goal.CreatedBy {
			continue
		}
		if stored.Version != goal.Version {
			return fmt.Errorf("%w: goal %s version %d is stale", appErrors.ErrConflict, goal.ID, goal.Version)
		}
		goal.Version++
		inMem.goals[i] = goal
		return nil
	}
	return fmt.Errorf("%w: goal %s", appErrors.ErrNotFound, goal.ID)
}

func (inMem *InMemoryStorage) DeleteGoal(ctx context.Context, accountID string, goalID string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for i, goal := range inMem.goals {
		if goal.ID == goalID && goal.CreatedBy == accountID {
			inMem.goals = append(inMem.goals[:i], inMem.goals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: goal %s", appErrors.ErrNotFound, goalID)
}
