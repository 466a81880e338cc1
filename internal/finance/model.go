package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period scopes an aggregate to a (month, year) pair. Month 0 means the
// whole year, year 0 means all time.
type Period struct {
	Month int
	Year  int
}

// AllTime is the zero period: no month or year filtering at all.
var AllTime = Period{}

// CategoryAll is the sentinel meaning "no category filter". It is distinct
// from an empty string, which callers must normalize before reaching the core.
const CategoryAll = "all"

// Contains reports whether the given date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	if p.Year != 0 && date.Year() != p.Year {
		return false
	}
	if p.Month != 0 && int(date.Month()) != p.Month {
		return false
	}
	return true
}

func (p Period) IsAllTime() bool {
	return p.Month == 0 && p.Year == 0
}

// REQUESTS START:

type IncomeRequest struct {
	Source    string
	Amount    decimal.Decimal
	Date      time.Time
	Category  string
	Recurring bool
}

type ExpenseRequest struct {
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Description string
	Recurring   bool
}

type GoalRequest struct {
	Name          string
	CurrentAmount decimal.Decimal
	TargetAmount  decimal.Decimal
	Deadline      time.Time
	Category      string
}

type BudgetLimitUpdate struct {
	ID         string
	MoneyLimit decimal.Decimal
}

type IncomeFilter struct {
	Period   Period
	Category string
	Deleted  bool
}

type ExpenseFilter struct {
	Period   Period
	Category string
}

// REQUESTS END:

// MODELS:

type IncomeRecord struct {
	ID        string
	Source    string
	Amount    decimal.Decimal
	Date      time.Time
	Category  string
	Recurring bool
	Deleted   bool
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

type ExpenseRecord struct {
	ID          string
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Description string
	Recurring   bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
}

// BudgetPlan is one category's allocation for a (month, year). Spending,
// remaining and progress are derived on read, never stored.
type BudgetPlan struct {
	ID         string
	Category   string
	Percentage decimal.Decimal
	MoneyLimit decimal.Decimal
	Month      int
	Year       int
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "Active"
	GoalCompleted GoalStatus = "Completed"
	GoalOverdue   GoalStatus = "Overdue"
)

type Goal struct {
	ID            string
	Name          string
	CurrentAmount decimal.Decimal
	TargetAmount  decimal.Decimal
	Deadline      time.Time
	Category      string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatedBy     string
}

// RESPONSES:

type BudgetDetails struct {
	BudgetPlan
	CurrentSpending    decimal.Decimal
	Remaining          decimal.Decimal
	ProgressPercentage decimal.Decimal
}

type GoalDetails struct {
	Goal
	Status             GoalStatus
	DaysRemaining      int
	ProgressPercentage decimal.Decimal
}

// PeriodAggregate is the overview snapshot for one period. It is a view:
// recomputed on demand, never persisted.
type PeriodAggregate struct {
	Period           Period
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	AvailableBalance decimal.Decimal
	TotalBudgetLimit decimal.Decimal
	TotalGoalCurrent decimal.Decimal
	TotalGoalTarget  decimal.Decimal
	RecurringPercent int
}
