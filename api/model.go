package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// REQUESTS START:

// Amounts cross the wire as strings so "145.67" survives exactly; the
// dashboard formats them itself.

type SaveIncomeRequest struct {
	Source    string `json:"source"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Recurring bool   `json:"recurring"`
}

type SaveExpenseRequest struct {
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Recurring   bool   `json:"recurring"`
}

type SaveBudgetRequest struct {
	TotalBudget string `json:"total_budget"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
}

type BudgetLimitUpdateItem struct {
	ID         string `json:"id"`
	MoneyLimit string `json:"money_limit"`
}

type UpdateBudgetRequest struct {
	Budgets []BudgetLimitUpdateItem `json:"budgets"`
}

type SaveGoalRequest struct {
	Name          string `json:"name"`
	CurrentAmount string `json:"current_amount"`
	TargetAmount  string `json:"target_amount"`
	Deadline      string `json:"deadline"`
	Category      string `json:"category"`
}

type IncomeCheckRequest struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// REQUESTS END:

// RESPONSES:

type MessageResponse struct {
	Message string `json:"message"`
}

type IncomeItem struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Recurring bool   `json:"recurring"`
	Deleted   bool   `json:"deleted"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ListIncomesResponse struct {
	Incomes []IncomeItem `json:"incomes"`
}

type ExpenseItem struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Recurring   bool   `json:"recurring"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ListExpensesResponse struct {
	Expenses []ExpenseItem `json:"expenses"`
}

type BudgetDetailsItem struct {
	ID                 string `json:"id"`
	Category           string `json:"category"`
	Percentage         string `json:"percentage"`
	MoneyLimit         string `json:"money_limit"`
	Month              int    `json:"month"`
	Year               int    `json:"year"`
	CurrentSpending    string `json:"current_spending"`
	Remaining          string `json:"remaining"`
	ProgressPercentage string `json:"progress_percentage"`
	ProgressColor      string `json:"progress_color"`
}

type ListBudgetDetailsResponse struct {
	Budgets []BudgetDetailsItem `json:"budgets"`
}

type GoalItem struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	CurrentAmount      string `json:"current_amount"`
	TargetAmount       string `json:"target_amount"`
	Deadline           string `json:"deadline,omitempty"`
	Category           string `json:"category"`
	Status             string `json:"status"`
	DaysRemaining      int    `json:"days_remaining"`
	ProgressPercentage string `json:"progress_percentage"`
	ProgressColor      string `json:"progress_color"`
	Icon               string `json:"icon"`
	Color              string `json:"color"`
}

type ListGoalsResponse struct {
	Goals []GoalItem `json:"goals"`
}

type TotalResponse struct {
	Total string `json:"total"`
}

type BalanceResponse struct {
	AvailableBalance string `json:"available_balance"`
}

type CheckResponse struct {
	Allowed bool `json:"allowed"`
}

type SummaryResponse struct {
	Month            int    `json:"month"`
	Year             int    `json:"year"`
	TotalIncome      string `json:"total_income"`
	TotalExpenses    string `json:"total_expenses"`
	AvailableBalance string `json:"available_balance"`
	TotalBudgetLimit string `json:"total_budget_limit"`
	TotalGoalCurrent string `json:"total_goal_current"`
	TotalGoalTarget  string `json:"total_goal_target"`
	RecurringPercent int    `json:"recurring_percentage"`
}

func httpStatusFromError(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		return 404 // not found
	case errors.Is(err, appErrors.ErrInvalidInput):
		return 400 // bad request
	case errors.Is(err, appErrors.ErrAuth):
		return 401 // unauthorized
	case errors.Is(err, appErrors.ErrDuplicateSource),
		errors.Is(err, appErrors.ErrConcurrentModification),
		errors.Is(err, appErrors.ErrConflict):
		return 409 // conflict
	case errors.Is(err, appErrors.ErrInsufficientBalance),
		errors.Is(err, appErrors.ErrBudgetExceedsIncome),
		errors.Is(err, appErrors.ErrInvalidTarget),
		errors.Is(err, appErrors.ErrIncomeTooLowForExpenses),
		errors.Is(err, appErrors.ErrCannotDeleteIncomeInUse),
		errors.Is(err, appErrors.ErrRevertWouldViolateBalance):
		return 422 // the record is fine, the books are not
	case errors.Is(err, appErrors.ErrUpstreamUnavailable):
		return 503 // record store is down
	default:
		return 500 // internal error
	}
}

// PARSERS:

func parseAmount(raw string, what string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s: '%s'", appErrors.ErrInvalidInput, what, raw)
	}
	return amount, nil
}

func parseDate(raw string, what string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s: '%s', expected %s", appErrors.ErrInvalidInput, what, raw, dateLayout)
	}
	return date, nil
}

// parsePeriod reads the {month}/{year} path pair. "0" or "all" on either side
// widens that side of the scope.
func parsePeriod(monthStr string, yearStr string) (finance.Period, error) {
	var period finance.Period
	if monthStr != "" && monthStr != "all" {
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 0 || month > 12 {
			return finance.Period{}, fmt.Errorf("%w: invalid month: '%s'", appErrors.ErrInvalidInput, monthStr)
		}
		period.Month = month
	}
	if yearStr != "" && yearStr != "all" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 0 {
			return finance.Period{}, fmt.Errorf("%w: invalid year: '%s'", appErrors.ErrInvalidInput, yearStr)
		}
		period.Year = year
	}
	if period.Month != 0 && period.Year == 0 {
		return finance.Period{}, fmt.Errorf("%w: month %d given without a year", appErrors.ErrInvalidInput, period.Month)
	}
	return period, nil
}

// CONVERTERS:

func IncomeToHttp(record finance.IncomeRecord) IncomeItem {
	return IncomeItem{
		ID:        record.ID,
		Source:    record.Source,
		Amount:    record.Amount.StringFixed(2),
		Date:      record.Date.Format(dateLayout),
		Category:  record.Category,
		Recurring: record.Recurring,
		Deleted:   record.Deleted,
		CreatedAt: record.CreatedAt.Format("02/01/2006 15:04"),
		UpdatedAt: record.UpdatedAt.Format("02/01/2006 15:04"),
	}
}

func ExpenseToHttp(record finance.ExpenseRecord) ExpenseItem {
	return ExpenseItem{
		ID:          record.ID,
		Amount:      record.Amount.StringFixed(2),
		Date:        record.Date.Format(dateLayout),
		Category:    record.Category,
		Description: record.Description,
		Recurring:   record.Recurring,
		CreatedAt:   record.CreatedAt.Format("02/01/2006 15:04"),
		UpdatedAt:   record.UpdatedAt.Format("02/01/2006 15:04"),
	}
}

func BudgetDetailsToHttp(details finance.BudgetDetails) BudgetDetailsItem {
	return BudgetDetailsItem{
		ID:                 details.ID,
		Category:           details.Category,
		Percentage:         details.Percentage.StringFixed(2),
		MoneyLimit:         details.MoneyLimit.StringFixed(2),
		Month:              details.Month,
		Year:               details.Year,
		CurrentSpending:    details.CurrentSpending.StringFixed(2),
		Remaining:          details.Remaining.StringFixed(2),
		ProgressPercentage: details.ProgressPercentage.StringFixed(2),
		ProgressColor:      finance.ProgressColor(details.ProgressPercentage),
	}
}

func GoalToHttp(details finance.GoalDetails) GoalItem {
	style := finance.StyleForCategory(details.Category)
	item := GoalItem{
		ID:                 details.ID,
		Name:               details.Name,
		CurrentAmount:      details.CurrentAmount.StringFixed(2),
		TargetAmount:       details.TargetAmount.StringFixed(2),
		Category:           details.Category,
		Status:             string(details.Status),
		DaysRemaining:      details.DaysRemaining,
		ProgressPercentage: details.ProgressPercentage.StringFixed(2),
		ProgressColor:      finance.ProgressColor(details.ProgressPercentage),
		Icon:               style.Icon,
		Color:              style.Color,
	}
	if !details.Deadline.IsZero() {
		item.Deadline = details.Deadline.Format(dateLayout)
	}
	return item
}

func SummaryToHttp(aggregate finance.PeriodAggregate) SummaryResponse {
	return SummaryResponse{
		Month:            aggregate.Period.Month,
		Year:             aggregate.Period.Year,
		TotalIncome:      aggregate.TotalIncome.StringFixed(2),
		TotalExpenses:    aggregate.TotalExpenses.StringFixed(2),
		AvailableBalance: aggregate.AvailableBalance.StringFixed(2),
		TotalBudgetLimit: aggregate.TotalBudgetLimit.StringFixed(2),
		TotalGoalCurrent: aggregate.TotalGoalCurrent.StringFixed(2),
		TotalGoalTarget:  aggregate.TotalGoalTarget.StringFixed(2),
		RecurringPercent: aggregate.RecurringPercent,
	}
}
