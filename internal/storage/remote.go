package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/contextutil"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/moneyfi/backend/logging"
	"github.com/shopspring/decimal"
)

// RestStorage talks to the remote record store over its REST API. Amounts
// cross the wire as strings so no precision is lost to float encoding.
type RestStorage struct {
	baseURL string
	client  *http.Client
}

func NewRestStorage() (*RestStorage, error) {
	baseURL := strings.TrimSuffix(os.Getenv("REMOTE_STORE_URL"), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing REMOTE_STORE_URL environment variable")
	}
	return &RestStorage{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (rest *RestStorage) GetStorageType() string {
	return "remote"
}

// --- WIRE TYPES --- //

type wireIncome struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Amount    string    `json:"amount"`
	Date      time.Time `json:"date"`
	Category  string    `json:"category"`
	Recurring bool      `json:"recurring"`
	Deleted   bool      `json:"deleted"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
}

func toWireIncome(record finance.IncomeRecord) wireIncome {
	return wireIncome{
		ID:        record.ID,
		Source:    record.Source,
		Amount:    record.Amount.String(),
		Date:      record.Date,
		Category:  record.Category,
		Recurring: record.Recurring,
		Deleted:   record.Deleted,
		Version:   record.Version,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		CreatedBy: record.CreatedBy,
	}
}

func (wire wireIncome) toRecord() (finance.IncomeRecord, error) {
	amount, err := decimal.NewFromString(wire.Amount)
	if err != nil {
		return finance.IncomeRecord{}, fmt.Errorf("bad amount %q for income %s: %w", wire.Amount, wire.ID, err)
	}
	return finance.IncomeRecord{
		ID:        wire.ID,
		Source:    wire.Source,
		Amount:    amount,
		Date:      wire.Date,
		Category:  wire.Category,
		Recurring: wire.Recurring,
		Deleted:   wire.Deleted,
		Version:   wire.Version,
		CreatedAt: wire.CreatedAt,
		UpdatedAt: wire.UpdatedAt,
		CreatedBy: wire.CreatedBy,
	}, nil
}

type wireExpense struct {
	ID          string    `json:"id"`
	Amount      string    `json:"amount"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Recurring   bool      `json:"recurring"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   string    `json:"created_by"`
}

func toWireExpense(record finance.ExpenseRecord) wireExpense {
	return wireExpense{
		ID:          record.ID,
		Amount:      record.Amount.String(),
		Date:        record.Date,
		Category:    record.Category,
		Description: record.Description,
		Recurring:   record.Recurring,
		Version:     record.Version,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		CreatedBy:   record.CreatedBy,
	}
}

func (wire wireExpense) toRecord() (finance.ExpenseRecord, error) {
	amount, err := decimal.NewFromString(wire.Amount)
	if err != nil {
		return finance.ExpenseRecord{}, fmt.Errorf("bad amount %q for expense %s: %w", wire.Amount, wire.ID, err)
	}
	return finance.ExpenseRecord{
		ID:          wire.ID,
		Amount:      amount,
		Date:        wire.Date,
		Category:    wire.Category,
		Description: wire.Description,
		Recurring:   wire.Recurring,
		Version:     wire.Version,
		CreatedAt:   wire.CreatedAt,
		UpdatedAt:   wire.UpdatedAt,
		CreatedBy:   wire.CreatedBy,
	}, nil
}

type wireBudget struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Percentage string    `json:"percentage"`
	MoneyLimit string    `json:"money_limit"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	CreatedBy  string    `json:"created_by"`
}

func toWireBudget(plan finance.BudgetPlan) wireBudget {
	return wireBudget{
		ID:         plan.ID,
		Category:   plan.Category,
		Percentage: plan.Percentage.String(),
		MoneyLimit: plan.MoneyLimit.String(),
		Month:      plan.Month,
		Year:       plan.Year,
		Version:    plan.Version,
		CreatedAt:  plan.CreatedAt,
		UpdatedAt:  plan.UpdatedAt,
		CreatedBy:  plan.CreatedBy,
	}
}

func (wire wireBudget) toPlan() (finance.BudgetPlan, error) {
	percentage, err := decimal.NewFromString(wire.Percentage)
	if err != nil {
		return finance.BudgetPlan{}, fmt.Errorf("bad percentage %q for budget %s: %w", wire.Percentage, wire.ID, err)
	}
	limit, err := decimal.NewFromString(wire.MoneyLimit)
	if err != nil {
		return finance.BudgetPlan{}, fmt.Errorf("bad money limit %q for budget %s: %w", wire.MoneyLimit, wire.ID, err)
	}
	return finance.BudgetPlan{
		ID:         wire.ID,
		Category:   wire.Category,
		Percentage: percentage,
		MoneyLimit: limit,
		Month:      wire.Month,
		Year:       wire.Year,
		Version:    wire.Version,
		CreatedAt:  wire.CreatedAt,
		UpdatedAt:  wire.UpdatedAt,
		CreatedBy:  wire.CreatedBy,
	}, nil
}

type wireGoal struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	CurrentAmount string     `json:"current_amount"`
	TargetAmount  string     `json:"target_amount"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Category      string     `json:"category"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CreatedBy     string     `json:"created_by"`
}

func toWireGoal(goal finance.Goal) wireGoal {
	wire := wireGoal{
		ID:            goal.ID,
		Name:          goal.Name,
		CurrentAmount: goal.CurrentAmount.String(),
		TargetAmount:  goal.TargetAmount.String(),
		Category:      goal.Category,
		Version:       goal.Version,
		CreatedAt:     goal.CreatedAt,
		UpdatedAt:     goal.UpdatedAt,
		CreatedBy:     goal.CreatedBy,
	}
	if !goal.Deadline.IsZero() {
		deadline := goal.Deadline
		wire.Deadline = &deadline
	}
	return wire
}

func (wire wireGoal) toGoal() (finance.Goal, error) {
	current, err := decimal.NewFromString(wire.CurrentAmount)
	if err != nil {
		return finance.Goal{}, fmt.Errorf("bad current amount %q for goal %s: %w", wire.CurrentAmount, wire.ID, err)
	}
	target, err := decimal.NewFromString(wire.TargetAmount)
	if err != nil {
		return finance.Goal{}, fmt.Errorf("bad target amount %q for goal %s: %w", wire.TargetAmount, wire.ID, err)
	}
	goal := finance.Goal{
		ID:            wire.ID,
		Name:          wire.Name,
		CurrentAmount: current,
		TargetAmount:  target,
		Category:      wire.Category,
		Version:       wire.Version,
		CreatedAt:     wire.CreatedAt,
		UpdatedAt:     wire.UpdatedAt,
		CreatedBy:     wire.CreatedBy,
	}
	if wire.Deadline != nil {
		goal.Deadline = *wire.Deadline
	}
	return goal, nil
}

// --- TRANSPORT --- //

// doRequest issues one request against the record store, retrying once after a
// short pause when the store is unreachable or answers 5xx. Error statuses map
// onto the same sentinels the other backends return.
func (rest *RestStorage) doRequest(ctx context.Context, method string, path string, query url.Values, payload any, out any) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", appErrors.ErrInternal, err)
		}
		body = encoded
	}

	target := rest.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: build request: %v", appErrors.ErrInternal, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if token := contextutil.TokenFromContext(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, lastErr = rest.client.Do(req)
		if lastErr != nil {
			logging.Logger.Warnf("[TraceID=%s] | record store unreachable (%s %s), attempt %d | Error: %v", traceID, method, path, attempt+1, lastErr)
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("record store answered %d", resp.StatusCode)
			logging.Logger.Warnf("[TraceID=%s] | record store answered %d (%s %s), attempt %d", traceID, resp.StatusCode, method, path, attempt+1)
			resp = nil
			continue
		}
		break
	}
	if resp == nil {
		return fmt.Errorf("%w: %s %s: %v", appErrors.ErrUpstreamUnavailable, method, path, lastErr)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", appErrors.ErrNotFound, method, path)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s %s", appErrors.ErrAuth, method, path)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s %s", appErrors.ErrConflict, method, path)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(resp.Body)
		logging.Logger.Errorf("[TraceID=%s] | record store rejected %s %s with %d: %s", traceID, method, path, resp.StatusCode, raw)
		var remoteErr appErrors.ErrorResponse
		if json.Unmarshal(raw, &remoteErr) == nil && remoteErr.Message != "" {
			return fmt.Errorf("%w: %s %s: %s", appErrors.ErrInternal, method, path, remoteErr.Error())
		}
		return fmt.Errorf("%w: %s %s answered %d", appErrors.ErrInternal, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to decode record store response for %s %s | Error: %v", traceID, method, path, err)
		return fmt.Errorf("%w: decode response: %v", appErrors.ErrInternal, err)
	}
	return nil
}

func filterQuery(period finance.Period, category string) url.Values {
	query := url.Values{}
	if period.Month != 0 {
		query.Set("month", strconv.Itoa(period.Month))
	}
	if period.Year != 0 {
		query.Set("year", strconv.Itoa(period.Year))
	}
	if category != "" && category != finance.CategoryAll {
		query.Set("category", category)
	}
	return query
}

// --- SESSION --- //

func (rest *RestStorage) CheckSession(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: empty token", appErrors.ErrAuth)
	}
	ctx = contextutil.WithToken(ctx, token)
	var session struct {
		AccountID string `json:"account_id"`
	}
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/auth/session", nil, nil, &session); err != nil {
		return "", err
	}
	if session.AccountID == "" {
		return "", fmt.Errorf("%w: session without account", appErrors.ErrAuth)
	}
	return session.AccountID, nil
}

// --- INCOME --- //

func (rest *RestStorage) SaveIncome(ctx context.Context, record finance.IncomeRecord) error {
	return rest.doRequest(ctx, http.MethodPost, "/api/v1/incomes", nil, toWireIncome(record), nil)
}

func (rest *RestStorage) GetIncomeById(ctx context.Context, accountID string, incomeID string) (finance.IncomeRecord, error) {
	var wire wireIncome
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/incomes/"+url.PathEscape(incomeID), nil, nil, &wire); err != nil {
		return finance.IncomeRecord{}, err
	}
	record, err := wire.toRecord()
	if err != nil {
		return finance.IncomeRecord{}, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
	}
	return record, nil
}

func (rest *RestStorage) GetFilteredIncomes(ctx context.Context, accountID string, filter finance.IncomeFilter) ([]finance.IncomeRecord, error) {
	query := filterQuery(filter.Period, filter.Category)
	query.Set("deleted", strconv.FormatBool(filter.Deleted))

	var wires []wireIncome
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/incomes", query, nil, &wires); err != nil {
		return nil, err
	}
	records := make([]finance.IncomeRecord, 0, len(wires))
	for _, wire := range wires {
		record, err := wire.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (rest *RestStorage) UpdateIncome(ctx context.Context, record finance.IncomeRecord) error {
	return rest.doRequest(ctx, http.MethodPut, "/api/v1/incomes/"+url.PathEscape(record.ID), nil, toWireIncome(record), nil)
}

func (rest *RestStorage) SetIncomeDeleted(ctx context.Context, accountID string, incomeID string, deleted bool) error {
	payload := struct {
		Deleted bool `json:"deleted"`
	}{Deleted: deleted}
	return rest.doRequest(ctx, http.MethodPatch, "/api/v1/incomes/"+url.PathEscape(incomeID)+"/deleted", nil, payload, nil)
}

// IncomeUpdateCheck fetches the record's period from the store and verifies
// its expenses stay covered with the candidate amount in place.
func (rest *RestStorage) IncomeUpdateCheck(ctx context.Context, record finance.IncomeRecord) (bool, error) {
	income, expense, err := rest.periodTotals(ctx, record)
	if err != nil {
		return false, err
	}
	return income.Add(record.Amount).GreaterThanOrEqual(expense), nil
}

// IncomeDeleteCheck verifies the record's period stays covered once the
// record's amount leaves the aggregates.
func (rest *RestStorage) IncomeDeleteCheck(ctx context.Context, record finance.IncomeRecord) (bool, error) {
	income, expense, err := rest.periodTotals(ctx, record)
	if err != nil {
		return false, err
	}
	return income.GreaterThanOrEqual(expense), nil
}

// periodTotals sums the record's period excluding the record itself.
func (rest *RestStorage) periodTotals(ctx context.Context, record finance.IncomeRecord) (decimal.Decimal, decimal.Decimal, error) {
	period := finance.Period{Month: int(record.Date.Month()), Year: record.Date.Year()}

	incomes, err := rest.GetFilteredIncomes(ctx, record.CreatedBy, finance.IncomeFilter{Period: period, Category: finance.CategoryAll})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	income := decimal.Zero
	for _, stored := range incomes {
		if stored.ID == record.ID {
			continue
		}
		income = income.Add(stored.Amount)
	}

	expenses, err := rest.GetFilteredExpenses(ctx, record.CreatedBy, finance.ExpenseFilter{Period: period, Category: finance.CategoryAll})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	expense := decimal.Zero
	for _, stored := range expenses {
		expense = expense.Add(stored.Amount)
	}
	return income, expense, nil
}

// --- EXPENSE --- //

func (rest *RestStorage) SaveExpense(ctx context.Context, record finance.ExpenseRecord) error {
	return rest.doRequest(ctx, http.MethodPost, "/api/v1/expenses", nil, toWireExpense(record), nil)
}

func (rest *RestStorage) GetExpenseById(ctx context.Context, accountID string, expenseID string) (finance.ExpenseRecord, error) {
	var wire wireExpense
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/expenses/"+url.PathEscape(expenseID), nil, nil, &wire); err != nil {
		return finance.ExpenseRecord{}, err
	}
	record, err := wire.toRecord()
	if err != nil {
		return finance.ExpenseRecord{}, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
	}
	return record, nil
}

func (rest *RestStorage) GetFilteredExpenses(ctx context.Context, accountID string, filter finance.ExpenseFilter) ([]finance.ExpenseRecord, error) {
	var wires []wireExpense
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/expenses", filterQuery(filter.Period, filter.Category), nil, &wires); err != nil {
		return nil, err
	}
	records := make([]finance.ExpenseRecord, 0, len(wires))
	for _, wire := range wires {
		record, err := wire.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (rest *RestStorage) UpdateExpense(ctx context.Context, record finance.ExpenseRecord) error {
	return rest.doRequest(ctx, http.MethodPut, "/api/v1/expenses/"+url.PathEscape(record.ID), nil, toWireExpense(record), nil)
}

func (rest *RestStorage) DeleteExpenses(ctx context.Context, accountID string, expenseIDs []string) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	payload := struct {
		IDs []string `json:"ids"`
	}{IDs: expenseIDs}
	return rest.doRequest(ctx, http.MethodPost, "/api/v1/expenses/delete", nil, payload, nil)
}

// --- BUDGET --- //

func (rest *RestStorage) SaveBudgets(ctx context.Context, plans []finance.BudgetPlan) error {
	if len(plans) == 0 {
		return nil
	}
	wires := make([]wireBudget, 0, len(plans))
	for _, plan := range plans {
		wires = append(wires, toWireBudget(plan))
	}
	return rest.doRequest(ctx, http.MethodPut, "/api/v1/budgets", nil, wires, nil)
}

func (rest *RestStorage) GetBudgets(ctx context.Context, accountID string, category string, period finance.Period) ([]finance.BudgetPlan, error) {
	var wires []wireBudget
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/budgets", filterQuery(period, category), nil, &wires); err != nil {
		return nil, err
	}
	plans := make([]finance.BudgetPlan, 0, len(wires))
	for _, wire := range wires {
		plan, err := wire.toPlan()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (rest *RestStorage) GetBudgetById(ctx context.Context, accountID string, budgetID string) (finance.BudgetPlan, error) {
	var wire wireBudget
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/budgets/"+url.PathEscape(budgetID), nil, nil, &wire); err != nil {
		return finance.BudgetPlan{}, err
	}
	plan, err := wire.toPlan()
	if err != nil {
		return finance.BudgetPlan{}, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
	}
	return plan, nil
}

func (rest *RestStorage) UpdateBudgetLimit(ctx context.Context, accountID string, budgetID string, limit decimal.Decimal) error {
	payload := struct {
		MoneyLimit string `json:"money_limit"`
	}{MoneyLimit: limit.String()}
	return rest.doRequest(ctx, http.MethodPatch, "/api/v1/budgets/"+url.PathEscape(budgetID)+"/limit", nil, payload, nil)
}

// --- GOAL --- //

func (rest *RestStorage) SaveGoal(ctx context.Context, goal finance.Goal) error {
	return rest.doRequest(ctx, http.MethodPost, "/api/v1/goals", nil, toWireGoal(goal), nil)
}

func (rest *RestStorage) GetGoalById(ctx context.Context, accountID string, goalID string) (finance.Goal, error) {
	var wire wireGoal
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/goals/"+url.PathEscape(goalID), nil, nil, &wire); err != nil {
		return finance.Goal{}, err
	}
	goal, err := wire.toGoal()
	if err != nil {
		return finance.Goal{}, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
	}
	return goal, nil
}

func (rest *RestStorage) GetGoals(ctx context.Context, accountID string) ([]finance.Goal, error) {
	var wires []wireGoal
	if err := rest.doRequest(ctx, http.MethodGet, "/api/v1/goals", nil, nil, &wires); err != nil {
		return nil, err
	}
	goals := make([]finance.Goal, 0, len(wires))
	for _, wire := range wires {
		goal, err := wire.toGoal()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

func (rest *RestStorage) UpdateGoal(ctx context.Context, goal finance.Goal) error {
	return rest.doRequest(ctx, http.MethodPut, "/api/v1/goals/"+url.PathEscape(goal.ID), nil, toWireGoal(goal), nil)
}

func (rest *RestStorage) DeleteGoal(ctx context.Context, accountID string, goalID string) error {
	return rest.doRequest(ctx, http.MethodDelete, "/api/v1/goals/"+url.PathEscape(goalID), nil, nil, nil)
}
