package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xcafe-io/iz"
	"github.com/google/uuid"
	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/contextutil"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/moneyfi/backend/logging"
)

type Api struct {
	Service *finance.FinanceTracker
}

func NewApi(service *finance.FinanceTracker) *Api {
	return &Api{
		Service: service,
	}
}

// authorize resolves the Authorization header to an account and builds the
// request context: trace id for the logs, token for the remote backend.
func (api *Api) authorize(r *iz.Request) (context.Context, string, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return nil, "", fmt.Errorf("%w: Authorization header is required", appErrors.ErrAuth)
	}

	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())
	ctx = contextutil.WithToken(ctx, token)

	accountID, err := api.Service.CheckSession(ctx, token)
	if err != nil {
		return nil, "", err
	}
	return ctx, accountID, nil
}

// --- INCOME HANDLERS --- //

func (api *Api) SaveIncomeHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var saveIncomeReq SaveIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&saveIncomeReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	amount, err := parseAmount(saveIncomeReq.Amount, "income amount")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	date, err := parseDate(saveIncomeReq.Date, "income date")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	record, err := api.Service.SaveIncome(ctx, accountID, finance.IncomeRequest{
		Source:    saveIncomeReq.Source,
		Amount:    amount,
		Date:      date,
		Category:  saveIncomeReq.Category,
		Recurring: saveIncomeReq.Recurring,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to save income: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(201).JSON(IncomeToHttp(record))
}

func (api *Api) GetIncomeDetailsHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period, err := parsePeriod(r.PathValue("month"), r.PathValue("year"))
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	filter := finance.IncomeFilter{
		Period:   period,
		Category: r.PathValue("category"),
		Deleted:  r.PathValue("deleted") == "true",
	}
	records, err := api.Service.GetIncomes(ctx, accountID, filter)
	if err != nil {
		msg := fmt.Sprintf("failed to get incomes: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ListIncomesResponse{Incomes: make([]IncomeItem, 0, len(records))}
	for _, record := range records {
		resp.Incomes = append(resp.Incomes, IncomeToHttp(record))
	}
	return iz.Respond().Status(200).JSON(resp)
}

// GetDeletedIncomeDetailsHandler backs the revert dialog: every soft-deleted
// record, all periods and categories.
func (api *Api) GetDeletedIncomeDetailsHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	filter := finance.IncomeFilter{Category: finance.CategoryAll, Deleted: true}
	records, err := api.Service.GetIncomes(ctx, accountID, filter)
	if err != nil {
		msg := fmt.Sprintf("failed to get deleted incomes: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ListIncomesResponse{Incomes: make([]IncomeItem, 0, len(records))}
	for _, record := range records {
		resp.Incomes = append(resp.Incomes, IncomeToHttp(record))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) TotalIncomeHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period, err := parsePeriod(r.PathValue("month"), r.PathValue("year"))
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	total, err := api.Service.TotalIncome(ctx, accountID, period, finance.CategoryAll)
	if err != nil {
		msg := fmt.Sprintf("failed to get total income: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(TotalResponse{Total: total.StringFixed(2)})
}

func (api *Api) AvailableBalanceHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	balance, err := api.Service.AvailableBalance(ctx, accountID)
	if err != nil {
		msg := fmt.Sprintf("failed to get available balance: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(BalanceResponse{AvailableBalance: balance.StringFixed(2)})
}

func (api *Api) UpdateIncomeHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var updateIncomeReq SaveIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&updateIncomeReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	amount, err := parseAmount(updateIncomeReq.Amount, "income amount")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	date, err := parseDate(updateIncomeReq.Date, "income date")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	record, changed, err := api.Service.UpdateIncome(ctx, accountID, r.PathValue("id"), finance.IncomeRequest{
		Source:    updateIncomeReq.Source,
		Amount:    amount,
		Date:      date,
		Category:  updateIncomeReq.Category,
		Recurring: updateIncomeReq.Recurring,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to update income: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	if !changed {
		return iz.Respond().Status(200).JSON(MessageResponse{Message: "no changes to update"})
	}
	return iz.Respond().Status(200).JSON(IncomeToHttp(record))
}

func (api *Api) DeleteIncomeHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	if err := api.Service.SoftDeleteIncome(ctx, accountID, r.PathValue("id")); err != nil {
		msg := fmt.Sprintf("failed to delete income: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "income deleted"})
}

func (api *Api) RevertIncomeHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	if err := api.Service.RevertIncome(ctx, accountID, r.PathValue("id")); err != nil {
		msg := fmt.Sprintf("failed to revert income: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "income reverted"})
}

// IncomeDeleteCheckHandler and IncomeUpdateCheckHandler back the dashboard's
// confirmation dialogs. They only report; the authoritative check re-runs
// inside the mutation.
func (api *Api) IncomeDeleteCheckHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var checkReq IncomeCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&checkReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	allowed, err := api.Service.IncomeDeleteCheck(ctx, accountID, checkReq.ID)
	if err != nil {
		msg := fmt.Sprintf("failed to run income delete check: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(CheckResponse{Allowed: allowed})
}

func (api *Api) IncomeUpdateCheckHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var checkReq IncomeCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&checkReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	amount, err := parseAmount(checkReq.Amount, "income amount")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	date, err := parseDate(checkReq.Date, "income date")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	allowed, err := api.Service.IncomeUpdateCheck(ctx, accountID, checkReq.ID, finance.IncomeRequest{
		Amount: amount,
		Date:   date,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to run income update check: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(CheckResponse{Allowed: allowed})
}

// --- EXPENSE HANDLERS --- //

func (api *Api) SaveExpenseHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var saveExpenseReq SaveExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&saveExpenseReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	amount, err := parseAmount(saveExpenseReq.Amount, "expense amount")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	date, err := parseDate(saveExpenseReq.Date, "expense date")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	record, err := api.Service.SaveExpense(ctx, accountID, finance.ExpenseRequest{
		Amount:      amount,
		Date:        date,
		Category:    saveExpenseReq.Category,
		Description: saveExpenseReq.Description,
		Recurring:   saveExpenseReq.Recurring,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to save expense: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(201).JSON(ExpenseToHttp(record))
}

func (api *Api) GetExpensesHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period, err := parsePeriod(r.PathValue("month"), r.PathValue("year"))
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	filter := finance.ExpenseFilter{
		Period:   period,
		Category: r.PathValue("category"),
	}
	records, err := api.Service.GetExpenses(ctx, accountID, filter)
	if err != nil {
		msg := fmt.Sprintf("failed to get expenses: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ListExpensesResponse{Expenses: make([]ExpenseItem, 0, len(records))}
	for _, record := range records {
		resp.Expenses = append(resp.Expenses, ExpenseToHttp(record))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) TotalExpenseHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period, err := parsePeriod(r.PathValue("month"), r.PathValue("year"))
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	total, err := api.Service.TotalExpense(ctx, accountID, period, finance.CategoryAll)
	if err != nil {
		msg := fmt.Sprintf("failed to get total expense: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(TotalResponse{Total: total.StringFixed(2)})
}

func (api *Api) UpdateExpenseHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var updateExpenseReq SaveExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&updateExpenseReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	amount, err := parseAmount(updateExpenseReq.Amount, "expense amount")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	date, err := parseDate(updateExpenseReq.Date, "expense date")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	record, changed, err := api.Service.UpdateExpense(ctx, accountID, r.PathValue("id"), finance.ExpenseRequest{
		Amount:      amount,
		Date:        date,
		Category:    updateExpenseReq.Category,
		Description: updateExpenseReq.Description,
		Recurring:   updateExpenseReq.Recurring,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to update expense: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	if !changed {
		return iz.Respond().Status(200).JSON(MessageResponse{Message: "no changes to update"})
	}
	return iz.Respond().Status(200).JSON(ExpenseToHttp(record))
}

// DeleteExpensesHandler takes a JSON array of ids; the dashboard deletes one
// row at a time but sends it as a batch of one.
func (api *Api) DeleteExpensesHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var expenseIDs []string
	if err := json.NewDecoder(r.Body).Decode(&expenseIDs); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}
	if len(expenseIDs) == 0 {
		return iz.Respond().Status(400).Text("no expense ids given")
	}

	if err := api.Service.DeleteExpenses(ctx, accountID, expenseIDs); err != nil {
		msg := fmt.Sprintf("failed to delete expenses: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "expenses deleted"})
}

// --- BUDGET HANDLERS --- //

func (api *Api) SaveBudgetHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var saveBudgetReq SaveBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&saveBudgetReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	totalBudget, err := parseAmount(saveBudgetReq.TotalBudget, "total budget")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period := finance.Period{Month: saveBudgetReq.Month, Year: saveBudgetReq.Year}
	plans, err := api.Service.SaveBudget(ctx, accountID, totalBudget, period)
	if err != nil {
		msg := fmt.Sprintf("failed to save budget: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ListBudgetDetailsResponse{Budgets: make([]BudgetDetailsItem, 0, len(plans))}
	for _, plan := range plans {
		resp.Budgets = append(resp.Budgets, BudgetDetailsToHttp(finance.BudgetDetails{
			BudgetPlan: plan,
			Remaining:  plan.MoneyLimit,
		}))
	}
	return iz.Respond().Status(201).JSON(resp)
}

func (api *Api) GetBudgetDetailsHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period, err := parsePeriod(r.PathValue("month"), r.PathValue("year"))
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	details, err := api.Service.BudgetDetails(ctx, accountID, r.PathValue("category"), period)
	if err != nil {
		msg := fmt.Sprintf("failed to get budget details: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ListBudgetDetailsResponse{Budgets: make([]BudgetDetailsItem, 0, len(details))}
	for _, detail := range details {
		resp.Budgets = append(resp.Budgets, BudgetDetailsToHttp(detail))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) UpdateBudgetHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var updateBudgetReq UpdateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&updateBudgetReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}
	if len(updateBudgetReq.Budgets) == 0 {
		return iz.Respond().Status(400).Text("no budget updates given")
	}

	updates := make([]finance.BudgetLimitUpdate, 0, len(updateBudgetReq.Budgets))
	for _, item := range updateBudgetReq.Budgets {
		limit, err := parseAmount(item.MoneyLimit, "budget limit")
		if err != nil {
			return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
		}
		updates = append(updates, finance.BudgetLimitUpdate{ID: item.ID, MoneyLimit: limit})
	}

	applied, err := api.Service.UpdateBudgets(ctx, accountID, updates)
	if err != nil {
		msg := fmt.Sprintf("failed to update budgets: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	if applied == 0 {
		return iz.Respond().Status(200).JSON(MessageResponse{Message: "no changes to update"})
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: fmt.Sprintf("%d budget(s) updated", applied)})
}

// --- GOAL HANDLERS --- //

func (api *Api) SaveGoalHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var saveGoalReq SaveGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&saveGoalReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	request, errResp := goalRequestFromHttp(saveGoalReq)
	if errResp != nil {
		return errResp
	}

	details, err := api.Service.SaveGoal(ctx, accountID, request)
	if err != nil {
		msg := fmt.Sprintf("failed to save goal: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(201).JSON(GoalToHttp(details))
}

func goalRequestFromHttp(saveGoalReq SaveGoalRequest) (finance.GoalRequest, iz.Responder) {
	current, err := parseAmount(saveGoalReq.CurrentAmount, "goal current amount")
	if err != nil {
		return finance.GoalRequest{}, iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	target, err := parseAmount(saveGoalReq.TargetAmount, "goal target amount")
	if err != nil {
		return finance.GoalRequest{}, iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	deadline, err := parseDate(saveGoalReq.Deadline, "goal deadline")
	if err != nil {
		return finance.GoalRequest{}, iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}
	return finance.GoalRequest{
		Name:          saveGoalReq.Name,
		CurrentAmount: current,
		TargetAmount:  target,
		Deadline:      deadline,
		Category:      saveGoalReq.Category,
	}, nil
}

func (api *Api) GetGoalDetailsHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	goals, err := api.Service.GetGoals(ctx, accountID)
	if err != nil {
		msg := fmt.Sprintf("failed to get goals: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ListGoalsResponse{Goals: make([]GoalItem, 0, len(goals))}
	for _, goal := range goals {
		resp.Goals = append(resp.Goals, GoalToHttp(goal))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) AddAmountHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	amount, err := parseAmount(r.PathValue("amount"), "amount")
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	details, err := api.Service.AddAmount(ctx, accountID, r.PathValue("id"), amount)
	if err != nil {
		msg := fmt.Sprintf("failed to add amount to goal: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(GoalToHttp(details))
}

func (api *Api) UpdateGoalHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	var updateGoalReq SaveGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&updateGoalReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	request, errResp := goalRequestFromHttp(updateGoalReq)
	if errResp != nil {
		return errResp
	}

	details, changed, err := api.Service.UpdateGoal(ctx, accountID, r.PathValue("id"), request)
	if err != nil {
		msg := fmt.Sprintf("failed to update goal: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	if !changed {
		return iz.Respond().Status(200).JSON(MessageResponse{Message: "no changes to update"})
	}
	return iz.Respond().Status(200).JSON(GoalToHttp(details))
}

func (api *Api) DeleteGoalHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	if err := api.Service.DeleteGoal(ctx, accountID, r.PathValue("id")); err != nil {
		msg := fmt.Sprintf("failed to delete goal: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "goal deleted"})
}

func (api *Api) TotalTargetGoalHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	total, err := api.Service.TotalTargetGoalAmount(ctx, accountID)
	if err != nil {
		msg := fmt.Sprintf("failed to get total goal target: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(TotalResponse{Total: total.StringFixed(2)})
}

func (api *Api) TotalCurrentGoalHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	total, err := api.Service.TotalCurrentGoalAmount(ctx, accountID)
	if err != nil {
		msg := fmt.Sprintf("failed to get total goal current: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(TotalResponse{Total: total.StringFixed(2)})
}

// --- SUMMARY HANDLER --- //

func (api *Api) PeriodSummaryHandler(r *iz.Request) iz.Responder {
	ctx, accountID, err := api.authorize(r)
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	period, err := parsePeriod(r.PathValue("month"), r.PathValue("year"))
	if err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	aggregate, err := api.Service.PeriodSummary(ctx, accountID, period)
	if err != nil {
		logging.Logger.Errorf("failed to build period summary: %v", err)
		msg := fmt.Sprintf("failed to build period summary: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(SummaryToHttp(aggregate))
}
