package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/0xcafe-io/iz"
	"github.com/moneyfi/backend/api"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/moneyfi/backend/internal/storage"
	"github.com/moneyfi/backend/logging"
	"github.com/rs/cors"
	"github.com/subosito/gotenv"
)

var ft finance.FinanceTracker // Global

var corsConf = cors.New(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	AllowedHeaders:   []string{"Authorization", "Content-Type"},
	AllowCredentials: true,
})

// newStorage picks the backend from DATA_BACKEND: "mysql" (default),
// "remote" for the REST record store, "memory" for local runs.
func newStorage() (finance.Storage, error) {
	switch os.Getenv("DATA_BACKEND") {
	case "remote":
		return storage.NewRestStorage()
	case "memory":
		return storage.NewInMemoryStorage(), nil
	default:
		db, err := storage.Init()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return storage.NewMySQLStorage(db), nil
	}
}

func main() {
	gotenv.Load()

	if err := logging.Init("debug"); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return
	}

	logging.Logger.Info("application starting...")

	// The allocation table is a compile-time constant; a table that does not
	// close to 100% corrupts every budget it produces.
	if err := finance.ValidateAllocations(); err != nil {
		logging.Logger.Fatalf("invalid budget allocation table: %v", err)
	}

	storageInstance, err := newStorage()
	if err != nil {
		logging.Logger.Errorf("failed to initialize storage: %v", err)
		return
	}
	logging.Logger.Infof("using '%s' storage backend", storageInstance.GetStorageType())

	ft = finance.NewFinanceTracker(storageInstance)

	server := http.NewServeMux()
	api := api.NewApi(&ft)

	// INCOME ENDPOINTS.
	server.HandleFunc("POST /api/v1/income/saveIncome", iz.Bind(api.SaveIncomeHandler))                                       // Create Income
	server.HandleFunc("GET /api/v1/income/getIncomeDetails/{month}/{year}/{category}/{deleted}", iz.Bind(api.GetIncomeDetailsHandler)) // Get Incomes with filters
	server.HandleFunc("GET /api/v1/income/getDeletedIncomeDetails", iz.Bind(api.GetDeletedIncomeDetailsHandler))              // Get Soft-Deleted Incomes
	server.HandleFunc("GET /api/v1/income/totalIncome/{month}/{year}", iz.Bind(api.TotalIncomeHandler))                       // Total Income of period
	server.HandleFunc("GET /api/v1/income/availableBalance", iz.Bind(api.AvailableBalanceHandler))                            // Available Balance
	server.HandleFunc("PUT /api/v1/income/{id}", iz.Bind(api.UpdateIncomeHandler))                                            // Update Income
	server.HandleFunc("DELETE /api/v1/income/{id}", iz.Bind(api.DeleteIncomeHandler))                                         // Soft-Delete Income
	server.HandleFunc("GET /api/v1/income/incomeRevert/{id}", iz.Bind(api.RevertIncomeHandler))                               // Revert Soft-Deleted Income
	server.HandleFunc("POST /api/v1/income/incomeDeleteCheck", iz.Bind(api.IncomeDeleteCheckHandler))                         // Pre-check for delete dialog
	server.HandleFunc("POST /api/v1/income/incomeUpdateCheck", iz.Bind(api.IncomeUpdateCheckHandler))                         // Pre-check for update dialog

	// EXPENSE ENDPOINTS.
	server.HandleFunc("POST /api/v1/expense/saveExpense", iz.Bind(api.SaveExpenseHandler))                           // Create Expense
	server.HandleFunc("GET /api/v1/expense/getExpenses/{month}/{year}/{category}", iz.Bind(api.GetExpensesHandler))  // Get Expenses with filters
	server.HandleFunc("GET /api/v1/expense/totalExpense/{month}/{year}", iz.Bind(api.TotalExpenseHandler))           // Total Expense of period
	server.HandleFunc("PUT /api/v1/expense/{id}", iz.Bind(api.UpdateExpenseHandler))                                 // Update Expense
	server.HandleFunc("DELETE /api/v1/expense", iz.Bind(api.DeleteExpensesHandler))                                  // Delete Expenses (batch of ids)

	// BUDGET ENDPOINTS.
	server.HandleFunc("POST /api/v1/budget/saveBudget", iz.Bind(api.SaveBudgetHandler))                                          // Allocate Budget over categories
	server.HandleFunc("GET /api/v1/budget/getBudgetDetails/{category}/{month}/{year}", iz.Bind(api.GetBudgetDetailsHandler))     // Get Budget Details
	server.HandleFunc("PUT /api/v1/budget/updateBudget", iz.Bind(api.UpdateBudgetHandler))                                       // Update Budget Limits

	// GOAL ENDPOINTS.
	server.HandleFunc("POST /api/v1/goal/saveGoal", iz.Bind(api.SaveGoalHandler))                             // Create Goal
	server.HandleFunc("GET /api/v1/goal/getGoalDetails", iz.Bind(api.GetGoalDetailsHandler))                  // Get Goals
	server.HandleFunc("POST /api/v1/goal/{id}/addAmount/{amount}", iz.Bind(api.AddAmountHandler))             // Fund Goal
	server.HandleFunc("PUT /api/v1/goal/{id}", iz.Bind(api.UpdateGoalHandler))                                // Update Goal
	server.HandleFunc("DELETE /api/v1/goal/{id}", iz.Bind(api.DeleteGoalHandler))                             // Delete Goal
	server.HandleFunc("GET /api/v1/goal/totalTargetGoalIncome", iz.Bind(api.TotalTargetGoalHandler))          // Sum of goal targets
	server.HandleFunc("GET /api/v1/goal/totalCurrentGoalIncome", iz.Bind(api.TotalCurrentGoalHandler))        // Sum of goal funds

	// SUMMARY ENDPOINT.
	server.HandleFunc("GET /api/v1/summary/{month}/{year}", iz.Bind(api.PeriodSummaryHandler)) // Overview aggregate

	port := os.Getenv("APP_PORT")
	if port == "" {
		logging.Logger.Info("APP_PORT environment variable not set, using default port 8080")
		port = "8080"
	}
	fmt.Println("Starting server on port: ", port)
	handlerwithCors := corsConf.Handler(server)
	err = http.ListenAndServe(":"+port, handlerwithCors) // Start the server
	if err != nil {
		logging.Logger.Errorf("failed to start server: %v", err)
		return
	}
}
