package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appErrors "github.com/moneyfi/backend/errors"
	"github.com/moneyfi/backend/internal/contextutil"
	"github.com/moneyfi/backend/internal/finance"
	"github.com/moneyfi/backend/logging"
	"github.com/shopspring/decimal"

	"github.com/go-sql-driver/mysql"
)

// --- INIT START --- //

func Init() (*sql.DB, error) {
	var db *sql.DB
	var err error
	var dbname string

	username := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	dbname = os.Getenv("DB_NAME")
	fullDsn := os.Getenv("FULL_DSN")

	if dbname == "" {
		dbname = "moneyfi"
	}

	var adminDsn string
	if fullDsn != "" {
		parts := strings.Split(fullDsn, "/")
		adminDsn = strings.Join(parts[:len(parts)-1], "/") + "/"
	} else {
		if username == "" || password == "" || host == "" || port == "" {
			return nil, fmt.Errorf("missing required DB environment variables")
		}
		adminDsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true", username, password, host, port)
	}

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", adminDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin mysql handle: %v", err)
	}
	connected := false
	for i := 0; i < 15; i++ {
		if err := adminDb.Ping(); err == nil {
			connected = true
			break
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/15)", i+1)
		time.Sleep(3 * time.Second)
	}
	if !connected {
		return nil, fmt.Errorf("database unreachable after multiple attempts")
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRow(checkDbnameExistQuery, dbname).Scan(&dbnameExistence)

	if err == sql.ErrNoRows {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;", dbname)
		if _, err := adminDb.Exec(createDbSql); err != nil {
			adminDb.Close()
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	} else if err != nil {
		adminDb.Close()
		return nil, fmt.Errorf("failed to check database existence: %v", err)
	}

	adminDb.Close()

	var finalDsn string
	if fullDsn != "" {
		finalDsn = fullDsn
	} else {
		finalDsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", username, password, host, port, dbname)
	}

	logging.Logger.Info("Connecting to database...")
	db, err = sql.Open("mysql", finalDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %v", err)
	}

	if _, err := db.Exec("SET GLOBAL time_zone = '+00:00'"); err != nil {
		logging.Logger.Warn("failed to set database timezone(UTC+0)")
	}

	logging.Logger.Info("Connected to database successfully")
	logging.Logger.Info("Running migrations...")

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	migrationFiles, err := getMigrationFiles("db/migrations")
	if err != nil {
		return fmt.Errorf("failed to get migration files: %v", err)
	}

	lastAppliedMigration, err := getLastAppliedMigration(db)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration name: %v", err)
	}

	newMigrations := filterNewMigrations(migrationFiles, lastAppliedMigration)

	if len(newMigrations) == 0 {
		logging.Logger.Info("no new migration")
		return nil
	}

	for _, migrationFile := range newMigrations {
		logging.Logger.Info("applying migration: ", migrationFile)
		migrationContent, err := os.ReadFile(filepath.Join("db/migrations/", migrationFile))
		if err != nil {
			return fmt.Errorf("failed to read this '%s' migration file, error: %v", migrationFile, err)
		}

		err = applyMigration(db, migrationFile, string(migrationContent))
		if err != nil {
			return fmt.Errorf("failed to apply this '%s' migration file, error: %v", migrationFile, err)
		}
	}

	logging.Logger.Info("all migrations applied successfully")
	return nil
}

func getMigrationFiles(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	return migrationFiles, nil
}

func getLastAppliedMigration(db *sql.DB) (string, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS migration (
        id INT AUTO_INCREMENT PRIMARY KEY,
        migration_name VARCHAR(255) NOT NULL UNIQUE,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );`)

	if err != nil {
		return "", err
	}

	var lastMigration string
	err = db.QueryRow("SELECT migration_name FROM migration ORDER BY migration_name DESC LIMIT 1").Scan(&lastMigration)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return lastMigration, err
}

func filterNewMigrations(all []string, lastApplied string) []string {
	if lastApplied == "" {
		return all
	}

	var result []string
	for _, migration := range all {
		if migration > lastApplied {
			result = append(result, migration)
		}
	}
	return result
}

func applyMigration(db *sql.DB, name, sqlContent string) error {
	txn, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	statements := strings.Split(sqlContent, ";")

	for _, statement := range statements {
		trimmedStmt := strings.TrimSpace(statement)
		if trimmedStmt == "" {
			continue
		}

		if _, err := txn.Exec(trimmedStmt); err != nil {
			txn.Rollback()
			return fmt.Errorf("migration statement failed: %w\nStatement: %s", err, trimmedStmt)
		}
	}

	if _, err := txn.Exec("INSERT INTO migration (migration_name) VALUES (?)", name); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to record migration name: %w", err)
	}

	return txn.Commit()
}

// --- INIT END --- //

type MySQLStorage struct {
	db *sql.DB
}

func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

func (mySql *MySQLStorage) GetStorageType() string {
	return "mysql"
}

// CheckSession treats the bearer token as the account key. Session issuing and
// validation live with the identity collaborator, not in this service.
func (mySql *MySQLStorage) CheckSession(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: empty token", appErrors.ErrAuth)
	}
	return token, nil
}

func isDuplicateEntry(err error) bool {
	mysqlErr, ok := err.(*mysql.MySQLError)
	return ok && mysqlErr.Number == 1062
}

// periodClause appends MONTH/YEAR predicates on a DATE column for a non-zero
// period. The returned fragment starts with " AND".
func periodClause(column string, period finance.Period, args []any) (string, []any) {
	clause := ""
	if period.Month != 0 {
		clause += fmt.Sprintf(" AND MONTH(%s) = ?", column)
		args = append(args, period.Month)
	}
	if period.Year != 0 {
		clause += fmt.Sprintf(" AND YEAR(%s) = ?", column)
		args = append(args, period.Year)
	}
	return clause, args
}

func categoryClause(filter string, args []any) (string, []any) {
	if filter == "" || filter == finance.CategoryAll {
		return "", args
	}
	return " AND category = ?", append(args, filter)
}

// --- INCOME --- //

func (mySql *MySQLStorage) SaveIncome(ctx context.Context, record finance.IncomeRecord) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO income (id, source, amount, date, category, recurring, deleted, version, created_at, updated_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);"
	_, err := mySql.db.ExecContext(ctx, query, record.ID, record.Source, record.Amount.String(), record.Date, record.Category, record.Recurring, record.Deleted, record.Version, record.CreatedAt, record.UpdatedAt, record.CreatedBy)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: income %s", appErrors.ErrConflict, record.ID)
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save income in Storage.SaveIncome() | Error: %v", traceID, err)
		return fmt.Errorf("%w: save income: %v", appErrors.ErrInternal, err)
	}
	return nil
}

func (mySql *MySQLStorage) GetIncomeById(ctx context.Context, accountID string, incomeID string) (finance.IncomeRecord, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, source, amount, date, category, recurring, deleted, version, created_at, updated_at, created_by FROM income WHERE id = ? AND created_by = ?;"
	var row dbIncomeRow
	err := mySql.db.QueryRowContext(ctx, query, incomeID, accountID).Scan(
		&row.ID, &row.Source, &row.Amount, &row.Date, &row.Category, &row.Recurring, &row.Deleted, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return finance.IncomeRecord{}, fmt.Errorf("%w: income %s", appErrors.ErrNotFound, incomeID)
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get income in Storage.GetIncomeById() | Error: %v", traceID, err)
		return finance.IncomeRecord{}, fmt.Errorf("%w: get income: %v", appErrors.ErrInternal, err)
	}
	return row.toRecord()
}

func (mySql *MySQLStorage) GetFilteredIncomes(ctx context.Context, accountID string, filter finance.IncomeFilter) ([]finance.IncomeRecord, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, source, amount, date, category, recurring, deleted, version, created_at, updated_at, created_by FROM income WHERE created_by = ? AND deleted = ?"
	args := []any{accountID, filter.Deleted}
	clause, args := periodClause("date", filter.Period, args)
	query += clause
	clause, args = categoryClause(filter.Category, args)
	query += clause
	query += " ORDER BY date DESC;"

	rows, err := mySql.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to list incomes in Storage.GetFilteredIncomes() | Error: %v", traceID, err)
		return nil, fmt.Errorf("%w: list incomes: %v", appErrors.ErrInternal, err)
	}
	defer rows.Close()

	var records []finance.IncomeRecord
	for rows.Next() {
		var row dbIncomeRow
		if err := rows.Scan(&row.ID, &row.Source, &row.Amount, &row.Date, &row.Category, &row.Recurring, &row.Deleted, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan income row in Storage.GetFilteredIncomes() | Error: %v", traceID, err)
			return nil, fmt.Errorf("%w: scan income: %v", appErrors.ErrInternal, err)
		}
		record, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate incomes: %v", appErrors.ErrInternal, err)
	}
	return records, nil
}

func (mySql *MySQLStorage) UpdateIncome(ctx context.Context, record finance.IncomeRecord) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "UPDATE income SET source = ?, amount = ?, date = ?, category = ?, recurring = ?, updated_at = ?, version = version + 1 WHERE id = ? AND created_by = ? AND version = ?;"
	res, err := mySql.db.ExecContext(ctx, query, record.Source, record.Amount.String(), record.Date, record.Category, record.Recurring, record.UpdatedAt, record.ID, record.CreatedBy, record.Version)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update income in Storage.UpdateIncome() | Error: %v", traceID, err)
		return fmt.Errorf("%w: update income: %v", appErrors.ErrInternal, err)
	}
	return mySql.checkVersionedWrite(ctx, res, "income", record.ID, record.CreatedBy)
}

func (mySql *MySQLStorage) SetIncomeDeleted(ctx context.Context, accountID string, incomeID string, deleted bool) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "UPDATE income SET deleted = ?, updated_at = ?, version = version + 1 WHERE id = ? AND created_by = ?;"
	res, err := mySql.db.ExecContext(ctx, query, deleted, time.Now().UTC(), incomeID, accountID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to flag income in Storage.SetIncomeDeleted() | Error: %v", traceID, err)
		return fmt.Errorf("%w: flag income: %v", appErrors.ErrInternal, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: flag income: %v", appErrors.ErrInternal, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: income %s", appErrors.ErrNotFound, incomeID)
	}
	return nil
}

// checkVersionedWrite classifies a zero-row versioned UPDATE: missing row means
// not found, an existing row means the caller's version went stale.
func (mySql *MySQLStorage) checkVersionedWrite(ctx context.Context, res sql.Result, table string, id string, accountID string) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: check affected rows: %v", appErrors.ErrInternal, err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var existing string
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ? AND created_by = ?;", table)
	err = mySql.db.QueryRowContext(ctx, query, id, accountID).Scan(&existing)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s %s", appErrors.ErrNotFound, table, id)
	}
	if err != nil {
		return fmt.Errorf("%w: check %s existence: %v", appErrors.ErrInternal, table, err)
	}
	return fmt.Errorf("%w: %s %s version is stale", appErrors.ErrConflict, table, id)
}

func (mySql *MySQLStorage) periodTotals(ctx context.Context, accountID string, period finance.Period, excludeIncomeID string) (decimal.Decimal, decimal.Decimal, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	incomeQuery := "SELECT COALESCE(SUM(amount), 0) FROM income WHERE created_by = ? AND deleted = 0 AND id != ?"
	incomeArgs := []any{accountID, excludeIncomeID}
	clause, incomeArgs := periodClause("date", period, incomeArgs)
	incomeQuery += clause + ";"

	var incomeRaw string
	if err := mySql.db.QueryRowContext(ctx, incomeQuery, incomeArgs...).Scan(&incomeRaw); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to sum incomes in Storage.periodTotals() | Error: %v", traceID, err)
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: sum incomes: %v", appErrors.ErrInternal, err)
	}
	income, err := decimal.NewFromString(incomeRaw)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: parse income total: %v", appErrors.ErrInternal, err)
	}

	expenseQuery := "SELECT COALESCE(SUM(amount), 0) FROM expense WHERE created_by = ?"
	expenseArgs := []any{accountID}
	clause, expenseArgs = periodClause("date", period, expenseArgs)
	expenseQuery += clause + ";"

	var expenseRaw string
	if err := mySql.db.QueryRowContext(ctx, expenseQuery, expenseArgs...).Scan(&expenseRaw); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to sum expenses in Storage.periodTotals() | Error: %v", traceID, err)
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: sum expenses: %v", appErrors.ErrInternal, err)
	}
	expense, err := decimal.NewFromString(expenseRaw)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: parse expense total: %v", appErrors.ErrInternal, err)
	}

	return income, expense, nil
}

// IncomeUpdateCheck reports whether the record's period still covers its
// expenses when the candidate amount replaces the stored one.
func (mySql *MySQLStorage) IncomeUpdateCheck(ctx context.Context, record finance.IncomeRecord) (bool, error) {
	period := finance.Period{Month: int(record.Date.Month()), Year: record.Date.Year()}
	income, expense, err := mySql.periodTotals(ctx, record.CreatedBy, period, record.ID)
	if err != nil {
		return false, err
	}
	return income.Add(record.Amount).GreaterThanOrEqual(expense), nil
}

// IncomeDeleteCheck reports whether the record's period still covers its
// expenses once the record leaves the aggregates.
func (mySql *MySQLStorage) IncomeDeleteCheck(ctx context.Context, record finance.IncomeRecord) (bool, error) {
	period := finance.Period{Month: int(record.Date.Month()), Year: record.Date.Year()}
	income, expense, err := mySql.periodTotals(ctx, record.CreatedBy, period, record.ID)
	if err != nil {
		return false, err
	}
	return income.GreaterThanOrEqual(expense), nil
}

// --- EXPENSE --- //

func (mySql *MySQLStorage) SaveExpense(ctx context.Context, record finance.ExpenseRecord) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO expense (id, amount, date, category, description, recurring, version, created_at, updated_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);"
	_, err := mySql.db.ExecContext(ctx, query, record.ID, record.Amount.String(), record.Date, record.Category, record.Description, record.Recurring, record.Version, record.CreatedAt, record.UpdatedAt, record.CreatedBy)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: expense %s", appErrors.ErrConflict, record.ID)
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save expense in Storage.SaveExpense() | Error: %v", traceID, err)
		return fmt.Errorf("%w: save expense: %v", appErrors.ErrInternal, err)
	}
	return nil
}

func (mySql *MySQLStorage) GetExpenseById(ctx context.Context, accountID string, expenseID string) (finance.ExpenseRecord, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, amount, date, category, description, recurring, version, created_at, updated_at, created_by FROM expense WHERE id = ? AND created_by = ?;"
	var row dbExpenseRow
	err := mySql.db.QueryRowContext(ctx, query, expenseID, accountID).Scan(
		&row.ID, &row.Amount, &row.Date, &row.Category, &row.Description, &row.Recurring, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return finance.ExpenseRecord{}, fmt.Errorf("%w: expense %s", appErrors.ErrNotFound, expenseID)
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get expense in Storage.GetExpenseById() | Error: %v", traceID, err)
		return finance.ExpenseRecord{}, fmt.Errorf("%w: get expense: %v", appErrors.ErrInternal, err)
	}
	return row.toRecord()
}

func (mySql *MySQLStorage) GetFilteredExpenses(ctx context.Context, accountID string, filter finance.ExpenseFilter) ([]finance.ExpenseRecord, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, amount, date, category, description, recurring, version, created_at, updated_at, created_by FROM expense WHERE created_by = ?"
	args := []any{accountID}
	clause, args := periodClause("date", filter.Period, args)
	query += clause
	clause, args = categoryClause(filter.Category, args)
	query += clause
	query += " ORDER BY date DESC;"

	rows, err := mySql.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to list expenses in Storage.GetFilteredExpenses() | Error: %v", traceID, err)
		return nil, fmt.Errorf("%w: list expenses: %v", appErrors.ErrInternal, err)
	}
	defer rows.Close()

	var records []finance.ExpenseRecord
	for rows.Next() {
		var row dbExpenseRow
		if err := rows.Scan(&row.ID, &row.Amount, &row.Date, &row.Category, &row.Description, &row.Recurring, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan expense row in Storage.GetFilteredExpenses() | Error: %v", traceID, err)
			return nil, fmt.Errorf("%w: scan expense: %v", appErrors.ErrInternal, err)
		}
		record, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate expenses: %v", appErrors.ErrInternal, err)
	}
	return records, nil
}

func (mySql *MySQLStorage) UpdateExpense(ctx context.Context, record finance.ExpenseRecord) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "UPDATE expense SET amount = ?, date = ?, category = ?, description = ?, recurring = ?, updated_at = ?, version = version + 1 WHERE id = ? AND created_by = ? AND version = ?;"
	res, err := mySql.db.ExecContext(ctx, query, record.Amount.String(), record.Date, record.Category, record.Description, record.Recurring, record.UpdatedAt, record.ID, record.CreatedBy, record.Version)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update expense in Storage.UpdateExpense() | Error: %v", traceID, err)
		return fmt.Errorf("%w: update expense: %v", appErrors.ErrInternal, err)
	}
	return mySql.checkVersionedWrite(ctx, res, "expense", record.ID, record.CreatedBy)
}

func (mySql *MySQLStorage) DeleteExpenses(ctx context.Context, accountID string, expenseIDs []string) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	traceID := contextutil.TraceIDFromContext(ctx)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(expenseIDs)), ", ")
	query := fmt.Sprintf("DELETE FROM expense WHERE created_by = ? AND id IN (%s);", placeholders)
	args := make([]any, 0, len(expenseIDs)+1)
	args = append(args, accountID)
	for _, id := range expenseIDs {
		args = append(args, id)
	}

	_, err := mySql.db.ExecContext(ctx, query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete expenses in Storage.DeleteExpenses() | Error: %v", traceID, err)
		return fmt.Errorf("%w: delete expenses: %v", appErrors.ErrInternal, err)
	}
	return nil
}

// --- BUDGET --- //

// SaveBudgets replaces the period's plans inside one transaction so that
// re-allocating a budget is idempotent.
func (mySql *MySQLStorage) SaveBudgets(ctx context.Context, plans []finance.BudgetPlan) error {
	if len(plans) == 0 {
		return nil
	}
	traceID := contextutil.TraceIDFromContext(ctx)

	txn, err := mySql.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin budget transaction: %v", appErrors.ErrInternal, err)
	}

	deleteQuery := "DELETE FROM budget WHERE created_by = ? AND month = ? AND year = ?;"
	if _, err := txn.ExecContext(ctx, deleteQuery, plans[0].CreatedBy, plans[0].Month, plans[0].Year); err != nil {
		txn.Rollback()
		logging.Logger.Errorf("[TraceID=%s] | failed to clear budget period in Storage.SaveBudgets() | Error: %v", traceID, err)
		return fmt.Errorf("%w: clear budget period: %v", appErrors.ErrInternal, err)
	}

	insertQuery := "INSERT INTO budget (id, category, percentage, money_limit, month, year, version, created_at, updated_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);"
	for _, plan := range plans {
		if _, err := txn.ExecContext(ctx, insertQuery, plan.ID, plan.Category, plan.Percentage.String(), plan.MoneyLimit.String(), plan.Month, plan.Year, plan.Version, plan.CreatedAt, plan.UpdatedAt, plan.CreatedBy); err != nil {
			txn.Rollback()
			if isDuplicateEntry(err) {
				return fmt.Errorf("%w: budget for %s already exists", appErrors.ErrConflict, plan.Category)
			}
			logging.Logger.Errorf("[TraceID=%s] | failed to save budget plan in Storage.SaveBudgets() | Error: %v", traceID, err)
			return fmt.Errorf("%w: save budget plan: %v", appErrors.ErrInternal, err)
		}
	}

	return txn.Commit()
}

func (mySql *MySQLStorage) GetBudgets(ctx context.Context, accountID string, category string, period finance.Period) ([]finance.BudgetPlan, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, category, percentage, money_limit, month, year, version, created_at, updated_at, created_by FROM budget WHERE created_by = ?"
	args := []any{accountID}
	if period.Month != 0 {
		query += " AND month = ?"
		args = append(args, period.Month)
	}
	if period.Year != 0 {
		query += " AND year = ?"
		args = append(args, period.Year)
	}
	clause, args := categoryClause(category, args)
	query += clause
	query += " ORDER BY category;"

	rows, err := mySql.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to list budgets in Storage.GetBudgets() | Error: %v", traceID, err)
		return nil, fmt.Errorf("%w: list budgets: %v", appErrors.ErrInternal, err)
	}
	defer rows.Close()

	var plans []finance.BudgetPlan
	for rows.Next() {
		var row dbBudgetRow
		if err := rows.Scan(&row.ID, &row.Category, &row.Percentage, &row.MoneyLimit, &row.Month, &row.Year, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan budget row in Storage.GetBudgets() | Error: %v", traceID, err)
			return nil, fmt.Errorf("%w: scan budget: %v", appErrors.ErrInternal, err)
		}
		plan, err := row.toPlan()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate budgets: %v", appErrors.ErrInternal, err)
	}
	return plans, nil
}

func (mySql *MySQLStorage) GetBudgetById(ctx context.Context, accountID string, budgetID string) (finance.BudgetPlan, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, category, percentage, money_limit, month, year, version, created_at, updated_at, created_by FROM budget WHERE id = ? AND created_by = ?;"
	var row dbBudgetRow
	err := mySql.db.QueryRowContext(ctx, query, budgetID, accountID).Scan(
		&row.ID, &row.Category, &row.Percentage, &row.MoneyLimit, &row.Month, &row.Year, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return finance.BudgetPlan{}, fmt.Errorf("%w: budget %s", appErrors.ErrNotFound, budgetID)
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get budget in Storage.GetBudgetById() | Error: %v", traceID, err)
		return finance.BudgetPlan{}, fmt.Errorf("%w: get budget: %v", appErrors.ErrInternal, err)
	}
	return row.toPlan()
}

func (mySql *MySQLStorage) UpdateBudgetLimit(ctx context.Context, accountID string, budgetID string, limit decimal.Decimal) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "UPDATE budget SET money_limit = ?, updated_at = ?, version = version + 1 WHERE id = ? AND created_by = ?;"
	res, err := mySql.db.ExecContext(ctx, query, limit.String(), time.Now().UTC(), budgetID, accountID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update budget limit in Storage.UpdateBudgetLimit() | Error: %v", traceID, err)
		return fmt.Errorf("%w: update budget limit: %v", appErrors.ErrInternal, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update budget limit: %v", appErrors.ErrInternal, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: budget %s", appErrors.ErrNotFound, budgetID)
	}
	return nil
}

// --- GOAL --- //

func (mySql *MySQLStorage) SaveGoal(ctx context.Context, goal finance.Goal) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	var deadline any
	if !goal.Deadline.IsZero() {
		deadline = goal.Deadline
	}

	query := "INSERT INTO goal (id, name, current_amount, target_amount, deadline, category, version, created_at, updated_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);"
	_, err := mySql.db.ExecContext(ctx, query, goal.ID, goal.Name, goal.CurrentAmount.String(), goal.TargetAmount.String(), deadline, goal.Category, goal.Version, goal.CreatedAt, goal.UpdatedAt, goal.CreatedBy)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: goal %s", appErrors.ErrConflict, goal.ID)
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save goal in Storage.SaveGoal() | Error: %v", traceID, err)
		return fmt.Errorf("%w: save goal: %v", appErrors.ErrInternal, err)
	}
	return nil
}

func (mySql *MySQLStorage) GetGoalById(ctx context.Context, accountID string, goalID string) (finance.Goal, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, name, current_amount, target_amount, deadline, category, version, created_at, updated_at, created_by FROM goal WHERE id = ? AND created_by = ?;"
	var row dbGoalRow
	err := mySql.db.QueryRowContext(ctx, query, goalID, accountID).Scan(
		&row.ID, &row.Name, &row.CurrentAmount, &row.TargetAmount, &row.Deadline, &row.Category, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return finance.Goal{}, fmt.Errorf("%w: goal %s", appErrors.ErrNotFound, goalID)
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get goal in Storage.GetGoalById() | Error: %v", traceID, err)
		return finance.Goal{}, fmt.Errorf("%w: get goal: %v", appErrors.ErrInternal, err)
	}
	return row.toGoal()
}

func (mySql *MySQLStorage) GetGoals(ctx context.Context, accountID string) ([]finance.Goal, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, name, current_amount, target_amount, deadline, category, version, created_at, updated_at, created_by FROM goal WHERE created_by = ? ORDER BY created_at;"
	rows, err := mySql.db.QueryContext(ctx, query, accountID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to list goals in Storage.GetGoals() | Error: %v", traceID, err)
		return nil, fmt.Errorf("%w: list goals: %v", appErrors.ErrInternal, err)
	}
	defer rows.Close()

	var goals []finance.Goal
	for rows.Next() {
		var row dbGoalRow
		if err := rows.Scan(&row.ID, &row.Name, &row.CurrentAmount, &row.TargetAmount, &row.Deadline, &row.Category, &row.Version, &row.CreatedAt, &row.UpdatedAt, &row.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan goal row in Storage.GetGoals() | Error: %v", traceID, err)
			return nil, fmt.Errorf("%w: scan goal: %v", appErrors.ErrInternal, err)
		}
		goal, err := row.toGoal()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInternal, err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate goals: %v", appErrors.ErrInternal, err)
	}
	return goals, nil
}

func (mySql *MySQLStorage) UpdateGoal(ctx context.Context, goal finance.Goal) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	var deadline any
	if !goal.Deadline.IsZero() {
		deadline = goal.Deadline
	}

	query := "UPDATE goal SET name = ?, current_amount = ?, target_amount = ?, deadline = ?, category = ?, updated_at = ?, version = version + 1 WHERE id = ? AND created_by = ? AND version = ?;"
	res, err := mySql.db.ExecContext(ctx, query, goal.Name, goal.CurrentAmount.String(), goal.TargetAmount.String(), deadline, goal.Category, goal.UpdatedAt, goal.ID, goal.CreatedBy, goal.Version)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update goal in Storage.UpdateGoal() | Error: %v", traceID, err)
		return fmt.Errorf("%w: update goal: %v", appErrors.ErrInternal, err)
	}
	return mySql.checkVersionedWrite(ctx, res, "goal", goal.ID, goal.CreatedBy)
}

func (mySql *MySQLStorage) DeleteGoal(ctx context.Context, accountID string, goalID string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "DELETE FROM goal WHERE id = ? AND created_by = ?;"
	res, err := mySql.db.ExecContext(ctx, query, goalID, accountID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete goal in Storage.DeleteGoal() | Error: %v", traceID, err)
		return fmt.Errorf("%w: delete goal: %v", appErrors.ErrInternal, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete goal: %v", appErrors.ErrInternal, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: goal %s", appErrors.ErrNotFound, goalID)
	}
	return nil
}
