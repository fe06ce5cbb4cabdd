/*
Package sqlite provides the SQLite-backed implementation of the caregiving
storage interfaces.

PURPOSE:
  Implements caregiving.Store / caregiving.TxStore plus the plain CRUD
  surface for caregivers, time entries and expenses. A single-household tool
  needs exactly one embedded database file; the same SQL patterns would port
  to PostgreSQL with minor dialect changes.

KEY TABLES:
  pay_periods:  Period records with the open/closed status
  caregivers:   Hourly caregivers (unique name)
  time_entries: Hours worked per caregiver per day
  expenses:     Household expenses per payer and category
  settlements:  At most one row per period (UNIQUE on pay_period_id)

INVARIANT BACKSTOPS:
  - idx_pay_periods_single_open: a partial unique index guaranteeing no two
    rows have status 'open', even if a racing writer slips past the
    transactional check in the period service.
  - settlements.pay_period_id UNIQUE: one settlement per period.

STORAGE CONVENTIONS:
  - Decimals as TEXT (exact; round-trips through shopspring/decimal)
  - Dates as "2006-01-02", timestamps as RFC3339
  - Find and Get helpers return (nil, nil) when the row does not exist
  - IDs are UUIDs, assigned on insert when empty

CONCURRENCY:
  sync.RWMutex plus a single pooled connection. The mutex serializes writers;
  the single connection keeps ":memory:" databases coherent across the pool.
  WAL mode for file databases.

SEE ALSO:
  - caregiving/store.go: Interface definitions
  - caregiving/period.go, caregiving/settlement.go: The consumers
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hearthshare/carebook/caregiving"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ caregiving.TxStore = (*Store)(nil)

// New creates a store backed by the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory databases live per-connection; one connection keeps every
	// caller on the same data.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		is_historical BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Backstop for the single-open-period invariant: at most one row may
	-- carry status 'open', regardless of what the service layer checked.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_pay_periods_single_open
		ON pay_periods(status) WHERE status = 'open';

	CREATE INDEX IF NOT EXISTS idx_pay_periods_dates
		ON pay_periods(start_date, end_date);

	CREATE TABLE IF NOT EXISTS caregivers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		default_hourly_rate TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		pay_period_id TEXT NOT NULL REFERENCES pay_periods(id),
		caregiver_id TEXT NOT NULL REFERENCES caregivers(id),
		date TEXT NOT NULL,
		time_in TEXT NOT NULL DEFAULT '',
		time_out TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		total_pay TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_period
		ON time_entries(pay_period_id);
	CREATE INDEX IF NOT EXISTS idx_time_entries_caregiver
		ON time_entries(caregiver_id);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		pay_period_id TEXT NOT NULL REFERENCES pay_periods(id),
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_by TEXT NOT NULL,
		category TEXT NOT NULL,
		is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
		date_estimated BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_period
		ON expenses(pay_period_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_category
		ON expenses(category);

	CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		pay_period_id TEXT NOT NULL UNIQUE REFERENCES pay_periods(id),
		total_caregiver_cost TEXT NOT NULL,
		total_expenses TEXT NOT NULL,
		party_a_paid TEXT NOT NULL,
		party_b_paid TEXT NOT NULL,
		settlement_amount TEXT NOT NULL,
		direction TEXT NOT NULL,
		carryover_amount TEXT NOT NULL DEFAULT '0',
		final_amount TEXT NOT NULL,
		settled BOOLEAN NOT NULL DEFAULT FALSE,
		settled_at TEXT,
		payment_method TEXT,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryer abstracts *sql.DB and *sql.Tx so the same query helpers serve both
// direct calls and WithTx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS (caregiving.TxStore)
// =============================================================================

// WithTx executes fn within a database transaction. The transaction commits
// only if fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(caregiving.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the transactional view handed to WithTx callbacks. It holds no
// locks of its own; WithTx already holds the write lock.
type txStore struct {
	q *sql.Tx
}

func (t *txStore) FindPeriod(ctx context.Context, id string) (*caregiving.PayPeriod, error) {
	return findPeriod(ctx, t.q, id)
}

func (t *txStore) FindOpenPeriod(ctx context.Context) (*caregiving.PayPeriod, error) {
	return findOpenPeriod(ctx, t.q)
}

func (t *txStore) FindPeriodContaining(ctx context.Context, date time.Time) (*caregiving.PayPeriod, error) {
	return findPeriodContaining(ctx, t.q, date)
}

func (t *txStore) ListPeriods(ctx context.Context) ([]caregiving.PayPeriod, error) {
	return listPeriods(ctx, t.q)
}

func (t *txStore) SavePeriod(ctx context.Context, p *caregiving.PayPeriod) error {
	return savePeriod(ctx, t.q, p)
}

func (t *txStore) UpdatePeriod(ctx context.Context, p *caregiving.PayPeriod) error {
	return updatePeriod(ctx, t.q, p)
}

func (t *txStore) ListTimeEntries(ctx context.Context, periodID string) ([]caregiving.TimeEntry, error) {
	return listTimeEntries(ctx, t.q, periodID)
}

func (t *txStore) ListExpenses(ctx context.Context, periodID string) ([]caregiving.Expense, error) {
	return listExpenses(ctx, t.q, periodID)
}

func (t *txStore) FindSettlement(ctx context.Context, periodID string) (*caregiving.Settlement, error) {
	return findSettlement(ctx, t.q, periodID)
}

func (t *txStore) SaveSettlement(ctx context.Context, settlement *caregiving.Settlement) error {
	return saveSettlement(ctx, t.q, settlement)
}

func (t *txStore) UpdateSettlement(ctx context.Context, settlement *caregiving.Settlement) error {
	return updateSettlement(ctx, t.q, settlement)
}

// =============================================================================
// PAY PERIODS
// =============================================================================

const periodColumns = "id, start_date, end_date, status, is_historical, notes, created_at"

func (s *Store) FindPeriod(ctx context.Context, id string) (*caregiving.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findPeriod(ctx, s.db, id)
}

func (s *Store) FindOpenPeriod(ctx context.Context) (*caregiving.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findOpenPeriod(ctx, s.db)
}

func (s *Store) FindPeriodContaining(ctx context.Context, date time.Time) (*caregiving.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findPeriodContaining(ctx, s.db, date)
}

func (s *Store) ListPeriods(ctx context.Context) ([]caregiving.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPeriods(ctx, s.db)
}

func (s *Store) SavePeriod(ctx context.Context, p *caregiving.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePeriod(ctx, s.db, p)
}

func (s *Store) UpdatePeriod(ctx context.Context, p *caregiving.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePeriod(ctx, s.db, p)
}

func findPeriod(ctx context.Context, q queryer, id string) (*caregiving.PayPeriod, error) {
	return scanPeriod(q.QueryRowContext(ctx,
		"SELECT "+periodColumns+" FROM pay_periods WHERE id = ?", id))
}

func findOpenPeriod(ctx context.Context, q queryer) (*caregiving.PayPeriod, error) {
	return scanPeriod(q.QueryRowContext(ctx,
		"SELECT "+periodColumns+" FROM pay_periods WHERE status = ?", caregiving.PeriodOpen))
}

func findPeriodContaining(ctx context.Context, q queryer, date time.Time) (*caregiving.PayPeriod, error) {
	day := date.Format(dateLayout)
	return scanPeriod(q.QueryRowContext(ctx,
		"SELECT "+periodColumns+" FROM pay_periods WHERE start_date <= ? AND end_date >= ? ORDER BY start_date LIMIT 1",
		day, day))
}

func listPeriods(ctx context.Context, q queryer) ([]caregiving.PayPeriod, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+periodColumns+" FROM pay_periods ORDER BY start_date DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []caregiving.PayPeriod
	for rows.Next() {
		var p caregiving.PayPeriod
		if err := scanPeriodFields(rows, &p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func savePeriod(ctx context.Context, q queryer, p *caregiving.PayPeriod) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO pay_periods (id, start_date, end_date, status, is_historical, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.StartDate.Format(dateLayout),
		p.EndDate.Format(dateLayout),
		p.Status,
		p.IsHistorical,
		p.Notes,
		p.CreatedAt.Format(time.RFC3339),
	)
	if isUniqueViolation(err, "idx_pay_periods_single_open") {
		return caregiving.ErrOpenPeriodExists
	}
	return err
}

func updatePeriod(ctx context.Context, q queryer, p *caregiving.PayPeriod) error {
	res, err := q.ExecContext(ctx, `
		UPDATE pay_periods
		SET start_date = ?, end_date = ?, status = ?, is_historical = ?, notes = ?
		WHERE id = ?`,
		p.StartDate.Format(dateLayout),
		p.EndDate.Format(dateLayout),
		p.Status,
		p.IsHistorical,
		p.Notes,
		p.ID,
	)
	if isUniqueViolation(err, "idx_pay_periods_single_open") {
		return caregiving.ErrOpenPeriodExists
	}
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrPeriodNotFound)
}

func scanPeriod(row *sql.Row) (*caregiving.PayPeriod, error) {
	var p caregiving.PayPeriod
	var start, end, createdAt string
	err := row.Scan(&p.ID, &start, &end, &p.Status, &p.IsHistorical, &p.Notes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.StartDate, _ = time.Parse(dateLayout, start)
	p.EndDate, _ = time.Parse(dateLayout, end)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func scanPeriodFields(rows *sql.Rows, p *caregiving.PayPeriod) error {
	var start, end, createdAt string
	if err := rows.Scan(&p.ID, &start, &end, &p.Status, &p.IsHistorical, &p.Notes, &createdAt); err != nil {
		return err
	}
	p.StartDate, _ = time.Parse(dateLayout, start)
	p.EndDate, _ = time.Parse(dateLayout, end)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return nil
}

// =============================================================================
// CAREGIVERS
// =============================================================================

const caregiverColumns = "id, name, default_hourly_rate, is_active, created_at"

// SaveCaregiver inserts a caregiver, assigning an ID when empty.
func (s *Store) SaveCaregiver(ctx context.Context, c *caregiving.Caregiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO caregivers (id, name, default_hourly_rate, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.DefaultHourlyRate.String(), c.IsActive,
		c.CreatedAt.Format(time.RFC3339),
	)
	if isUniqueViolation(err, "caregivers.name") {
		return caregiving.ErrDuplicateCaregiver
	}
	return err
}

// GetCaregiver retrieves a caregiver by ID.
func (s *Store) GetCaregiver(ctx context.Context, id string) (*caregiving.Caregiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c caregiving.Caregiver
	var rate, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT "+caregiverColumns+" FROM caregivers WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &rate, &c.IsActive, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.DefaultHourlyRate = caregiving.MustDecimal(rate)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// ListCaregivers returns all caregivers ordered by name.
func (s *Store) ListCaregivers(ctx context.Context) ([]caregiving.Caregiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+caregiverColumns+" FROM caregivers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var caregivers []caregiving.Caregiver
	for rows.Next() {
		var c caregiving.Caregiver
		var rate, createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &rate, &c.IsActive, &createdAt); err != nil {
			return nil, err
		}
		c.DefaultHourlyRate = caregiving.MustDecimal(rate)
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		caregivers = append(caregivers, c)
	}
	return caregivers, rows.Err()
}

// UpdateCaregiver overwrites a caregiver row.
func (s *Store) UpdateCaregiver(ctx context.Context, c *caregiving.Caregiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE caregivers SET name = ?, default_hourly_rate = ?, is_active = ?
		WHERE id = ?`,
		c.Name, c.DefaultHourlyRate.String(), c.IsActive, c.ID,
	)
	if isUniqueViolation(err, "caregivers.name") {
		return caregiving.ErrDuplicateCaregiver
	}
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrCaregiverNotFound)
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

const timeEntryColumns = "id, pay_period_id, caregiver_id, date, time_in, time_out, hours, hourly_rate, total_pay, notes, created_at"

func (s *Store) ListTimeEntries(ctx context.Context, periodID string) ([]caregiving.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTimeEntries(ctx, s.db, periodID)
}

// listTimeEntries returns entries ordered by date; an empty periodID means
// all periods.
func listTimeEntries(ctx context.Context, q queryer, periodID string) ([]caregiving.TimeEntry, error) {
	query := "SELECT " + timeEntryColumns + " FROM time_entries"
	var args []any
	if periodID != "" {
		query += " WHERE pay_period_id = ?"
		args = append(args, periodID)
	}
	query += " ORDER BY date ASC, created_at ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []caregiving.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// GetTimeEntry retrieves a time entry by ID.
func (s *Store) GetTimeEntry(ctx context.Context, id string) (*caregiving.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+timeEntryColumns+" FROM time_entries WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanTimeEntry(rows)
}

// SaveTimeEntry inserts a time entry, assigning an ID when empty.
func (s *Store) SaveTimeEntry(ctx context.Context, e *caregiving.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, pay_period_id, caregiver_id, date, time_in, time_out,
			hours, hourly_rate, total_pay, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PayPeriodID, e.CaregiverID, e.Date.Format(dateLayout),
		e.TimeIn, e.TimeOut,
		e.Hours.String(), e.HourlyRate.String(), e.TotalPay.String(),
		e.Notes, e.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// UpdateTimeEntry overwrites a time entry row.
func (s *Store) UpdateTimeEntry(ctx context.Context, e *caregiving.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE time_entries
		SET pay_period_id = ?, caregiver_id = ?, date = ?, time_in = ?, time_out = ?,
			hours = ?, hourly_rate = ?, total_pay = ?, notes = ?
		WHERE id = ?`,
		e.PayPeriodID, e.CaregiverID, e.Date.Format(dateLayout),
		e.TimeIn, e.TimeOut,
		e.Hours.String(), e.HourlyRate.String(), e.TotalPay.String(),
		e.Notes, e.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrTimeEntryNotFound)
}

// DeleteTimeEntry removes a time entry.
func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrTimeEntryNotFound)
}

func scanTimeEntry(rows *sql.Rows) (*caregiving.TimeEntry, error) {
	var e caregiving.TimeEntry
	var date, hours, rate, totalPay, createdAt string
	err := rows.Scan(&e.ID, &e.PayPeriodID, &e.CaregiverID, &date,
		&e.TimeIn, &e.TimeOut, &hours, &rate, &totalPay, &e.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	e.Date, _ = time.Parse(dateLayout, date)
	e.Hours = caregiving.MustDecimal(hours)
	e.HourlyRate = caregiving.MustDecimal(rate)
	e.TotalPay = caregiving.MustDecimal(totalPay)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

const expenseColumns = "id, pay_period_id, date, description, amount, paid_by, category, is_recurring, date_estimated, notes, created_at"

func (s *Store) ListExpenses(ctx context.Context, periodID string) ([]caregiving.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listExpenses(ctx, s.db, periodID)
}

// listExpenses returns expenses ordered by date; an empty periodID means all
// periods.
func listExpenses(ctx context.Context, q queryer, periodID string) ([]caregiving.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses"
	var args []any
	if periodID != "" {
		query += " WHERE pay_period_id = ?"
		args = append(args, periodID)
	}
	query += " ORDER BY date ASC, created_at ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []caregiving.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(ctx context.Context, id string) (*caregiving.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanExpense(rows)
}

// SaveExpense inserts an expense, assigning an ID when empty.
func (s *Store) SaveExpense(ctx context.Context, e *caregiving.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, pay_period_id, date, description, amount, paid_by,
			category, is_recurring, date_estimated, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PayPeriodID, e.Date.Format(dateLayout), e.Description,
		e.Amount.String(), e.PaidBy, e.Category,
		e.IsRecurring, e.DateEstimated, e.Notes,
		e.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// UpdateExpense overwrites an expense row.
func (s *Store) UpdateExpense(ctx context.Context, e *caregiving.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET pay_period_id = ?, date = ?, description = ?, amount = ?, paid_by = ?,
			category = ?, is_recurring = ?, date_estimated = ?, notes = ?
		WHERE id = ?`,
		e.PayPeriodID, e.Date.Format(dateLayout), e.Description,
		e.Amount.String(), e.PaidBy, e.Category,
		e.IsRecurring, e.DateEstimated, e.Notes, e.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrExpenseNotFound)
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrExpenseNotFound)
}

func scanExpense(rows *sql.Rows) (*caregiving.Expense, error) {
	var e caregiving.Expense
	var date, amount, createdAt string
	err := rows.Scan(&e.ID, &e.PayPeriodID, &date, &e.Description, &amount,
		&e.PaidBy, &e.Category, &e.IsRecurring, &e.DateEstimated, &e.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	e.Date, _ = time.Parse(dateLayout, date)
	e.Amount = caregiving.MustDecimal(amount)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

const settlementColumns = "id, pay_period_id, total_caregiver_cost, total_expenses, party_a_paid, party_b_paid, settlement_amount, direction, carryover_amount, final_amount, settled, settled_at, payment_method, created_at"

func (s *Store) FindSettlement(ctx context.Context, periodID string) (*caregiving.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findSettlement(ctx, s.db, periodID)
}

func (s *Store) SaveSettlement(ctx context.Context, settlement *caregiving.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveSettlement(ctx, s.db, settlement)
}

func (s *Store) UpdateSettlement(ctx context.Context, settlement *caregiving.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateSettlement(ctx, s.db, settlement)
}

func findSettlement(ctx context.Context, q queryer, periodID string) (*caregiving.Settlement, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE pay_period_id = ?", periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSettlement(rows)
}

func saveSettlement(ctx context.Context, q queryer, st *caregiving.Settlement) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO settlements (id, pay_period_id, total_caregiver_cost, total_expenses,
			party_a_paid, party_b_paid, settlement_amount, direction,
			carryover_amount, final_amount, settled, settled_at, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.PayPeriodID,
		st.TotalCaregiverCost.String(), st.TotalExpenses.String(),
		st.PartyAPaid.String(), st.PartyBPaid.String(),
		st.SettlementAmount.String(), st.Direction,
		st.CarryoverAmount.String(), st.FinalAmount.String(),
		st.Settled, nullTime(st.SettledAt), nullString(st.PaymentMethod),
		st.CreatedAt.Format(time.RFC3339),
	)
	if isUniqueViolation(err, "settlements.pay_period_id") {
		return caregiving.ErrSettlementExists
	}
	return err
}

func updateSettlement(ctx context.Context, q queryer, st *caregiving.Settlement) error {
	res, err := q.ExecContext(ctx, `
		UPDATE settlements
		SET total_caregiver_cost = ?, total_expenses = ?, party_a_paid = ?, party_b_paid = ?,
			settlement_amount = ?, direction = ?, carryover_amount = ?, final_amount = ?,
			settled = ?, settled_at = ?, payment_method = ?
		WHERE pay_period_id = ?`,
		st.TotalCaregiverCost.String(), st.TotalExpenses.String(),
		st.PartyAPaid.String(), st.PartyBPaid.String(),
		st.SettlementAmount.String(), st.Direction,
		st.CarryoverAmount.String(), st.FinalAmount.String(),
		st.Settled, nullTime(st.SettledAt), nullString(st.PaymentMethod),
		st.PayPeriodID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, caregiving.ErrSettlementNotFound)
}

func scanSettlement(rows *sql.Rows) (*caregiving.Settlement, error) {
	var st caregiving.Settlement
	var cost, expenses, paidA, paidB, amount, carryover, final, createdAt string
	var settledAt, paymentMethod sql.NullString

	err := rows.Scan(&st.ID, &st.PayPeriodID, &cost, &expenses, &paidA, &paidB,
		&amount, &st.Direction, &carryover, &final,
		&st.Settled, &settledAt, &paymentMethod, &createdAt)
	if err != nil {
		return nil, err
	}

	st.TotalCaregiverCost = caregiving.MustDecimal(cost)
	st.TotalExpenses = caregiving.MustDecimal(expenses)
	st.PartyAPaid = caregiving.MustDecimal(paidA)
	st.PartyBPaid = caregiving.MustDecimal(paidB)
	st.SettlementAmount = caregiving.MustDecimal(amount)
	st.CarryoverAmount = caregiving.MustDecimal(carryover)
	st.FinalAmount = caregiving.MustDecimal(final)
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if settledAt.Valid {
		t, _ := time.Parse(time.RFC3339, settledAt.String)
		st.SettledAt = &t
	}
	if paymentMethod.Valid {
		st.PaymentMethod = &paymentMethod.String
	}
	return &st, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Reset clears all data (for tests and demos).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"settlements", "time_entries", "expenses", "pay_periods", "caregivers"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error, indexOrColumn string) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), indexOrColumn)
}
