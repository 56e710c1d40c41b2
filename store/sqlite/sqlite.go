/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements remittance.Store, remittance.Querier and users.Store on one
  SQLite database. Records are upserted row by row, so two operators
  saving different departments never overwrite each other.

INTERFACES IMPLEMENTED:
  remittance.Store:   record persistence (upsert by natural key)
  remittance.Querier: filtered listing built with squirrel
  users.Store:        operator accounts

KEY TABLES:
  records: one row per (ministry, department, year, month)
  users:   operator accounts, username unique

MONEY:
  Amounts are stored as TEXT decimal strings and parsed back with
  shopspring/decimal, so no value passes through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite serializes writers anyway;
  the mutex keeps read-modify-write sequences in one process consistent.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/remittance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  repo := remittance.NewRepository(store, dir, classifier, nil)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - remittance/store.go: record interface
  - users/users.go:      user interface
  - store/jsonfile:      whole-collection file backend
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/users"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ remittance.Store   = (*Store)(nil)
	_ remittance.Querier = (*Store)(nil)
	_ users.Store        = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		ministry TEXT NOT NULL,
		department_name TEXT NOT NULL,
		funding_type TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		total_salaries TEXT NOT NULL,
		employee_count INTEGER NOT NULL,
		deduction_10 TEXT NOT NULL,
		deduction_15 TEXT NOT NULL,
		deduction_25 TEXT NOT NULL,
		attachments_json TEXT,
		submitted_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_department_period
		ON records(ministry, department_name, year, month);
	CREATE INDEX IF NOT EXISTS idx_records_period
		ON records(year, month);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		permissions_json TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// builder returns a squirrel builder using SQLite placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

const recordColumns = `id, ministry, department_name, funding_type, year, month,
	total_salaries, employee_count, deduction_10, deduction_15, deduction_25,
	attachments_json, submitted_at`

// =============================================================================
// RECORD STORE (remittance.Store interface)
// =============================================================================

// ListRecords returns every record ordered by id.
func (s *Store) ListRecords(ctx context.Context) ([]remittance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, "SELECT "+recordColumns+" FROM records ORDER BY id")
}

// ListFiltered returns the records matching q, ordered by id.
func (s *Store) ListFiltered(ctx context.Context, q remittance.RecordQuery) ([]remittance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := builder().Select(recordColumns).From("records").OrderBy("id")
	if q.Ministry != "" {
		query = query.Where(sq.Eq{"ministry": q.Ministry})
	}
	if q.Department != "" {
		query = query.Where(sq.Eq{"department_name": q.Department})
	}
	if q.Year != 0 {
		query = query.Where(sq.Eq{"year": q.Year})
	}
	if q.Month != 0 {
		query = query.Where(sq.Eq{"month": q.Month})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.queryRecords(ctx, stmt, args...)
}

// GetRecord retrieves a record by id. Returns nil, nil when missing.
func (s *Store) GetRecord(ctx context.Context, id string) (*remittance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := s.queryRecords(ctx, "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// UpsertRecord inserts or replaces the record with r.ID.
func (s *Store) UpsertRecord(ctx context.Context, r remittance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attachmentsJSON, err := json.Marshal(r.Attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ministry = excluded.ministry,
			department_name = excluded.department_name,
			funding_type = excluded.funding_type,
			year = excluded.year,
			month = excluded.month,
			total_salaries = excluded.total_salaries,
			employee_count = excluded.employee_count,
			deduction_10 = excluded.deduction_10,
			deduction_15 = excluded.deduction_15,
			deduction_25 = excluded.deduction_25,
			attachments_json = excluded.attachments_json,
			submitted_at = excluded.submitted_at
	`

	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Ministry, r.DepartmentName, string(r.FundingType), r.Year, r.Month,
		r.TotalSalaries.String(), r.EmployeeCount,
		r.Deduction10.String(), r.Deduction15.String(), r.Deduction25.String(),
		nullString(string(attachmentsJSON)),
		r.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", generic.ErrRecordExists, r.ID)
		}
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]remittance.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []remittance.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (remittance.Record, error) {
	var (
		r               remittance.Record
		fundingType     string
		totalSalaries   string
		d10, d15, d25   string
		attachmentsJSON sql.NullString
		submittedAt     string
	)

	err := rows.Scan(
		&r.ID, &r.Ministry, &r.DepartmentName, &fundingType, &r.Year, &r.Month,
		&totalSalaries, &r.EmployeeCount, &d10, &d15, &d25,
		&attachmentsJSON, &submittedAt,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	r.FundingType = remittance.FundingType(fundingType)
	if r.TotalSalaries, err = parseMoney(totalSalaries); err != nil {
		return r, err
	}
	if r.Deduction10, err = parseMoney(d10); err != nil {
		return r, err
	}
	if r.Deduction15, err = parseMoney(d15); err != nil {
		return r, err
	}
	if r.Deduction25, err = parseMoney(d25); err != nil {
		return r, err
	}
	if r.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return r, fmt.Errorf("failed to parse submitted_at of %s: %w", r.ID, err)
	}

	if attachmentsJSON.Valid && attachmentsJSON.String != "" && attachmentsJSON.String != "null" {
		if err := json.Unmarshal([]byte(attachmentsJSON.String), &r.Attachments); err != nil {
			return r, fmt.Errorf("failed to decode attachments of %s: %w", r.ID, err)
		}
	}
	return r, nil
}

// =============================================================================
// USER STORE (users.Store interface)
// =============================================================================

const userColumns = "id, name, username, password_hash, role, permissions_json"

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
}

// GetUser retrieves a user by id. Returns nil, nil when missing.
func (s *Store) GetUser(ctx context.Context, id string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetUserByUsername retrieves a user by username. Returns nil, nil when missing.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	permsJSON, err := json.Marshal(u.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			username = excluded.username,
			password_hash = excluded.password_hash,
			role = excluded.role,
			permissions_json = excluded.permissions_json
	`
	_, err = s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Username, u.PasswordHash, string(u.Role), string(permsJSON),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", generic.ErrDuplicateUsername, u.Username)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return nil
}

func (s *Store) queryUser(ctx context.Context, query string, args ...any) (*users.User, error) {
	list, err := s.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]users.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	list := []users.User{}
	for rows.Next() {
		var (
			u         users.User
			role      string
			permsJSON string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &role, &permsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = users.Role(role)
		if err := json.Unmarshal([]byte(permsJSON), &u.Permissions); err != nil {
			return nil, fmt.Errorf("failed to decode permissions of %s: %w", u.ID, err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// ResetRecords clears the records table only.
func (s *Store) ResetRecords(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM records")
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseMoney(s string) (generic.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return generic.Zero, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
