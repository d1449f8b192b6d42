package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed width so text ordering matches time ordering.
const createdAtLayout = "2006-01-02 15:04:05.000000000"

var createdAtLayouts = []string{
	createdAtLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements ledger.RecordWriter
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Entry) (core.Record, error) {
	if err := e.Validate(); err != nil {
		return core.Record{}, err
	}

	createdAt := r.now().UTC().Round(0)
	id, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		MonthLabel:  e.Month.String(),
		Category:    string(e.Category),
		AmountCents: e.Amount.Cents,
		Comment:     strings.TrimSpace(e.Comment),
		CreatedAt:   createdAt.Format(createdAtLayout),
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"month", e.Month.String(),
		"category", string(e.Category),
		"amount_cents", e.Amount.Cents)

	return core.NewRecord(id, e, createdAt), nil
}

// DeleteLast implements ledger.RecordWriter
func (r *SQLiteRepository) DeleteLast(ctx context.Context) (core.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	row, err := q.GetLastExpense(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get last expense: %w", err)
	}

	rec, err := toRecord(row)
	if err != nil {
		return core.Record{}, err
	}

	if err := q.DeleteExpense(ctx, row.ID); err != nil {
		return core.Record{}, fmt.Errorf("delete expense %d: %w", row.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite",
		"id", rec.ID,
		"month", rec.Month.String(),
		"category", string(rec.Category))

	return rec, nil
}

// FetchAll implements ledger.RecordReader
func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	records := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// toRecord converts a row at the store boundary. Labels and categories that
// do not parse are reported, never silently summed as zero.
func toRecord(row Expense) (core.Record, error) {
	month, err := core.ParseMonth(row.MonthLabel)
	if err != nil {
		return core.Record{}, fmt.Errorf("expense %d: %w", row.ID, err)
	}
	cat, err := core.ParseCategory(row.Category)
	if err != nil {
		return core.Record{}, fmt.Errorf("expense %d: %w", row.ID, err)
	}
	createdAt, err := parseCreatedAt(row.CreatedAt)
	if err != nil {
		return core.Record{}, fmt.Errorf("expense %d: %w", row.ID, err)
	}
	return core.Record{
		ID:        row.ID,
		Month:     month,
		Category:  cat,
		Amount:    core.Money{Cents: row.AmountCents},
		Comment:   row.Comment,
		CreatedAt: createdAt,
	}, nil
}

func parseCreatedAt(s string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse created_at %q", s)
}
