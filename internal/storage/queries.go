package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Expense is a row of the expenses table. CreatedAt is kept as the driver
// returns it and parsed by the repository.
type Expense struct {
	ID          int64
	MonthLabel  string
	Category    string
	AmountCents int64
	Comment     string
	CreatedAt   string
}

const createExpense = `
INSERT INTO expenses (month_label, category, amount_cents, comment, created_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateExpenseParams struct {
	MonthLabel  string
	Category    string
	AmountCents int64
	Comment     string
	CreatedAt   string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createExpense,
		arg.MonthLabel,
		arg.Category,
		arg.AmountCents,
		arg.Comment,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getLastExpense = `
SELECT id, month_label, category, amount_cents, comment, created_at
FROM expenses
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetLastExpense(ctx context.Context) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getLastExpense)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.MonthLabel,
		&i.Category,
		&i.AmountCents,
		&i.Comment,
		&i.CreatedAt,
	)
	return i, err
}

const deleteExpense = `
DELETE FROM expenses WHERE id = ?
`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpense, id)
	return err
}

const listExpenses = `
SELECT id, month_label, category, amount_cents, comment, created_at
FROM expenses
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.MonthLabel,
			&i.Category,
			&i.AmountCents,
			&i.Comment,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
