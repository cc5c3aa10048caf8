package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = `id, account_id, order_id, type, category, description, amount, occurred_on, created_at`

func scanTransaction(row interface{ Scan(dest ...interface{}) error }) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.OrderID, &t.Type, &t.Category,
		&t.Description, &t.Amount, &t.OccurredOn, &t.CreatedAt)
	return t, err
}

type CreateTransactionParams struct {
	AccountID   uuid.UUID
	OrderID     pgtype.UUID
	Type        string
	Category    pgtype.Text
	Description string
	Amount      pgtype.Numeric
	OccurredOn  pgtype.Date
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO transactions (account_id, order_id, type, category, description, amount, occurred_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		arg.AccountID, arg.OrderID, arg.Type, arg.Category, arg.Description,
		arg.Amount, arg.OccurredOn)
	return scanTransaction(row)
}

type GetTransactionParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE id = $1 AND account_id = $2`, arg.ID, arg.AccountID)
	return scanTransaction(row)
}

type ListTransactionsParams struct {
	AccountID uuid.UUID
	Type      pgtype.Text
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Limit     int32
	Offset    int32
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1
		  AND ($2::text IS NULL OR type = $2)
		  AND ($3::date IS NULL OR occurred_on >= $3)
		  AND ($4::date IS NULL OR occurred_on <= $4)
		ORDER BY occurred_on DESC, created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.AccountID, arg.Type, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type ListTransactionsInPeriodParams struct {
	AccountID uuid.UUID
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// ListTransactionsInPeriod returns the full unpaginated ledger for a period.
// Feeds the financial summary and the PDF report, which aggregate every row.
func (q *Queries) ListTransactionsInPeriod(ctx context.Context, arg ListTransactionsInPeriodParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1
		  AND ($2::date IS NULL OR occurred_on >= $2)
		  AND ($3::date IS NULL OR occurred_on <= $3)
		ORDER BY occurred_on, created_at`,
		arg.AccountID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (q *Queries) ListTransactionsByOrder(ctx context.Context, orderID uuid.UUID) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type UpdateTransactionParams struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Type        string
	Category    pgtype.Text
	Description string
	Amount      pgtype.Numeric
	OccurredOn  pgtype.Date
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE transactions
		SET type = $3, category = $4, description = $5, amount = $6, occurred_on = $7
		WHERE id = $1 AND account_id = $2
		RETURNING `+transactionColumns,
		arg.ID, arg.AccountID, arg.Type, arg.Category, arg.Description,
		arg.Amount, arg.OccurredOn)
	return scanTransaction(row)
}

type DeleteTransactionParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM transactions
		WHERE id = $1 AND account_id = $2
		RETURNING id`, arg.ID, arg.AccountID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

// DeleteTransactionsByOrder removes every posting tied to an order. Used when
// an order is cancelled or deleted.
func (q *Queries) DeleteTransactionsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM transactions WHERE order_id = $1`, orderID)
	return err
}

type DeleteTransactionsByOrderCategoryParams struct {
	OrderID  uuid.UUID
	Category string
}

// DeleteTransactionsByOrderCategory removes the order's postings of a single
// category (DEPOSIT when a deposit is unset, FINAL_PAYMENT when a delivery is
// reverted). The predecessor matched description substrings for this; the
// category column makes the deletion deterministic.
func (q *Queries) DeleteTransactionsByOrderCategory(ctx context.Context, arg DeleteTransactionsByOrderCategoryParams) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM transactions
		WHERE order_id = $1 AND category = $2`, arg.OrderID, arg.Category)
	return err
}
