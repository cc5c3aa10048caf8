package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, account_id, order_number, client_id, status, delivery_date, delivery_time,
	delivery_address, delivery_fee, total_amount, deposit_paid, full_payment_received,
	payment_method, payment_fee, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.AccountID, &o.OrderNumber, &o.ClientID, &o.Status,
		&o.DeliveryDate, &o.DeliveryTime, &o.DeliveryAddress, &o.DeliveryFee,
		&o.TotalAmount, &o.DepositPaid, &o.FullPaymentReceived, &o.PaymentMethod,
		&o.PaymentFee, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (q *Queries) scanOrders(ctx context.Context, sql string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetNextOrderNumber yields max(order_number)+1 for the account, floored at the
// profile's configured starting number. Runs inside the create-order
// transaction; a unique constraint on (account_id, order_number) catches the
// race where two transactions read the same MAX.
func (q *Queries) GetNextOrderNumber(ctx context.Context, accountID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, `
		SELECT GREATEST(
			COALESCE((SELECT MAX(order_number) + 1 FROM orders WHERE account_id = $1), 0),
			COALESCE((SELECT order_number_start FROM profiles WHERE account_id = $1), 1)
		)`, accountID)
	var n int32
	err := row.Scan(&n)
	return n, err
}

type CreateOrderParams struct {
	AccountID       uuid.UUID
	OrderNumber     int32
	ClientID        uuid.UUID
	Status          string
	DeliveryDate    pgtype.Date
	DeliveryTime    pgtype.Text
	DeliveryAddress pgtype.Text
	DeliveryFee     pgtype.Numeric
	TotalAmount     pgtype.Numeric
	Notes           pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (account_id, order_number, client_id, status, delivery_date,
			delivery_time, delivery_address, delivery_fee, total_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		arg.AccountID, arg.OrderNumber, arg.ClientID, arg.Status, arg.DeliveryDate,
		arg.DeliveryTime, arg.DeliveryAddress, arg.DeliveryFee, arg.TotalAmount, arg.Notes)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND account_id = $2`, arg.ID, arg.AccountID)
	return scanOrder(row)
}

type GetOrderForUpdateParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

// GetOrderForUpdate locks the order row for the duration of the enclosing
// transaction, serializing concurrent status/deposit/payment mutations.
func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderForUpdateParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND account_id = $2
		FOR NO KEY UPDATE`, arg.ID, arg.AccountID)
	return scanOrder(row)
}

type ListOrdersParams struct {
	AccountID uuid.UUID
	Status    pgtype.Text
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	return q.scanOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE account_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::date IS NULL OR COALESCE(delivery_date, created_at::date) >= $3)
		  AND ($4::date IS NULL OR COALESCE(delivery_date, created_at::date) <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.AccountID, arg.Status, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
}

type ListOrdersByClientParams struct {
	ClientID  uuid.UUID
	AccountID uuid.UUID
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrdersByClient(ctx context.Context, arg ListOrdersByClientParams) ([]Order, error) {
	return q.scanOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE client_id = $1 AND account_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.ClientID, arg.AccountID, arg.Limit, arg.Offset)
}

// ListOpenOrders returns orders that still need attention (not delivered, not
// cancelled). Feeds the notification builder.
func (q *Queries) ListOpenOrders(ctx context.Context, accountID uuid.UUID) ([]Order, error) {
	return q.scanOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE account_id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED')
		ORDER BY created_at`, accountID)
}

type ListDeliveredOrdersParams struct {
	AccountID uuid.UUID
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// ListDeliveredOrders returns delivered orders whose delivery date (falling
// back to creation date when delivery was never scheduled) lies in the period.
func (q *Queries) ListDeliveredOrders(ctx context.Context, arg ListDeliveredOrdersParams) ([]Order, error) {
	return q.scanOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE account_id = $1
		  AND status = 'DELIVERED'
		  AND ($2::date IS NULL OR COALESCE(delivery_date, created_at::date) >= $2)
		  AND ($3::date IS NULL OR COALESCE(delivery_date, created_at::date) <= $3)
		ORDER BY created_at`,
		arg.AccountID, arg.StartDate, arg.EndDate)
}

type UpdateOrderDetailsParams struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	ClientID        uuid.UUID
	DeliveryDate    pgtype.Date
	DeliveryTime    pgtype.Text
	DeliveryAddress pgtype.Text
	DeliveryFee     pgtype.Numeric
	TotalAmount     pgtype.Numeric
	Notes           pgtype.Text
}

func (q *Queries) UpdateOrderDetails(ctx context.Context, arg UpdateOrderDetailsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET client_id = $3, delivery_date = $4, delivery_time = $5, delivery_address = $6,
		    delivery_fee = $7, total_amount = $8, notes = $9, updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.AccountID, arg.ClientID, arg.DeliveryDate, arg.DeliveryTime,
		arg.DeliveryAddress, arg.DeliveryFee, arg.TotalAmount, arg.Notes)
	return scanOrder(row)
}

type UpdateOrderStatusParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Status    string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.AccountID, arg.Status)
	return scanOrder(row)
}

type SetOrderCancelledParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

// SetOrderCancelled moves an order to CANCELLED and clears the deposit flag in
// one statement; the caller deletes the order's transactions in the same tx.
func (q *Queries) SetOrderCancelled(ctx context.Context, arg SetOrderCancelledParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'CANCELLED', deposit_paid = false, updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.AccountID)
	return scanOrder(row)
}

type SetDepositPaidParams struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	DepositPaid bool
	Status      string
}

func (q *Queries) SetDepositPaid(ctx context.Context, arg SetDepositPaidParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET deposit_paid = $3, status = $4, updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.AccountID, arg.DepositPaid, arg.Status)
	return scanOrder(row)
}

type SetFullPaymentParams struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	PaymentMethod pgtype.Text
	PaymentFee    pgtype.Numeric
	Status        string
}

func (q *Queries) SetFullPayment(ctx context.Context, arg SetFullPaymentParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET full_payment_received = true, payment_method = $3, payment_fee = $4,
		    status = $5, updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.AccountID, arg.PaymentMethod, arg.PaymentFee, arg.Status)
	return scanOrder(row)
}

type DeleteOrderParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

// DeleteOrder removes the order row. Items and transactions referencing it are
// deleted first by the service, inside the same transaction.
func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM orders
		WHERE id = $1 AND account_id = $2
		RETURNING id`, arg.ID, arg.AccountID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
