package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, product_id, product_name, quantity, unit_price, unit_type, is_gift`

func scanOrderItem(row interface{ Scan(dest ...interface{}) error }) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
		&it.Quantity, &it.UnitPrice, &it.UnitType, &it.IsGift)
	return it, err
}

type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	ProductID   pgtype.UUID
	ProductName string
	Quantity    pgtype.Numeric
	UnitPrice   pgtype.Numeric
	UnitType    string
	IsGift      bool
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, unit_type, is_gift)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.Quantity, arg.UnitPrice,
		arg.UnitType, arg.IsGift)
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

type ListDeliveredOrderItemsParams struct {
	AccountID uuid.UUID
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// DeliveredOrderItemRow is an order item of a delivered order joined with the
// current product cost price. CostPrice is invalid (treated as zero) when the
// product was deleted or the item was ad hoc.
type DeliveredOrderItemRow struct {
	OrderID   uuid.UUID
	Quantity  pgtype.Numeric
	IsGift    bool
	CostPrice pgtype.Numeric
}

// ListDeliveredOrderItems feeds the gross-profit calculation: every item of
// every delivered order in the period, with cost looked up by product id.
func (q *Queries) ListDeliveredOrderItems(ctx context.Context, arg ListDeliveredOrderItemsParams) ([]DeliveredOrderItemRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.order_id, oi.quantity, oi.is_gift, p.cost_price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE o.account_id = $1
		  AND o.status = 'DELIVERED'
		  AND ($2::date IS NULL OR COALESCE(o.delivery_date, o.created_at::date) >= $2)
		  AND ($3::date IS NULL OR COALESCE(o.delivery_date, o.created_at::date) <= $3)`,
		arg.AccountID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DeliveredOrderItemRow
	for rows.Next() {
		var it DeliveredOrderItemRow
		if err := rows.Scan(&it.OrderID, &it.Quantity, &it.IsGift, &it.CostPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
