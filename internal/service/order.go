package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/enum"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidClientID      = errors.New("invalid client_id")
	ErrClientNotFound       = errors.New("client not found in account")
	ErrProductNotFound      = errors.New("product not found in account")
	ErrInvalidProductID     = errors.New("invalid product_id")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidUnitPrice     = errors.New("invalid unit_price")
	ErrInvalidUnitType      = errors.New("invalid unit_type")
	ErrInvalidDeliveryFee   = errors.New("invalid delivery_fee")
	ErrInvalidDeliveryDate  = errors.New("invalid delivery_date")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidFeeType       = errors.New("invalid fee_type")
	ErrInvalidFeeValue      = errors.New("invalid fee_value")
	ErrAlreadyPaid          = errors.New("order is already fully paid")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order workflows need.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context, accountID uuid.UUID) (int32, error)
	GetClient(ctx context.Context, arg database.GetClientParams) (database.Client, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	UpdateOrderDetails(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	SetOrderCancelled(ctx context.Context, arg database.SetOrderCancelledParams) (database.Order, error)
	SetDepositPaid(ctx context.Context, arg database.SetDepositPaidParams) (database.Order, error)
	SetFullPayment(ctx context.Context, arg database.SetFullPaymentParams) (database.Order, error)
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) (uuid.UUID, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	DeleteTransactionsByOrder(ctx context.Context, orderID uuid.UUID) error
	DeleteTransactionsByOrderCategory(ctx context.Context, arg database.DeleteTransactionsByOrderCategoryParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), letting the
// service run its store methods inside the transactions it opens.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	AccountID       uuid.UUID
	ClientID        string
	Status          string // optional; defaults to QUOTE
	DeliveryDate    string // YYYY-MM-DD, optional
	DeliveryTime    string
	DeliveryAddress string
	DeliveryFee     string
	Notes           string
	Items           []OrderItemRequest
}

// OrderItemRequest is a single line of an order. ProductID empty means an
// ad-hoc item; then ProductName and UnitPrice must be supplied. When ProductID
// is set, name/price/unit default to the product's current values but may be
// overridden.
type OrderItemRequest struct {
	ProductID   string
	ProductName string
	Quantity    string
	UnitPrice   string
	UnitType    string
	IsGift      bool
}

// UpdateOrderRequest re-prices an existing order: items are replaced wholesale.
type UpdateOrderRequest struct {
	AccountID       uuid.UUID
	OrderID         uuid.UUID
	ClientID        string
	DeliveryDate    string
	DeliveryTime    string
	DeliveryAddress string
	DeliveryFee     string
	Notes           string
	Items           []OrderItemRequest
}

// UpfrontPaymentRequest settles the remaining balance in one payment.
type UpfrontPaymentRequest struct {
	AccountID uuid.UUID
	OrderID   uuid.UUID
	Method    string
	FeeType   string // FLAT or PERCENTAGE; empty means no fee
	FeeValue  string
}

// OrderResult is an order with its (re)created items.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService owns the order lifecycle: creation, re-pricing, status
// transitions and the financial postings they imply. Every multi-step write
// runs in a single database transaction.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// pricedItem is a validated item ready for insertion.
type pricedItem struct {
	params   database.CreateOrderItemParams
	subtotal decimal.Decimal
	isGift   bool
}

// CreateOrder validates, prices, and creates an order with its items
// atomically. total_amount = sum of non-gift item subtotals + delivery fee.
// Retries on order_number unique conflicts (concurrent creates read the same
// MAX inside their transactions).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	status := req.Status
	if status == "" {
		status = enum.OrderStatusQuote
	}
	if !isValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, status)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_account_id_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, status string) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, ErrInvalidClientID
	}
	if _, err := store.GetClient(ctx, database.GetClientParams{ID: clientID, AccountID: req.AccountID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	nextNum, err := store.GetNextOrderNumber(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}

	items, total, err := s.priceItems(ctx, store, req.AccountID, req.Items)
	if err != nil {
		return nil, err
	}

	deliveryFee := decimal.Zero
	if req.DeliveryFee != "" {
		deliveryFee, err = decimal.NewFromString(req.DeliveryFee)
		if err != nil || deliveryFee.IsNegative() {
			return nil, ErrInvalidDeliveryFee
		}
	}
	total = total.Add(deliveryFee)

	deliveryDate, err := parseOptionalDate(req.DeliveryDate)
	if err != nil {
		return nil, ErrInvalidDeliveryDate
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		AccountID:       req.AccountID,
		OrderNumber:     nextNum,
		ClientID:        clientID,
		Status:          status,
		DeliveryDate:    deliveryDate,
		DeliveryTime:    textOrNull(req.DeliveryTime),
		DeliveryAddress: textOrNull(req.DeliveryAddress),
		DeliveryFee:     decimalToNumeric(deliveryFee),
		TotalAmount:     decimalToNumeric(total),
		Notes:           textOrNull(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := insertItems(ctx, store, order.ID, items)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: created}, nil
}

// UpdateOrder replaces the order's items and recomputes total_amount.
// The previously posted deposit/final transactions are NOT adjusted when the
// total changes; the two figures can diverge, as they did in the predecessor.
func (s *OrderService) UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{
		ID:        req.OrderID,
		AccountID: req.AccountID,
	}); err != nil {
		return nil, err
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, ErrInvalidClientID
	}
	if _, err := store.GetClient(ctx, database.GetClientParams{ID: clientID, AccountID: req.AccountID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	items, total, err := s.priceItems(ctx, store, req.AccountID, req.Items)
	if err != nil {
		return nil, err
	}

	deliveryFee := decimal.Zero
	if req.DeliveryFee != "" {
		deliveryFee, err = decimal.NewFromString(req.DeliveryFee)
		if err != nil || deliveryFee.IsNegative() {
			return nil, ErrInvalidDeliveryFee
		}
	}
	total = total.Add(deliveryFee)

	deliveryDate, err := parseOptionalDate(req.DeliveryDate)
	if err != nil {
		return nil, ErrInvalidDeliveryDate
	}

	if err := store.DeleteOrderItemsByOrder(ctx, req.OrderID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}

	order, err := store.UpdateOrderDetails(ctx, database.UpdateOrderDetailsParams{
		ID:              req.OrderID,
		AccountID:       req.AccountID,
		ClientID:        clientID,
		DeliveryDate:    deliveryDate,
		DeliveryTime:    textOrNull(req.DeliveryTime),
		DeliveryAddress: textOrNull(req.DeliveryAddress),
		DeliveryFee:     decimalToNumeric(deliveryFee),
		TotalAmount:     decimalToNumeric(total),
		Notes:           textOrNull(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	created, err := insertItems(ctx, store, order.ID, items)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: created}, nil
}

// ChangeStatus applies a status transition and its financial side effects in
// one transaction:
//
//	→ CANCELLED             delete all order transactions, clear deposit flag
//	→ DELIVERED (unpaid)    post INCOME total/2 "Pagamento Final - <client>"
//	DELIVERED → other       delete the order's FINAL_PAYMENT postings
//	anything else           plain status update
func (s *OrderService) ChangeStatus(ctx context.Context, accountID, orderID uuid.UUID, newStatus string) (database.Order, error) {
	if !isValidOrderStatus(newStatus) {
		return database.Order{}, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{
		ID:        orderID,
		AccountID: accountID,
	})
	if err != nil {
		return database.Order{}, err
	}

	if order.Status == newStatus {
		return order, tx.Commit(ctx)
	}

	var updated database.Order
	switch {
	case newStatus == enum.OrderStatusCancelled:
		if err := store.DeleteTransactionsByOrder(ctx, orderID); err != nil {
			return database.Order{}, fmt.Errorf("delete order transactions: %w", err)
		}
		updated, err = store.SetOrderCancelled(ctx, database.SetOrderCancelledParams{
			ID:        orderID,
			AccountID: accountID,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("cancel order: %w", err)
		}

	case newStatus == enum.OrderStatusDelivered:
		if !order.FullPaymentReceived {
			client, err := store.GetClient(ctx, database.GetClientParams{ID: order.ClientID, AccountID: accountID})
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return database.Order{}, fmt.Errorf("get client: %w", err)
			}
			half := numericToDecimal(order.TotalAmount).Div(decimal.NewFromInt(2))
			if _, err := store.CreateTransaction(ctx, database.CreateTransactionParams{
				AccountID:   accountID,
				OrderID:     pgtype.UUID{Bytes: orderID, Valid: true},
				Type:        enum.TransactionTypeIncome,
				Category:    pgtype.Text{String: enum.CategoryFinalPayment, Valid: true},
				Description: "Pagamento Final - " + client.Name,
				Amount:      decimalToNumeric(half),
				OccurredOn:  today(),
			}); err != nil {
				return database.Order{}, fmt.Errorf("create final payment transaction: %w", err)
			}
		}
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:        orderID,
			AccountID: accountID,
			Status:    newStatus,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("update order status: %w", err)
		}

	case order.Status == enum.OrderStatusDelivered:
		// Delivery reverted: withdraw the final-payment posting.
		if err := store.DeleteTransactionsByOrderCategory(ctx, database.DeleteTransactionsByOrderCategoryParams{
			OrderID:  orderID,
			Category: enum.CategoryFinalPayment,
		}); err != nil {
			return database.Order{}, fmt.Errorf("delete final payment transactions: %w", err)
		}
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:        orderID,
			AccountID: accountID,
			Status:    newStatus,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("update order status: %w", err)
		}

	default:
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:        orderID,
			AccountID: accountID,
			Status:    newStatus,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("update order status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// SetDeposit toggles the 50% deposit. Setting it while the order is still in
// QUOTE or AWAITING_DEPOSIT advances it to IN_PRODUCTION and posts an INCOME
// transaction for half the total. Unsetting deletes the order's DEPOSIT
// postings. The 50/50 split is a fixed business rule.
func (s *OrderService) SetDeposit(ctx context.Context, accountID, orderID uuid.UUID, paid bool) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{
		ID:        orderID,
		AccountID: accountID,
	})
	if err != nil {
		return database.Order{}, err
	}

	if order.DepositPaid == paid {
		return order, tx.Commit(ctx)
	}

	var updated database.Order
	if paid {
		client, err := store.GetClient(ctx, database.GetClientParams{ID: order.ClientID, AccountID: accountID})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("get client: %w", err)
		}

		status := order.Status
		if status == enum.OrderStatusQuote || status == enum.OrderStatusAwaitingDeposit {
			status = enum.OrderStatusInProduction
		}

		half := numericToDecimal(order.TotalAmount).Div(decimal.NewFromInt(2))
		if _, err := store.CreateTransaction(ctx, database.CreateTransactionParams{
			AccountID:   accountID,
			OrderID:     pgtype.UUID{Bytes: orderID, Valid: true},
			Type:        enum.TransactionTypeIncome,
			Category:    pgtype.Text{String: enum.CategoryDeposit, Valid: true},
			Description: "Sinal 50% - " + client.Name,
			Amount:      decimalToNumeric(half),
			OccurredOn:  today(),
		}); err != nil {
			return database.Order{}, fmt.Errorf("create deposit transaction: %w", err)
		}

		updated, err = store.SetDepositPaid(ctx, database.SetDepositPaidParams{
			ID:          orderID,
			AccountID:   accountID,
			DepositPaid: true,
			Status:      status,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("set deposit paid: %w", err)
		}
	} else {
		if err := store.DeleteTransactionsByOrderCategory(ctx, database.DeleteTransactionsByOrderCategoryParams{
			OrderID:  orderID,
			Category: enum.CategoryDeposit,
		}); err != nil {
			return database.Order{}, fmt.Errorf("delete deposit transactions: %w", err)
		}
		updated, err = store.SetDepositPaid(ctx, database.SetDepositPaidParams{
			ID:          orderID,
			AccountID:   accountID,
			DepositPaid: false,
			Status:      order.Status,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("unset deposit paid: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// RecordUpfrontPayment settles the remaining balance (full total, or half when
// the deposit was already paid) in a single payment, minus an optional
// processing fee. Posts the net amount as INCOME, marks the order fully paid,
// and advances QUOTE/AWAITING_DEPOSIT orders to IN_PRODUCTION.
func (s *OrderService) RecordUpfrontPayment(ctx context.Context, req UpfrontPaymentRequest) (database.Order, error) {
	if !isValidPaymentMethod(req.Method) {
		return database.Order{}, ErrInvalidPaymentMethod
	}

	feeValue := decimal.Zero
	if req.FeeType != "" {
		if req.FeeType != enum.FeeTypeFlat && req.FeeType != enum.FeeTypePercentage {
			return database.Order{}, ErrInvalidFeeType
		}
		var err error
		feeValue, err = decimal.NewFromString(req.FeeValue)
		if err != nil || feeValue.IsNegative() {
			return database.Order{}, ErrInvalidFeeValue
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{
		ID:        req.OrderID,
		AccountID: req.AccountID,
	})
	if err != nil {
		return database.Order{}, err
	}

	if order.FullPaymentReceived {
		return database.Order{}, ErrAlreadyPaid
	}

	remaining := numericToDecimal(order.TotalAmount)
	if order.DepositPaid {
		remaining = remaining.Div(decimal.NewFromInt(2))
	}

	fee := decimal.Zero
	switch req.FeeType {
	case enum.FeeTypeFlat:
		fee = feeValue
	case enum.FeeTypePercentage:
		fee = remaining.Mul(feeValue).Div(decimal.NewFromInt(100))
	}
	if fee.GreaterThan(remaining) {
		return database.Order{}, ErrInvalidFeeValue
	}
	net := remaining.Sub(fee)

	client, err := store.GetClient(ctx, database.GetClientParams{ID: order.ClientID, AccountID: req.AccountID})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("get client: %w", err)
	}

	if _, err := store.CreateTransaction(ctx, database.CreateTransactionParams{
		AccountID:   req.AccountID,
		OrderID:     pgtype.UUID{Bytes: req.OrderID, Valid: true},
		Type:        enum.TransactionTypeIncome,
		Category:    pgtype.Text{String: enum.CategoryUpfront, Valid: true},
		Description: "Pagamento Antecipado - " + client.Name,
		Amount:      decimalToNumeric(net),
		OccurredOn:  today(),
	}); err != nil {
		return database.Order{}, fmt.Errorf("create upfront payment transaction: %w", err)
	}

	status := order.Status
	if status == enum.OrderStatusQuote || status == enum.OrderStatusAwaitingDeposit {
		status = enum.OrderStatusInProduction
	}

	updated, err := store.SetFullPayment(ctx, database.SetFullPaymentParams{
		ID:            req.OrderID,
		AccountID:     req.AccountID,
		PaymentMethod: pgtype.Text{String: req.Method, Valid: true},
		PaymentFee:    decimalToNumeric(fee),
		Status:        status,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("set full payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// DeleteOrder removes the order and its dependent rows atomically.
func (s *OrderService) DeleteOrder(ctx context.Context, accountID, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{
		ID:        orderID,
		AccountID: accountID,
	}); err != nil {
		return err
	}

	if err := store.DeleteTransactionsByOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete order transactions: %w", err)
	}
	if err := store.DeleteOrderItemsByOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := store.DeleteOrder(ctx, database.DeleteOrderParams{ID: orderID, AccountID: accountID}); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	return tx.Commit(ctx)
}

// --- Item pricing ---

func (s *OrderService) priceItems(ctx context.Context, store OrderStore, accountID uuid.UUID, reqs []OrderItemRequest) ([]pricedItem, decimal.Decimal, error) {
	total := decimal.Zero
	items := make([]pricedItem, 0, len(reqs))

	for i, item := range reqs {
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil || qty.LessThanOrEqual(decimal.Zero) {
			return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}

		productID := pgtype.UUID{}
		name := item.ProductName
		unitType := item.UnitType
		var unitPrice decimal.Decimal
		priceSet := false

		if item.UnitPrice != "" {
			unitPrice, err = decimal.NewFromString(item.UnitPrice)
			if err != nil || unitPrice.IsNegative() {
				return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidUnitPrice)
			}
			priceSet = true
		}

		if item.ProductID != "" {
			pid, err := uuid.Parse(item.ProductID)
			if err != nil {
				return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
			}
			product, err := store.GetProduct(ctx, database.GetProductParams{ID: pid, AccountID: accountID})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrProductNotFound)
				}
				return nil, decimal.Zero, fmt.Errorf("items[%d]: get product: %w", i, err)
			}
			productID = pgtype.UUID{Bytes: pid, Valid: true}
			if name == "" {
				name = product.Name
			}
			if unitType == "" {
				unitType = product.UnitType
			}
			if !priceSet {
				unitPrice = numericToDecimal(product.SalePrice)
			}
		} else {
			// Ad-hoc item: name and price must come from the request.
			if name == "" {
				return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
			}
			if !priceSet {
				return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidUnitPrice)
			}
		}

		if unitType == "" {
			unitType = enum.UnitTypeUnit
		}
		if !enum.IsValidUnitType(unitType) {
			return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidUnitType)
		}

		subtotal := unitPrice.Mul(qty)
		if !item.IsGift {
			total = total.Add(subtotal)
		}

		items = append(items, pricedItem{
			params: database.CreateOrderItemParams{
				ProductID:   productID,
				ProductName: name,
				Quantity:    decimalToNumeric(qty),
				UnitPrice:   decimalToNumeric(unitPrice),
				UnitType:    unitType,
				IsGift:      item.IsGift,
			},
			subtotal: subtotal,
			isGift:   item.IsGift,
		})
	}

	return items, total, nil
}

func insertItems(ctx context.Context, store OrderStore, orderID uuid.UUID, items []pricedItem) ([]database.OrderItem, error) {
	created := make([]database.OrderItem, 0, len(items))
	for _, pi := range items {
		pi.params.OrderID = orderID
		it, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, it)
	}
	return created, nil
}

// --- Helpers ---

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusQuote, enum.OrderStatusAwaitingDeposit,
		enum.OrderStatusInProduction, enum.OrderStatusReady,
		enum.OrderStatusDelivered, enum.OrderStatusCancelled:
		return true
	}
	return false
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodPix, enum.PaymentMethodCreditCard, enum.PaymentMethodLink:
		return true
	}
	return false
}

func parseOptionalDate(s string) (pgtype.Date, error) {
	if s == "" {
		return pgtype.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func today() pgtype.Date {
	return pgtype.Date{Time: time.Now(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
