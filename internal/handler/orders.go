package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/service"
	"github.com/zapconfeitaria/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	UpdateOrder(ctx context.Context, req service.UpdateOrderRequest) (*service.OrderResult, error)
	ChangeStatus(ctx context.Context, accountID, orderID uuid.UUID, newStatus string) (database.Order, error)
	SetDeposit(ctx context.Context, accountID, orderID uuid.UUID, paid bool) (database.Order, error)
	RecordUpfrontPayment(ctx context.Context, req service.UpfrontPaymentRequest) (database.Order, error)
	DeleteOrder(ctx context.Context, accountID, orderID uuid.UUID) error
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// Broadcaster pushes events to the account's websocket room.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToAccount(accountID uuid.UUID, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler. hub may be nil in tests.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Patch("/status", h.UpdateStatus)
		r.Patch("/deposit", h.UpdateDeposit)
		r.Post("/payment", h.RecordPayment)
	})
}

// --- Request / Response types ---

type orderItemPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	UnitType    string `json:"unit_type"`
	IsGift      bool   `json:"is_gift"`
}

type orderRequest struct {
	ClientID        string             `json:"client_id"`
	Status          string             `json:"status"`
	DeliveryDate    string             `json:"delivery_date"`
	DeliveryTime    string             `json:"delivery_time"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryFee     string             `json:"delivery_fee"`
	Notes           string             `json:"notes"`
	Items           []orderItemPayload `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateDepositRequest struct {
	Paid bool `json:"paid"`
}

type recordPaymentRequest struct {
	Method   string `json:"method"`
	FeeType  string `json:"fee_type"`
	FeeValue string `json:"fee_value"`
}

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	AccountID           uuid.UUID           `json:"account_id"`
	OrderNumber         int32               `json:"order_number"`
	ClientID            uuid.UUID           `json:"client_id"`
	Status              string              `json:"status"`
	DeliveryDate        *string             `json:"delivery_date"`
	DeliveryTime        *string             `json:"delivery_time"`
	DeliveryAddress     *string             `json:"delivery_address"`
	DeliveryFee         string              `json:"delivery_fee"`
	TotalAmount         string              `json:"total_amount"`
	DepositPaid         bool                `json:"deposit_paid"`
	FullPaymentReceived bool                `json:"full_payment_received"`
	PaymentMethod       *string             `json:"payment_method"`
	PaymentFee          *string             `json:"payment_fee"`
	Notes               *string             `json:"notes"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	Items               []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   *string   `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	UnitType    string    `json:"unit_type"`
	IsGift      bool      `json:"is_gift"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
}

// --- Handlers ---

// Create handles POST /accounts/{aid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		AccountID:       accountID,
		ClientID:        req.ClientID,
		Status:          req.Status,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryFee:     req.DeliveryFee,
		Notes:           req.Notes,
		Items:           toServiceItems(req.Items),
	})
	if err != nil {
		h.writeServiceError(w, err, "create order")
		return
	}

	resp := toOrderResult(result)
	h.broadcast(accountID, "order.created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /accounts/{aid}/orders with optional status and delivery
// date range filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	limit, offset := parsePagination(r)

	params := database.ListOrdersParams{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	}

	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Date{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Date{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /accounts/{aid}/orders/{id} and includes the order's items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:        orderID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /accounts/{aid}/orders/{id}. Items are replaced wholesale
// and the total is re-priced.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdateOrder(r.Context(), service.UpdateOrderRequest{
		AccountID:       accountID,
		OrderID:         orderID,
		ClientID:        req.ClientID,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryFee:     req.DeliveryFee,
		Notes:           req.Notes,
		Items:           toServiceItems(req.Items),
	})
	if err != nil {
		h.writeServiceError(w, err, "update order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResult(result))
}

// UpdateStatus handles PATCH /accounts/{aid}/orders/{id}/status. Moving to
// DELIVERED or CANCELLED also adjusts the financial ledger.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.ChangeStatus(r.Context(), accountID, orderID, req.Status)
	if err != nil {
		h.writeServiceError(w, err, "update order status")
		return
	}

	resp := dbOrderToResponse(order)
	h.broadcast(accountID, "order.status_changed", resp)
	writeJSON(w, http.StatusOK, resp)
}

// UpdateDeposit handles PATCH /accounts/{aid}/orders/{id}/deposit. Marking
// the deposit paid posts half the total as income and moves a quote into
// production.
func (h *OrderHandler) UpdateDeposit(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.SetDeposit(r.Context(), accountID, orderID, req.Paid)
	if err != nil {
		h.writeServiceError(w, err, "update order deposit")
		return
	}

	resp := dbOrderToResponse(order)
	h.broadcast(accountID, "order.deposit_paid", resp)
	writeJSON(w, http.StatusOK, resp)
}

// RecordPayment handles POST /accounts/{aid}/orders/{id}/payment, settling
// the remaining balance in one upfront payment.
func (h *OrderHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.RecordUpfrontPayment(r.Context(), service.UpfrontPaymentRequest{
		AccountID: accountID,
		OrderID:   orderID,
		Method:    req.Method,
		FeeType:   req.FeeType,
		FeeValue:  req.FeeValue,
	})
	if err != nil {
		if errors.Is(err, service.ErrAlreadyPaid) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already fully paid"})
			return
		}
		h.writeServiceError(w, err, "record payment")
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Delete handles DELETE /accounts/{aid}/orders/{id}. The order, its items and
// its ledger entries are removed together.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), accountID, orderID); err != nil {
		h.writeServiceError(w, err, "delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func toServiceItems(items []orderItemPayload) []service.OrderItemRequest {
	out := make([]service.OrderItemRequest, len(items))
	for i, item := range items {
		out[i] = service.OrderItemRequest{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitType:    item.UnitType,
			IsGift:      item.IsGift,
		}
	}
	return out
}

// writeServiceError maps known service errors to HTTP status codes.
func (h *OrderHandler) writeServiceError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if isOrderValidationError(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("ERROR: %s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidClientID) ||
		errors.Is(err, service.ErrClientNotFound) ||
		errors.Is(err, service.ErrProductNotFound) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidUnitPrice) ||
		errors.Is(err, service.ErrInvalidUnitType) ||
		errors.Is(err, service.ErrInvalidDeliveryFee) ||
		errors.Is(err, service.ErrInvalidDeliveryDate) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidFeeType) ||
		errors.Is(err, service.ErrInvalidFeeValue)
}

// broadcast pushes an order event to the account's websocket room. Payload
// marshalling failures are logged and dropped, never surfaced to the caller.
func (h *OrderHandler) broadcast(accountID uuid.UUID, eventType string, payload interface{}) {
	if h.hub == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.hub.BroadcastToAccount(accountID, ws.Event{Type: eventType, Payload: raw})
}

func toOrderResult(result *service.OrderResult) orderResponse {
	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	return resp
}

// dbOrderToResponse converts a database.Order to an orderResponse without
// items; read endpoints attach items separately.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:                  o.ID,
		AccountID:           o.AccountID,
		OrderNumber:         o.OrderNumber,
		ClientID:            o.ClientID,
		Status:              o.Status,
		DeliveryFee:         numericToString(o.DeliveryFee),
		TotalAmount:         numericToString(o.TotalAmount),
		DepositPaid:         o.DepositPaid,
		FullPaymentReceived: o.FullPaymentReceived,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}

	if o.DeliveryDate.Valid {
		s := o.DeliveryDate.Time.Format("2006-01-02")
		resp.DeliveryDate = &s
	}
	if o.DeliveryTime.Valid {
		resp.DeliveryTime = &o.DeliveryTime.String
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.PaymentFee.Valid {
		s := numericToString(o.PaymentFee)
		resp.PaymentFee = &s
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}

	return resp
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:          item.ID,
		ProductName: item.ProductName,
		Quantity:    numericToString(item.Quantity),
		UnitPrice:   numericToString(item.UnitPrice),
		UnitType:    item.UnitType,
		IsGift:      item.IsGift,
	}
	if item.ProductID.Valid {
		s := uuid.UUID(item.ProductID.Bytes).String()
		resp.ProductID = &s
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
