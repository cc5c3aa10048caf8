package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/handler"
	"github.com/zapconfeitaria/api/internal/service"
	"github.com/zapconfeitaria/api/internal/ws"
)

// --- Mocks ---

// mockOrderService records calls and returns canned results so handler tests
// stay focused on HTTP mapping; the pricing and status rules live in the
// service package's own tests.
type mockOrderService struct {
	createReq  *service.CreateOrderRequest
	updateReq  *service.UpdateOrderRequest
	paymentReq *service.UpfrontPaymentRequest

	result    *service.OrderResult
	order     database.Order
	err       error
	deleteErr error
}

func (m *mockOrderService) CreateOrder(_ context.Context, req service.CreateOrderRequest) (*service.OrderResult, error) {
	m.createReq = &req
	return m.result, m.err
}

func (m *mockOrderService) UpdateOrder(_ context.Context, req service.UpdateOrderRequest) (*service.OrderResult, error) {
	m.updateReq = &req
	return m.result, m.err
}

func (m *mockOrderService) ChangeStatus(_ context.Context, _, _ uuid.UUID, newStatus string) (database.Order, error) {
	if m.err != nil {
		return database.Order{}, m.err
	}
	o := m.order
	o.Status = newStatus
	return o, nil
}

func (m *mockOrderService) SetDeposit(_ context.Context, _, _ uuid.UUID, paid bool) (database.Order, error) {
	if m.err != nil {
		return database.Order{}, m.err
	}
	o := m.order
	o.DepositPaid = paid
	return o, nil
}

func (m *mockOrderService) RecordUpfrontPayment(_ context.Context, req service.UpfrontPaymentRequest) (database.Order, error) {
	m.paymentReq = &req
	if m.err != nil {
		return database.Order{}, m.err
	}
	o := m.order
	o.FullPaymentReceived = true
	return o, nil
}

func (m *mockOrderService) DeleteOrder(_ context.Context, _, _ uuid.UUID) error {
	return m.deleteErr
}

type mockOrderReadStore struct {
	orders map[uuid.UUID]database.Order
	items  map[uuid.UUID][]database.OrderItem
}

func newMockOrderReadStore() *mockOrderReadStore {
	return &mockOrderReadStore{
		orders: make(map[uuid.UUID]database.Order),
		items:  make(map[uuid.UUID][]database.OrderItem),
	}
}

func (m *mockOrderReadStore) GetOrder(_ context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.AccountID != arg.AccountID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderReadStore) ListOrders(_ context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	var result []database.Order
	for _, o := range m.orders {
		if o.AccountID != arg.AccountID {
			continue
		}
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		if arg.StartDate.Valid && (!o.DeliveryDate.Valid || o.DeliveryDate.Time.Before(arg.StartDate.Time)) {
			continue
		}
		if arg.EndDate.Valid && (!o.DeliveryDate.Valid || o.DeliveryDate.Time.After(arg.EndDate.Time)) {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.items[orderID], nil
}

// mockHub captures websocket events emitted by handlers.
type mockHub struct {
	events []ws.Event
}

func (m *mockHub) BroadcastToAccount(_ uuid.UUID, event ws.Event) {
	m.events = append(m.events, event)
}

// --- Helpers ---

func setupOrderRouter(svc *mockOrderService, store *mockOrderReadStore, hub *mockHub) *chi.Mux {
	h := handler.NewOrderHandler(svc, store, hub)
	r := chi.NewRouter()
	r.Route("/accounts/{aid}/orders", h.RegisterRoutes)
	return r
}

func sampleOrder(t *testing.T, accountID uuid.UUID, status string) database.Order {
	t.Helper()
	return database.Order{
		ID:          uuid.New(),
		AccountID:   accountID,
		OrderNumber: 7,
		ClientID:    uuid.New(),
		Status:      status,
		DeliveryFee: mustNumeric(t, "15.00"),
		TotalAmount: mustNumeric(t, "180.00"),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func decodeOrderResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestOrderCreate(t *testing.T) {
	accountID := uuid.New()
	order := sampleOrder(t, accountID, "QUOTE")
	svc := &mockOrderService{result: &service.OrderResult{
		Order: order,
		Items: []database.OrderItem{{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductName: "Bolo de Cenoura",
			Quantity:    mustNumeric(t, "1"),
			UnitPrice:   mustNumeric(t, "165.00"),
			UnitType:    "UNIT",
		}},
	}}
	hub := &mockHub{}
	router := setupOrderRouter(svc, newMockOrderReadStore(), hub)

	payload, _ := json.Marshal(map[string]interface{}{
		"client_id":     order.ClientID.String(),
		"delivery_date": "2026-09-10",
		"delivery_fee":  "15.00",
		"items": []map[string]interface{}{
			{"product_name": "Bolo de Cenoura", "quantity": "1", "unit_price": "165.00", "unit_type": "UNIT"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/orders", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if svc.createReq == nil {
		t.Fatal("expected CreateOrder to be called")
	}
	if svc.createReq.AccountID != accountID {
		t.Errorf("expected account id %s, got %s", accountID, svc.createReq.AccountID)
	}
	if len(svc.createReq.Items) != 1 {
		t.Fatalf("expected 1 item passed to service, got %d", len(svc.createReq.Items))
	}

	resp := decodeOrderResponse(t, rr)
	if resp["total_amount"] != "180.00" {
		t.Errorf("expected total_amount 180.00, got %v", resp["total_amount"])
	}
	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("expected 1 item in response, got %d", len(items))
	}

	// Creation is announced on the account's websocket room
	if len(hub.events) != 1 || hub.events[0].Type != "order.created" {
		t.Errorf("expected order.created event, got %v", hub.events)
	}
}

func TestOrderCreateValidationError(t *testing.T) {
	accountID := uuid.New()
	svc := &mockOrderService{err: service.ErrEmptyItems}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]interface{}{
		"client_id": uuid.New().String(),
		"items":     []map[string]interface{}{},
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/orders", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderCreateClientNotFound(t *testing.T) {
	accountID := uuid.New()
	svc := &mockOrderService{err: service.ErrClientNotFound}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]interface{}{"client_id": uuid.New().String()})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/orders", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderList(t *testing.T) {
	accountID := uuid.New()
	store := newMockOrderReadStore()
	o1 := sampleOrder(t, accountID, "QUOTE")
	o2 := sampleOrder(t, accountID, "IN_PRODUCTION")
	other := sampleOrder(t, uuid.New(), "QUOTE")
	store.orders[o1.ID] = o1
	store.orders[o2.ID] = o2
	store.orders[other.ID] = other

	router := setupOrderRouter(&mockOrderService{}, store, &mockHub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeOrderResponse(t, rr)
	orders := resp["orders"].([]interface{})
	if len(orders) != 2 {
		t.Errorf("expected 2 orders, got %d", len(orders))
	}
}

func TestOrderListFilterByStatus(t *testing.T) {
	accountID := uuid.New()
	store := newMockOrderReadStore()
	o1 := sampleOrder(t, accountID, "QUOTE")
	o2 := sampleOrder(t, accountID, "IN_PRODUCTION")
	store.orders[o1.ID] = o1
	store.orders[o2.ID] = o2

	router := setupOrderRouter(&mockOrderService{}, store, &mockHub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/orders?status=QUOTE", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	resp := decodeOrderResponse(t, rr)
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	first := orders[0].(map[string]interface{})
	if first["status"] != "QUOTE" {
		t.Errorf("expected status QUOTE, got %v", first["status"])
	}
}

func TestOrderListFilterByDeliveryWindow(t *testing.T) {
	accountID := uuid.New()
	store := newMockOrderReadStore()

	inWindow := sampleOrder(t, accountID, "IN_PRODUCTION")
	inWindow.DeliveryDate = pgtype.Date{Time: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), Valid: true}
	outOfWindow := sampleOrder(t, accountID, "IN_PRODUCTION")
	outOfWindow.DeliveryDate = pgtype.Date{Time: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), Valid: true}
	store.orders[inWindow.ID] = inWindow
	store.orders[outOfWindow.ID] = outOfWindow

	router := setupOrderRouter(&mockOrderService{}, store, &mockHub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/orders?start_date=2026-09-01&end_date=2026-09-30", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	resp := decodeOrderResponse(t, rr)
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Errorf("expected 1 order in window, got %d", len(orders))
	}
}

func TestOrderListInvalidDate(t *testing.T) {
	accountID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore(), &mockHub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/orders?start_date=10-09-2026", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderGet(t *testing.T) {
	accountID := uuid.New()
	store := newMockOrderReadStore()
	order := sampleOrder(t, accountID, "IN_PRODUCTION")
	store.orders[order.ID] = order
	store.items[order.ID] = []database.OrderItem{{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ProductName: "Cento de Brigadeiro",
		Quantity:    mustNumeric(t, "2"),
		UnitPrice:   mustNumeric(t, "90.00"),
		UnitType:    "CENTO",
	}}

	router := setupOrderRouter(&mockOrderService{}, store, &mockHub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/orders/"+order.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeOrderResponse(t, rr)
	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["unit_price"] != "90.00" {
		t.Errorf("expected unit_price 90.00, got %v", item["unit_price"])
	}
}

func TestOrderGetNotFound(t *testing.T) {
	accountID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore(), &mockHub{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderUpdate(t *testing.T) {
	accountID := uuid.New()
	order := sampleOrder(t, accountID, "QUOTE")
	svc := &mockOrderService{result: &service.OrderResult{Order: order}}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]interface{}{
		"client_id": order.ClientID.String(),
		"items": []map[string]interface{}{
			{"product_name": "Bolo", "quantity": "1", "unit_price": "100.00", "unit_type": "UNIT"},
		},
	})
	req := httptest.NewRequest(http.MethodPut, "/accounts/"+accountID.String()+"/orders/"+order.ID.String(), bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.updateReq == nil {
		t.Fatal("expected UpdateOrder to be called")
	}
	if svc.updateReq.OrderID != order.ID {
		t.Errorf("expected order id %s, got %s", order.ID, svc.updateReq.OrderID)
	}
}

func TestOrderUpdateNotFound(t *testing.T) {
	accountID := uuid.New()
	svc := &mockOrderService{err: pgx.ErrNoRows}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]interface{}{"client_id": uuid.New().String()})
	req := httptest.NewRequest(http.MethodPut, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String(), bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	accountID := uuid.New()
	order := sampleOrder(t, accountID, "IN_PRODUCTION")
	svc := &mockOrderService{order: order}
	hub := &mockHub{}
	router := setupOrderRouter(svc, newMockOrderReadStore(), hub)

	payload, _ := json.Marshal(map[string]string{"status": "READY"})
	req := httptest.NewRequest(http.MethodPatch, "/accounts/"+accountID.String()+"/orders/"+order.ID.String()+"/status", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["status"] != "READY" {
		t.Errorf("expected status READY, got %v", resp["status"])
	}
	if len(hub.events) != 1 || hub.events[0].Type != "order.status_changed" {
		t.Errorf("expected order.status_changed event, got %v", hub.events)
	}
}

func TestOrderUpdateStatusMissing(t *testing.T) {
	accountID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPatch, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String()+"/status", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderUpdateStatusInvalid(t *testing.T) {
	accountID := uuid.New()
	svc := &mockOrderService{err: service.ErrInvalidStatus}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]string{"status": "SHIPPED"})
	req := httptest.NewRequest(http.MethodPatch, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String()+"/status", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderUpdateDeposit(t *testing.T) {
	accountID := uuid.New()
	order := sampleOrder(t, accountID, "AWAITING_DEPOSIT")
	svc := &mockOrderService{order: order}
	hub := &mockHub{}
	router := setupOrderRouter(svc, newMockOrderReadStore(), hub)

	payload, _ := json.Marshal(map[string]bool{"paid": true})
	req := httptest.NewRequest(http.MethodPatch, "/accounts/"+accountID.String()+"/orders/"+order.ID.String()+"/deposit", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["deposit_paid"] != true {
		t.Errorf("expected deposit_paid true, got %v", resp["deposit_paid"])
	}
	if len(hub.events) != 1 || hub.events[0].Type != "order.deposit_paid" {
		t.Errorf("expected order.deposit_paid event, got %v", hub.events)
	}
}

func TestOrderRecordPayment(t *testing.T) {
	accountID := uuid.New()
	order := sampleOrder(t, accountID, "IN_PRODUCTION")
	svc := &mockOrderService{order: order}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]string{
		"method":    "CREDIT_CARD",
		"fee_type":  "PERCENTAGE",
		"fee_value": "3.5",
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/orders/"+order.ID.String()+"/payment", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if svc.paymentReq == nil {
		t.Fatal("expected RecordUpfrontPayment to be called")
	}
	if svc.paymentReq.Method != "CREDIT_CARD" {
		t.Errorf("expected method CREDIT_CARD, got %s", svc.paymentReq.Method)
	}

	resp := decodeOrderResponse(t, rr)
	if resp["full_payment_received"] != true {
		t.Errorf("expected full_payment_received true, got %v", resp["full_payment_received"])
	}
}

func TestOrderRecordPaymentAlreadyPaid(t *testing.T) {
	accountID := uuid.New()
	svc := &mockOrderService{err: service.ErrAlreadyPaid}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	payload, _ := json.Marshal(map[string]string{"method": "PIX"})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String()+"/payment", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderDelete(t *testing.T) {
	accountID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore(), &mockHub{})

	req := httptest.NewRequest(http.MethodDelete, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
}

func TestOrderDeleteNotFound(t *testing.T) {
	accountID := uuid.New()
	svc := &mockOrderService{deleteErr: pgx.ErrNoRows}
	router := setupOrderRouter(svc, newMockOrderReadStore(), &mockHub{})

	req := httptest.NewRequest(http.MethodDelete, "/accounts/"+accountID.String()+"/orders/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderNilHubDoesNotPanic(t *testing.T) {
	accountID := uuid.New()
	order := sampleOrder(t, accountID, "QUOTE")
	svc := &mockOrderService{result: &service.OrderResult{Order: order}}
	h := handler.NewOrderHandler(svc, newMockOrderReadStore(), nil)
	r := chi.NewRouter()
	r.Route("/accounts/{aid}/orders", h.RegisterRoutes)

	payload, _ := json.Marshal(map[string]interface{}{"client_id": order.ClientID.String()})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/orders", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
}
