package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/handler"
)

// --- Mock store ---

type mockClientStore struct {
	clients map[uuid.UUID]database.Client // keyed by client ID
	orders  map[uuid.UUID]database.Order  // keyed by order ID
}

func newMockClientStore() *mockClientStore {
	return &mockClientStore{
		clients: make(map[uuid.UUID]database.Client),
		orders:  make(map[uuid.UUID]database.Order),
	}
}

func (m *mockClientStore) ListClientsByAccount(_ context.Context, arg database.ListClientsByAccountParams) ([]database.Client, error) {
	var result []database.Client
	for _, c := range m.clients {
		if c.AccountID == arg.AccountID && c.IsActive {
			// Apply search filter
			if arg.Search.Valid {
				search := strings.ToLower(arg.Search.String)
				if !strings.Contains(strings.ToLower(c.Phone), search) && !strings.Contains(strings.ToLower(c.Name), search) {
					continue
				}
			}
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockClientStore) GetClient(_ context.Context, arg database.GetClientParams) (database.Client, error) {
	c, ok := m.clients[arg.ID]
	if !ok || c.AccountID != arg.AccountID || !c.IsActive {
		return database.Client{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockClientStore) CreateClient(_ context.Context, arg database.CreateClientParams) (database.Client, error) {
	// Check for duplicate phone in same account
	for _, c := range m.clients {
		if c.AccountID == arg.AccountID && c.Phone == arg.Phone && c.IsActive {
			return database.Client{}, &pgconn.PgError{Code: "23505"}
		}
	}

	c := database.Client{
		ID:        uuid.New(),
		AccountID: arg.AccountID,
		Name:      arg.Name,
		Phone:     arg.Phone,
		Email:     arg.Email,
		Birthday:  arg.Birthday,
		Notes:     arg.Notes,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.clients[c.ID] = c
	return c, nil
}

func (m *mockClientStore) UpdateClient(_ context.Context, arg database.UpdateClientParams) (database.Client, error) {
	c, ok := m.clients[arg.ID]
	if !ok || c.AccountID != arg.AccountID || !c.IsActive {
		return database.Client{}, pgx.ErrNoRows
	}

	// Check for duplicate phone in same account (excluding self)
	for _, existing := range m.clients {
		if existing.ID != arg.ID && existing.AccountID == arg.AccountID && existing.Phone == arg.Phone && existing.IsActive {
			return database.Client{}, &pgconn.PgError{Code: "23505"}
		}
	}

	c.Name = arg.Name
	c.Phone = arg.Phone
	c.Email = arg.Email
	c.Birthday = arg.Birthday
	c.Notes = arg.Notes
	c.UpdatedAt = time.Now()
	m.clients[c.ID] = c
	return c, nil
}

func (m *mockClientStore) SoftDeleteClient(_ context.Context, arg database.SoftDeleteClientParams) (uuid.UUID, error) {
	c, ok := m.clients[arg.ID]
	if !ok || c.AccountID != arg.AccountID || !c.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	c.IsActive = false
	c.UpdatedAt = time.Now()
	m.clients[c.ID] = c
	return c.ID, nil
}

func (m *mockClientStore) ListOrdersByClient(_ context.Context, arg database.ListOrdersByClientParams) ([]database.Order, error) {
	var result []database.Order
	for _, o := range m.orders {
		if o.ClientID == arg.ClientID && o.AccountID == arg.AccountID {
			result = append(result, o)
		}
	}
	return result, nil
}

// --- Helpers ---

func setupClientRouter(store *mockClientStore) *chi.Mux {
	h := handler.NewClientHandler(store)
	r := chi.NewRouter()
	r.Route("/accounts/{aid}/clients", h.RegisterRoutes)
	return r
}

func decodeClientResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeClientListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func seedClient(store *mockClientStore, accountID uuid.UUID, name, phone string) database.Client {
	c := database.Client{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Phone:     phone,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.clients[c.ID] = c
	return c
}

// --- Tests ---

func TestClientList(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	seedClient(store, accountID, "Ana Souza", "11987654321")
	seedClient(store, accountID, "Bruno Lima", "11912345678")

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	resp := decodeClientListResponse(t, rr)
	if len(resp) != 2 {
		t.Errorf("expected 2 clients, got %d", len(resp))
	}
}

func TestClientListWithSearch(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	seedClient(store, accountID, "Ana Souza", "11987654321")
	seedClient(store, accountID, "Bruno Lima", "11912345678")

	// Search by phone prefix
	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients?search=11987", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	resp := decodeClientListResponse(t, rr)
	if len(resp) != 1 {
		t.Errorf("expected 1 client, got %d", len(resp))
	}
}

func TestClientListScopedToAccount(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	otherAccount := uuid.New()
	seedClient(store, accountID, "Ana Souza", "11987654321")
	seedClient(store, otherAccount, "Carlos Prado", "21999998888")

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	resp := decodeClientListResponse(t, rr)
	if len(resp) != 1 {
		t.Errorf("expected 1 client, got %d", len(resp))
	}
	if resp[0]["name"] != "Ana Souza" {
		t.Errorf("expected Ana Souza, got %v", resp[0]["name"])
	}
}

func TestClientCreate(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()

	body := map[string]string{
		"name":     "Ana Souza",
		"phone":    "11987654321",
		"email":    "ana@example.com",
		"birthday": "1990-05-12",
		"notes":    "prefere chocolate",
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/clients", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeClientResponse(t, rr)
	if resp["name"] != "Ana Souza" {
		t.Errorf("expected name Ana Souza, got %v", resp["name"])
	}
	if resp["birthday"] != "1990-05-12" {
		t.Errorf("expected birthday 1990-05-12, got %v", resp["birthday"])
	}
}

func TestClientCreateMissingName(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()

	payload, _ := json.Marshal(map[string]string{"phone": "11987654321"})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/clients", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestClientCreateInvalidBirthday(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()

	payload, _ := json.Marshal(map[string]string{
		"name":     "Ana Souza",
		"phone":    "11987654321",
		"birthday": "12/05/1990",
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/clients", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestClientCreateDuplicatePhone(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	seedClient(store, accountID, "Ana Souza", "11987654321")

	payload, _ := json.Marshal(map[string]string{
		"name":  "Outra Ana",
		"phone": "11987654321",
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/clients", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestClientGet(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	c := seedClient(store, accountID, "Ana Souza", "11987654321")

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients/"+c.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeClientResponse(t, rr)
	if resp["id"] != c.ID.String() {
		t.Errorf("expected id %s, got %v", c.ID, resp["id"])
	}
}

func TestClientGetNotFound(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestClientGetWrongAccount(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	c := seedClient(store, accountID, "Ana Souza", "11987654321")

	// Request through a different account path
	req := httptest.NewRequest(http.MethodGet, "/accounts/"+uuid.New().String()+"/clients/"+c.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestClientUpdate(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	c := seedClient(store, accountID, "Ana Souza", "11987654321")

	payload, _ := json.Marshal(map[string]string{
		"name":  "Ana Souza Prado",
		"phone": "11987654321",
		"notes": "aniversário em maio",
	})
	req := httptest.NewRequest(http.MethodPut, "/accounts/"+accountID.String()+"/clients/"+c.ID.String(), bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeClientResponse(t, rr)
	if resp["name"] != "Ana Souza Prado" {
		t.Errorf("expected updated name, got %v", resp["name"])
	}
	if resp["notes"] != "aniversário em maio" {
		t.Errorf("expected updated notes, got %v", resp["notes"])
	}
}

func TestClientDelete(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	c := seedClient(store, accountID, "Ana Souza", "11987654321")

	req := httptest.NewRequest(http.MethodDelete, "/accounts/"+accountID.String()+"/clients/"+c.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	// Soft delete: row stays but is no longer active
	if store.clients[c.ID].IsActive {
		t.Error("expected client to be inactive after delete")
	}

	// And it disappears from GET
	req = httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients/"+c.ID.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", rr.Code)
	}
}

func TestClientOrders(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()
	c := seedClient(store, accountID, "Ana Souza", "11987654321")

	var total pgtype.Numeric
	_ = total.Scan("150.00")
	order := database.Order{
		ID:          uuid.New(),
		AccountID:   accountID,
		OrderNumber: 1,
		ClientID:    c.ID,
		Status:      "QUOTE",
		TotalAmount: total,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	store.orders[order.ID] = order

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients/"+c.ID.String()+"/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeClientListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["total_amount"] != "150.00" {
		t.Errorf("expected total_amount 150.00, got %v", resp[0]["total_amount"])
	}
}

func TestClientOrdersClientNotFound(t *testing.T) {
	store := newMockClientStore()
	router := setupClientRouter(store)

	accountID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/clients/"+uuid.New().String()+"/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
