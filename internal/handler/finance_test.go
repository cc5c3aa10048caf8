package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/handler"
)

// --- Mock store ---

type mockFinanceStore struct {
	txs    []database.Transaction
	orders []database.Order
	items  []database.DeliveredOrderItemRow
}

func (m *mockFinanceStore) ListTransactionsInPeriod(_ context.Context, arg database.ListTransactionsInPeriodParams) ([]database.Transaction, error) {
	var result []database.Transaction
	for _, tx := range m.txs {
		if tx.AccountID != arg.AccountID {
			continue
		}
		if arg.StartDate.Valid && tx.OccurredOn.Time.Before(arg.StartDate.Time) {
			continue
		}
		if arg.EndDate.Valid && tx.OccurredOn.Time.After(arg.EndDate.Time) {
			continue
		}
		result = append(result, tx)
	}
	return result, nil
}

func (m *mockFinanceStore) ListDeliveredOrders(_ context.Context, _ database.ListDeliveredOrdersParams) ([]database.Order, error) {
	return m.orders, nil
}

func (m *mockFinanceStore) ListDeliveredOrderItems(_ context.Context, _ database.ListDeliveredOrderItemsParams) ([]database.DeliveredOrderItemRow, error) {
	return m.items, nil
}

// --- Helpers ---

func setupFinanceRouter(store *mockFinanceStore) *chi.Mux {
	h := handler.NewFinanceHandler(store)
	r := chi.NewRouter()
	r.Route("/accounts/{aid}/finance", h.RegisterRoutes)
	return r
}

func financeTx(t *testing.T, accountID uuid.UUID, txType, category, amount string, day time.Time) database.Transaction {
	t.Helper()
	return database.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Type:        txType,
		Category:    pgtype.Text{String: category, Valid: true},
		Description: "lançamento",
		Amount:      mustNumeric(t, amount),
		OccurredOn:  pgtype.Date{Time: day, Valid: true},
		CreatedAt:   time.Now(),
	}
}

// --- Tests ---

func TestFinanceSummary(t *testing.T) {
	accountID := uuid.New()
	orderID := uuid.New()
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	store := &mockFinanceStore{
		txs: []database.Transaction{
			financeTx(t, accountID, "INCOME", "DEPOSIT", "300.00", day),
			financeTx(t, accountID, "INCOME", "FINAL_PAYMENT", "300.00", day),
			financeTx(t, accountID, "EXPENSE", "INGREDIENTS", "150.00", day),
		},
		orders: []database.Order{
			{ID: orderID, AccountID: accountID, Status: "DELIVERED", TotalAmount: mustNumeric(t, "620.00")},
		},
		items: []database.DeliveredOrderItemRow{
			{
				OrderID:   orderID,
				Quantity:  mustNumeric(t, "2"),
				CostPrice: mustNumeric(t, "100.00"),
			},
		},
	}
	router := setupFinanceRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/finance/summary", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["total_income"] != "600.00" {
		t.Errorf("expected total_income 600.00, got %v", resp["total_income"])
	}
	if resp["total_expenses"] != "150.00" {
		t.Errorf("expected total_expenses 150.00, got %v", resp["total_expenses"])
	}
	if resp["balance"] != "450.00" {
		t.Errorf("expected balance 450.00, got %v", resp["balance"])
	}
	// Revenue is the delivered order total (620, delivery fee included),
	// cost is the non-gift item snapshot (200)
	if resp["gross_profit"] != "420.00" {
		t.Errorf("expected gross_profit 420.00, got %v", resp["gross_profit"])
	}
}

func TestFinanceSummaryEmpty(t *testing.T) {
	accountID := uuid.New()
	router := setupFinanceRouter(&mockFinanceStore{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/finance/summary", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["balance"] != "0.00" {
		t.Errorf("expected balance 0.00, got %v", resp["balance"])
	}
	if resp["profit_margin"] != "0.00" {
		t.Errorf("expected profit_margin 0.00, got %v", resp["profit_margin"])
	}
}

func TestFinanceSummaryInvalidDate(t *testing.T) {
	accountID := uuid.New()
	router := setupFinanceRouter(&mockFinanceStore{})

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/finance/summary?start_date=10-08-2026", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestFinanceExpensesByCategory(t *testing.T) {
	accountID := uuid.New()
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	store := &mockFinanceStore{
		txs: []database.Transaction{
			financeTx(t, accountID, "EXPENSE", "INGREDIENTS", "100.00", day),
			financeTx(t, accountID, "EXPENSE", "INGREDIENTS", "50.00", day),
			financeTx(t, accountID, "EXPENSE", "PACKAGING", "30.00", day),
			financeTx(t, accountID, "INCOME", "DEPOSIT", "500.00", day),
		},
	}
	router := setupFinanceRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/finance/expenses-by-category", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(resp))
	}
	// Canonical category order puts ingredients first
	if resp[0]["category"] != "INGREDIENTS" || resp[0]["total"] != "150.00" {
		t.Errorf("expected INGREDIENTS 150.00 first, got %v %v", resp[0]["category"], resp[0]["total"])
	}
	if resp[0]["label"] != "Insumos" {
		t.Errorf("expected label Insumos, got %v", resp[0]["label"])
	}
}
