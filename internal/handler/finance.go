package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/finance"
)

// FinanceStore defines the database methods needed by finance report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type FinanceStore interface {
	ListTransactionsInPeriod(ctx context.Context, arg database.ListTransactionsInPeriodParams) ([]database.Transaction, error)
	ListDeliveredOrders(ctx context.Context, arg database.ListDeliveredOrdersParams) ([]database.Order, error)
	ListDeliveredOrderItems(ctx context.Context, arg database.ListDeliveredOrderItemsParams) ([]database.DeliveredOrderItemRow, error)
}

// FinanceHandler serves the dashboard aggregates: period summary and expense
// breakdown by category.
type FinanceHandler struct {
	store FinanceStore
}

// NewFinanceHandler creates a new FinanceHandler.
func NewFinanceHandler(store FinanceStore) *FinanceHandler {
	return &FinanceHandler{store: store}
}

// RegisterRoutes registers finance report endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/finance
func (h *FinanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/expenses-by-category", h.ExpensesByCategory)
}

// --- Response types ---

type financeSummaryResponse struct {
	TotalIncome   string `json:"total_income"`
	TotalExpenses string `json:"total_expenses"`
	Balance       string `json:"balance"`
	GrossProfit   string `json:"gross_profit"`
	ProfitMargin  string `json:"profit_margin"`
}

type categoryBreakdownResponse struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Total    string `json:"total"`
}

// --- Handlers ---

// Summary handles GET /accounts/{aid}/finance/summary. Cash totals come from
// the ledger; gross profit and margin from delivered orders and their item
// cost snapshots.
func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	startDate, endDate, errMsg := parseDateRange(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	txs, err := h.store.ListTransactionsInPeriod(r.Context(), database.ListTransactionsInPeriodParams{
		AccountID: accountID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: list transactions for summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orders, err := h.store.ListDeliveredOrders(r.Context(), database.ListDeliveredOrdersParams{
		AccountID: accountID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: list delivered orders for summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListDeliveredOrderItems(r.Context(), database.ListDeliveredOrderItemsParams{
		AccountID: accountID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: list delivered items for summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s := finance.Summarize(txs, orders, items)

	writeJSON(w, http.StatusOK, financeSummaryResponse{
		TotalIncome:   s.TotalIncome.StringFixed(2),
		TotalExpenses: s.TotalExpenses.StringFixed(2),
		Balance:       s.Balance.StringFixed(2),
		GrossProfit:   s.GrossProfit.StringFixed(2),
		ProfitMargin:  s.ProfitMargin.StringFixed(2),
	})
}

// ExpensesByCategory handles GET /accounts/{aid}/finance/expenses-by-category.
func (h *FinanceHandler) ExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	startDate, endDate, errMsg := parseDateRange(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	txs, err := h.store.ListTransactionsInPeriod(r.Context(), database.ListTransactionsInPeriodParams{
		AccountID: accountID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: list transactions for breakdown: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	breakdown := finance.ExpensesByCategory(txs)
	resp := make([]categoryBreakdownResponse, len(breakdown))
	for i, b := range breakdown {
		resp[i] = categoryBreakdownResponse{
			Category: b.Category,
			Label:    b.Label,
			Total:    b.Total.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
