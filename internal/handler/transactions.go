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
	"github.com/zapconfeitaria/api/internal/enum"
	"github.com/zapconfeitaria/api/internal/finance/parser"
)

// TransactionStore defines the database methods needed by transaction handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TransactionStore interface {
	ListTransactions(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error)
	GetTransaction(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error)
	CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	UpdateTransaction(ctx context.Context, arg database.UpdateTransactionParams) (database.Transaction, error)
	DeleteTransaction(ctx context.Context, arg database.DeleteTransactionParams) (uuid.UUID, error)
}

// TransactionHandler handles manual ledger entry endpoints. Order-linked
// postings are created by the order service, not here.
type TransactionHandler struct {
	store TransactionStore
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(store TransactionStore) *TransactionHandler {
	return &TransactionHandler{store: store}
}

// RegisterRoutes registers transaction CRUD endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/transactions
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type transactionRequest struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	OccurredOn  string `json:"occurred_on"` // YYYY-MM-DD, defaults to today
}

type transactionResponse struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	OrderID       *string   `json:"order_id"`
	Type          string    `json:"type"`
	Category      *string   `json:"category"`
	CategoryLabel *string   `json:"category_label"`
	Description   string    `json:"description"`
	Amount        string    `json:"amount"`
	OccurredOn    string    `json:"occurred_on"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTransactionResponse(t database.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Type:        t.Type,
		Description: t.Description,
		Amount:      numericToString(t.Amount),
		CreatedAt:   t.CreatedAt,
	}
	if t.OrderID.Valid {
		s := uuid.UUID(t.OrderID.Bytes).String()
		resp.OrderID = &s
	}
	if t.Category.Valid {
		resp.Category = &t.Category.String
		label := enum.CategoryLabel(t.Category.String)
		resp.CategoryLabel = &label
	}
	if t.OccurredOn.Valid {
		resp.OccurredOn = t.OccurredOn.Time.Format("2006-01-02")
	}
	return resp
}

// parseTransactionRequest validates the shared create/update payload. When no
// category is given one is recovered from the description the way the
// predecessor encoded it: a recognized "Label - rest" prefix is split into
// category plus clean description, keywords classify plain expense text, and
// an unrecognized description is stored verbatim with a NULL category.
func parseTransactionRequest(req transactionRequest) (database.CreateTransactionParams, string) {
	if req.Type != enum.TransactionTypeIncome && req.Type != enum.TransactionTypeExpense {
		return database.CreateTransactionParams{}, "type must be INCOME or EXPENSE"
	}
	if req.Description == "" {
		return database.CreateTransactionParams{}, "description is required"
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return database.CreateTransactionParams{}, "amount must be a positive number"
	}
	var amt pgtype.Numeric
	if err := amt.Scan(amount.StringFixed(2)); err != nil {
		return database.CreateTransactionParams{}, "amount must be a positive number"
	}

	category := pgtype.Text{String: req.Category, Valid: req.Category != ""}
	description := req.Description
	if req.Category == "" {
		if cat, clean, ok := parser.Parse(req.Type, req.Description); ok {
			category = pgtype.Text{String: cat, Valid: true}
			description = clean
		}
	}

	occurredOn := pgtype.Date{Time: time.Now().UTC().Truncate(24 * time.Hour), Valid: true}
	if req.OccurredOn != "" {
		t, err := time.Parse("2006-01-02", req.OccurredOn)
		if err != nil {
			return database.CreateTransactionParams{}, "invalid occurred_on, expected YYYY-MM-DD"
		}
		occurredOn = pgtype.Date{Time: t, Valid: true}
	}

	return database.CreateTransactionParams{
		Type:        req.Type,
		Category:    category,
		Description: description,
		Amount:      amt,
		OccurredOn:  occurredOn,
	}, ""
}

// --- Handlers ---

// List returns the account's ledger with optional type and date range filters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	limit, offset := parsePagination(r)

	params := database.ListTransactionsParams{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	}

	if s := r.URL.Query().Get("type"); s != "" {
		if s != enum.TransactionTypeIncome && s != enum.TransactionTypeExpense {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be INCOME or EXPENSE"})
			return
		}
		params.Type = pgtype.Text{String: s, Valid: true}
	}

	startDate, endDate, errMsg := parseDateRange(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	params.StartDate = startDate
	params.EndDate = endDate

	txs, err := h.store.ListTransactions(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]transactionResponse, len(txs))
	for i, t := range txs {
		resp[i] = toTransactionResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid transaction ID"})
		return
	}

	tx, err := h.store.GetTransaction(r.Context(), database.GetTransactionParams{
		ID:        txID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "transaction not found"})
			return
		}
		log.Printf("ERROR: get transaction: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// Create adds a manual ledger entry.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := parseTransactionRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	params.AccountID = accountID

	tx, err := h.store.CreateTransaction(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create transaction: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// Update modifies a manual ledger entry.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid transaction ID"})
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := parseTransactionRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	tx, err := h.store.UpdateTransaction(r.Context(), database.UpdateTransactionParams{
		ID:          txID,
		AccountID:   accountID,
		Type:        params.Type,
		Category:    params.Category,
		Description: params.Description,
		Amount:      params.Amount,
		OccurredOn:  params.OccurredOn,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "transaction not found"})
			return
		}
		log.Printf("ERROR: update transaction: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// Delete removes a ledger entry.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid transaction ID"})
		return
	}

	_, err = h.store.DeleteTransaction(r.Context(), database.DeleteTransactionParams{
		ID:        txID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "transaction not found"})
			return
		}
		log.Printf("ERROR: delete transaction: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseDateRange reads optional start_date/end_date query params.
func parseDateRange(r *http.Request) (pgtype.Date, pgtype.Date, string) {
	var start, end pgtype.Date
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, "invalid start_date format, use YYYY-MM-DD"
		}
		start = pgtype.Date{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, "invalid end_date format, use YYYY-MM-DD"
		}
		end = pgtype.Date{Time: t, Valid: true}
	}
	return start, end, ""
}
