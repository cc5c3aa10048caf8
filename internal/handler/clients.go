package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zapconfeitaria/api/internal/database"
)

// ClientStore defines the database methods needed by client handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ClientStore interface {
	ListClientsByAccount(ctx context.Context, arg database.ListClientsByAccountParams) ([]database.Client, error)
	GetClient(ctx context.Context, arg database.GetClientParams) (database.Client, error)
	CreateClient(ctx context.Context, arg database.CreateClientParams) (database.Client, error)
	UpdateClient(ctx context.Context, arg database.UpdateClientParams) (database.Client, error)
	SoftDeleteClient(ctx context.Context, arg database.SoftDeleteClientParams) (uuid.UUID, error)
	ListOrdersByClient(ctx context.Context, arg database.ListOrdersByClientParams) ([]database.Order, error)
}

// ClientHandler handles client CRUD endpoints.
type ClientHandler struct {
	store ClientStore
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(store ClientStore) *ClientHandler {
	return &ClientHandler{store: store}
}

// RegisterRoutes registers client CRUD endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/clients
func (h *ClientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/orders", h.Orders)
	})
}

// --- Request / Response types ---

type clientRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"` // YYYY-MM-DD
	Notes    string `json:"notes"`
}

type clientResponse struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	Birthday  *string   `json:"birthday"`
	Notes     *string   `json:"notes"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toClientResponse(c database.Client) clientResponse {
	resp := clientResponse{
		ID:        c.ID,
		AccountID: c.AccountID,
		Name:      c.Name,
		Phone:     c.Phone,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Email.Valid {
		resp.Email = &c.Email.String
	}
	if c.Birthday.Valid {
		b := c.Birthday.Time.Format("2006-01-02")
		resp.Birthday = &b
	}
	if c.Notes.Valid {
		resp.Notes = &c.Notes.String
	}
	return resp
}

// parseClientRequest validates the shared create/update payload.
func parseClientRequest(req clientRequest) (database.CreateClientParams, string) {
	if req.Name == "" {
		return database.CreateClientParams{}, "name is required"
	}
	if req.Phone == "" {
		return database.CreateClientParams{}, "phone is required"
	}

	var email pgtype.Text
	if req.Email != "" {
		email = pgtype.Text{String: req.Email, Valid: true}
	}
	var notes pgtype.Text
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	var birthday pgtype.Date
	if req.Birthday != "" {
		t, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return database.CreateClientParams{}, "invalid birthday, expected YYYY-MM-DD"
		}
		birthday = pgtype.Date{Time: t, Valid: true}
	}

	return database.CreateClientParams{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    email,
		Birthday: birthday,
		Notes:    notes,
	}, ""
}

// --- Handlers ---

// List returns all active clients for the account, with optional search over
// name and phone.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	limit, offset := parsePagination(r)

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	clients, err := h.store.ListClientsByAccount(r.Context(), database.ListClientsByAccountParams{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
		Search:    search,
	})
	if err != nil {
		log.Printf("ERROR: list clients: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]clientResponse, len(clients))
	for i, c := range clients {
		resp[i] = toClientResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single client by ID.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client ID"})
		return
	}

	client, err := h.store.GetClient(r.Context(), database.GetClientParams{
		ID:        clientID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
			return
		}
		log.Printf("ERROR: get client: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(client))
}

// Create adds a new client to the account.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := parseClientRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	params.AccountID = accountID

	client, err := h.store.CreateClient(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "phone already exists for this account"})
			return
		}
		log.Printf("ERROR: create client: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toClientResponse(client))
}

// Update modifies an existing client.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client ID"})
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := parseClientRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	client, err := h.store.UpdateClient(r.Context(), database.UpdateClientParams{
		ID:        clientID,
		AccountID: accountID,
		Name:      params.Name,
		Phone:     params.Phone,
		Email:     params.Email,
		Birthday:  params.Birthday,
		Notes:     params.Notes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "phone already exists for this account"})
			return
		}
		log.Printf("ERROR: update client: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(client))
}

// Delete soft-deletes a client by setting is_active=false. Order history keeps
// pointing at the row.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client ID"})
		return
	}

	_, err = h.store.SoftDeleteClient(r.Context(), database.SoftDeleteClientParams{
		ID:        clientID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
			return
		}
		log.Printf("ERROR: delete client: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Orders returns order history for a client.
func (h *ClientHandler) Orders(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client ID"})
		return
	}

	// Verify client exists and belongs to account
	_, err = h.store.GetClient(r.Context(), database.GetClientParams{
		ID:        clientID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
			return
		}
		log.Printf("ERROR: get client for orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	limit, offset := parsePagination(r)

	orders, err := h.store.ListOrdersByClient(r.Context(), database.ListOrdersByClientParams{
		ClientID:  clientID,
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		log.Printf("ERROR: list client orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// parsePagination reads limit/offset query params with sane defaults.
func parsePagination(r *http.Request) (int32, int32) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return int32(limit), int32(offset)
}
