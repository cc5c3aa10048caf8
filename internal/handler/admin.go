package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zapconfeitaria/api/internal/database"
)

// AdminStore defines the database methods needed by the admin console.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminStore interface {
	ListAccounts(ctx context.Context, arg database.ListAccountsParams) ([]database.User, error)
	ListSubscriptions(ctx context.Context, arg database.ListSubscriptionsParams) ([]database.Subscription, error)
}

// AdminHandler serves the cross-tenant admin console. Mounted behind the
// ADMIN role middleware.
type AdminHandler struct {
	store AdminStore
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts", h.ListAccounts)
	r.Get("/subscriptions", h.ListSubscriptions)
}

// --- Response types ---

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type subscriptionResponse struct {
	ID                   uuid.UUID  `json:"id"`
	AccountID            uuid.UUID  `json:"account_id"`
	StripeCustomerID     string     `json:"stripe_customer_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// --- Handlers ---

// ListAccounts handles GET /admin/accounts.
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	accounts, err := h.store.ListAccounts(r.Context(), database.ListAccountsParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list accounts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = accountResponse{
			ID:        a.ID,
			Email:     a.Email,
			FullName:  a.FullName,
			IsActive:  a.IsActive,
			CreatedAt: a.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListSubscriptions handles GET /admin/subscriptions.
func (h *AdminHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	subs, err := h.store.ListSubscriptions(r.Context(), database.ListSubscriptionsParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list subscriptions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]subscriptionResponse, len(subs))
	for i, s := range subs {
		sr := subscriptionResponse{
			ID:                   s.ID,
			AccountID:            s.AccountID,
			StripeCustomerID:     s.StripeCustomerID,
			StripeSubscriptionID: s.StripeSubscriptionID,
			Status:               s.Status,
			UpdatedAt:            s.UpdatedAt,
		}
		if s.CurrentPeriodEnd.Valid {
			t := s.CurrentPeriodEnd.Time
			sr.CurrentPeriodEnd = &t
		}
		resp[i] = sr
	}

	writeJSON(w, http.StatusOK, resp)
}
