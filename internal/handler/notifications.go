package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/notify"
)

// NotificationStore defines the database methods needed by the reminder feed.
// Satisfied by *database.Queries; narrow interface for testability.
type NotificationStore interface {
	ListActiveClients(ctx context.Context, accountID uuid.UUID) ([]database.Client, error)
	ListOpenOrders(ctx context.Context, accountID uuid.UUID) ([]database.Order, error)
}

// NotificationHandler serves the reminder feed: upcoming deliveries, client
// birthdays and overdue deposits.
type NotificationHandler struct {
	store NotificationStore
	now   func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store, now: time.Now}
}

// RegisterRoutes registers the reminder endpoint on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/notifications
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List handles GET /accounts/{aid}/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	clients, err := h.store.ListActiveClients(r.Context(), accountID)
	if err != nil {
		log.Printf("ERROR: list clients for notifications: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orders, err := h.store.ListOpenOrders(r.Context(), accountID)
	if err != nil {
		log.Printf("ERROR: list open orders for notifications: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	reminders := notify.Build(h.now(), clients, orders)
	if reminders == nil {
		reminders = []notify.Reminder{}
	}

	writeJSON(w, http.StatusOK, reminders)
}
