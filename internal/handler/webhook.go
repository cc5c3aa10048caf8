package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"github.com/zapconfeitaria/api/internal/database"
)

// maxWebhookBody caps the Stripe payload size.
const maxWebhookBody = 65536

// SubscriptionStore defines the database methods needed by the billing webhook.
// Satisfied by *database.Queries; narrow interface for testability.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, arg database.UpsertSubscriptionParams) (database.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, arg database.UpdateSubscriptionStatusParams) (database.Subscription, error)
}

// WebhookHandler receives Stripe billing events and reconciles the local
// subscription table. Signature verification happens before any parsing.
type WebhookHandler struct {
	store         SubscriptionStore
	signingSecret string
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(store SubscriptionStore, signingSecret string) *WebhookHandler {
	return &WebhookHandler{store: store, signingSecret: signingSecret}
}

// RegisterRoutes registers the webhook endpoint on the given Chi router.
// Mounted on the public router: /webhooks/stripe
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stripe", h.HandleStripe)
}

// HandleStripe handles POST /webhooks/stripe.
//
// Unknown event types are acknowledged with 200 so Stripe stops retrying
// them; processing failures return 500 so Stripe retries with backoff.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.signingSecret)
	if err != nil {
		log.Printf("ERROR: stripe signature verification: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		return
	}

	if err := h.processEvent(r.Context(), event); err != nil {
		log.Printf("ERROR: stripe event %s (%s): %v", event.Type, event.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusOK)
}

// processEvent dispatches one verified Stripe event. Split from the HTTP
// handler so tests can feed events without forging signatures.
func (h *WebhookHandler) processEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		return h.handleCheckoutCompleted(ctx, &session)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return h.handleSubscriptionChanged(ctx, &sub)
	}

	// Unhandled event types are fine; the endpoint subscribes broadly.
	return nil
}

// handleCheckoutCompleted links a fresh checkout to its account. The account
// id travels through Stripe as client_reference_id.
func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	accountID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		// A checkout without our reference id did not come from this app.
		log.Printf("WARN: checkout session %s has no usable client_reference_id", session.ID)
		return nil
	}

	var customerID, subscriptionID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	if subscriptionID == "" {
		log.Printf("WARN: checkout session %s completed without a subscription", session.ID)
		return nil
	}

	_, err = h.store.UpsertSubscription(ctx, database.UpsertSubscriptionParams{
		AccountID:            accountID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subscriptionID,
		Status:               "active",
	})
	return err
}

// handleSubscriptionChanged mirrors Stripe's subscription status locally.
func (h *WebhookHandler) handleSubscriptionChanged(ctx context.Context, sub *stripe.Subscription) error {
	var periodEnd pgtype.Timestamptz
	if sub.CurrentPeriodEnd > 0 {
		periodEnd = pgtype.Timestamptz{Time: time.Unix(sub.CurrentPeriodEnd, 0).UTC(), Valid: true}
	}

	_, err := h.store.UpdateSubscriptionStatus(ctx, database.UpdateSubscriptionStatusParams{
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CurrentPeriodEnd:     periodEnd,
	})
	return err
}
