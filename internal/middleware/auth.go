package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/zapconfeitaria/api/internal/auth"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/enum"
)

type contextKey string

const claimsKey contextKey = "claims"

func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount ensures the {aid} path segment matches the caller's account.
// ADMIN users can reach any account.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}

		if claims.Role == enum.UserRoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		aidStr := r.PathValue("aid")
		if aidStr == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing account ID"})
			return
		}

		aid, err := uuid.Parse(aidStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
			return
		}

		if claims.AccountID != aid {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied for this account"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		})
	}
}

// SubscriptionStore is the single query the gate needs.
// Satisfied by *database.Queries.
type SubscriptionStore interface {
	GetSubscriptionByAccount(ctx context.Context, accountID uuid.UUID) (database.Subscription, error)
}

// RequireSubscription gates account routes behind an active (or trialing)
// subscription. Returns 402 so the SPA can redirect to its pricing page.
// ADMIN users bypass the gate.
func RequireSubscription(store SubscriptionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			if claims.Role == enum.UserRoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			sub, err := store.GetSubscriptionByAccount(r.Context(), claims.AccountID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "subscription required"})
					return
				}
				log.Printf("ERROR: check subscription: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}

			active := sub.Status == enum.SubscriptionActive || sub.Status == enum.SubscriptionTrialing
			if !active || (sub.CurrentPeriodEnd.Valid && sub.CurrentPeriodEnd.Time.Before(time.Now())) {
				writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "subscription required"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
