package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zapconfeitaria/api/internal/config"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/handler"
	mw "github.com/zapconfeitaria/api/internal/middleware"
	"github.com/zapconfeitaria/api/internal/service"
	"github.com/zapconfeitaria/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, account scoping, the subscription gate and
// role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public). Registration writes the user and its profile in
	// one transaction.
	authHandler := handler.NewAuthHandler(queries, pool, func(db database.DBTX) handler.AuthStore {
		return database.New(db)
	}, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Stripe billing webhook (public, verified by signature)
	webhookHandler := handler.NewWebhookHandler(queries, cfg.StripeWebhookSecret)
	r.Route("/webhooks", webhookHandler.RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/accounts/{aid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Cross-tenant admin console
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole("ADMIN"))
			adminHandler := handler.NewAdminHandler(queries)
			r.Route("/admin", adminHandler.RegisterRoutes)
		})

		// Account-scoped routes, gated by an active subscription
		r.Route("/accounts/{aid}", func(r chi.Router) {
			r.Use(mw.RequireAccount)
			r.Use(mw.RequireSubscription(queries))

			// Clients
			clientHandler := handler.NewClientHandler(queries)
			r.Route("/clients", clientHandler.RegisterRoutes)

			// Product categories
			categoryHandler := handler.NewCategoryHandler(queries)
			r.Route("/categories", categoryHandler.RegisterRoutes)

			// Products
			productHandler := handler.NewProductHandler(queries)
			r.Route("/products", productHandler.RegisterRoutes)

			// Orders
			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, newOrderStore)
			orderHandler := handler.NewOrderHandler(orderService, queries, hub)
			r.Route("/orders", orderHandler.RegisterRoutes)

			// Manual ledger entries
			transactionHandler := handler.NewTransactionHandler(queries)
			r.Route("/transactions", transactionHandler.RegisterRoutes)

			// Finance aggregates
			financeHandler := handler.NewFinanceHandler(queries)
			r.Route("/finance", financeHandler.RegisterRoutes)

			// Reminder feed
			notificationHandler := handler.NewNotificationHandler(queries)
			r.Route("/notifications", notificationHandler.RegisterRoutes)

			// PDF documents
			pdfHandler := handler.NewPDFHandler(queries)
			r.Route("/pdf", pdfHandler.RegisterRoutes)

			// Business profile
			profileHandler := handler.NewProfileHandler(queries)
			r.Route("/profile", profileHandler.RegisterRoutes)
		})
	})

	return r
}
