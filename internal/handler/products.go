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
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProductsByAccount(ctx context.Context, arg database.ListProductsByAccountParams) ([]database.Product, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SoftDeleteProduct(ctx context.Context, arg database.SoftDeleteProductParams) (uuid.UUID, error)
}

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers product CRUD endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/products
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type productRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CostPrice   string `json:"cost_price"`
	SalePrice   string `json:"sale_price"`
	UnitType    string `json:"unit_type"`
	PhotoURL    string `json:"photo_url"`
}

type productResponse struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   uuid.UUID  `json:"account_id"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	CostPrice   string     `json:"cost_price"`
	SalePrice   string     `json:"sale_price"`
	UnitType    string     `json:"unit_type"`
	PhotoURL    *string    `json:"photo_url"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toProductResponse(p database.Product) productResponse {
	resp := productResponse{
		ID:        p.ID,
		AccountID: p.AccountID,
		Name:      p.Name,
		CostPrice: numericToString(p.CostPrice),
		SalePrice: numericToString(p.SalePrice),
		UnitType:  p.UnitType,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.CategoryID.Valid {
		id := uuid.UUID(p.CategoryID.Bytes)
		resp.CategoryID = &id
	}
	if p.Description.Valid {
		resp.Description = &p.Description.String
	}
	if p.PhotoURL.Valid {
		resp.PhotoURL = &p.PhotoURL.String
	}
	return resp
}

// parseProductRequest validates the shared create/update payload.
func parseProductRequest(req productRequest) (database.CreateProductParams, string) {
	if req.Name == "" {
		return database.CreateProductParams{}, "name is required"
	}

	salePrice, err := decimal.NewFromString(req.SalePrice)
	if err != nil || salePrice.IsNegative() {
		return database.CreateProductParams{}, "sale_price must be a non-negative number"
	}

	costPrice := decimal.Zero
	if req.CostPrice != "" {
		costPrice, err = decimal.NewFromString(req.CostPrice)
		if err != nil || costPrice.IsNegative() {
			return database.CreateProductParams{}, "cost_price must be a non-negative number"
		}
	}

	unitType := req.UnitType
	if unitType == "" {
		unitType = enum.UnitTypeUnit
	}
	if !enum.IsValidUnitType(unitType) {
		return database.CreateProductParams{}, "invalid unit_type"
	}

	var categoryID pgtype.UUID
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return database.CreateProductParams{}, "invalid category_id"
		}
		categoryID = pgtype.UUID{Bytes: id, Valid: true}
	}

	var desc pgtype.Text
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}
	var photo pgtype.Text
	if req.PhotoURL != "" {
		photo = pgtype.Text{String: req.PhotoURL, Valid: true}
	}

	var cost, sale pgtype.Numeric
	if err := cost.Scan(costPrice.StringFixed(2)); err != nil {
		return database.CreateProductParams{}, "cost_price must be a non-negative number"
	}
	if err := sale.Scan(salePrice.StringFixed(2)); err != nil {
		return database.CreateProductParams{}, "sale_price must be a non-negative number"
	}

	return database.CreateProductParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: desc,
		CostPrice:   cost,
		SalePrice:   sale,
		UnitType:    unitType,
		PhotoURL:    photo,
	}, ""
}

// --- Handlers ---

// List returns active products for the account, with optional category and
// name search filters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	limit, offset := parsePagination(r)

	var categoryID pgtype.UUID
	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		categoryID = pgtype.UUID{Bytes: id, Valid: true}
	}

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	products, err := h.store.ListProductsByAccount(r.Context(), database.ListProductsByAccountParams{
		AccountID:  accountID,
		CategoryID: categoryID,
		Search:     search,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), database.GetProductParams{
		ID:        productID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: get product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Create adds a new product to the account catalog.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := parseProductRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	params.AccountID = accountID

	product, err := h.store.CreateProduct(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update modifies an existing product.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := parseProductRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:          productID,
		AccountID:   accountID,
		CategoryID:  params.CategoryID,
		Name:        params.Name,
		Description: params.Description,
		CostPrice:   params.CostPrice,
		SalePrice:   params.SalePrice,
		UnitType:    params.UnitType,
		PhotoURL:    params.PhotoURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete soft-deletes a product by setting is_active=false so past order
// items keep their reference.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	_, err = h.store.SoftDeleteProduct(r.Context(), database.SoftDeleteProductParams{
		ID:        productID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: delete product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
