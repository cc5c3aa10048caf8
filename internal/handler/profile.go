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
	"github.com/zapconfeitaria/api/internal/database"
)

// ProfileStore defines the database methods needed by profile handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProfileStore interface {
	GetProfile(ctx context.Context, accountID uuid.UUID) (database.Profile, error)
	UpdateProfile(ctx context.Context, arg database.UpdateProfileParams) (database.Profile, error)
	MarkPwaSuggested(ctx context.Context, accountID uuid.UUID) (database.Profile, error)
}

// ProfileHandler handles the business profile endpoints: company identity,
// payment details and the PDF footer text.
type ProfileHandler struct {
	store ProfileStore
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// RegisterRoutes registers profile endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/profile
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	r.Patch("/pwa-suggested", h.MarkPwaSuggested)
}

// --- Request / Response types ---

type profileRequest struct {
	CompanyName      string `json:"company_name"`
	LogoURL          string `json:"logo_url"`
	PixKey           string `json:"pix_key"`
	BankDetails      string `json:"bank_details"`
	PdfTerms         string `json:"pdf_terms"`
	OrderNumberStart int32  `json:"order_number_start"`
}

type profileResponse struct {
	AccountID           uuid.UUID `json:"account_id"`
	CompanyName         *string   `json:"company_name"`
	LogoURL             *string   `json:"logo_url"`
	PixKey              *string   `json:"pix_key"`
	BankDetails         *string   `json:"bank_details"`
	PdfTerms            *string   `json:"pdf_terms"`
	OrderNumberStart    int32     `json:"order_number_start"`
	PwaInstallSuggested bool      `json:"pwa_install_suggested"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toProfileResponse(p database.Profile) profileResponse {
	resp := profileResponse{
		AccountID:           p.AccountID,
		OrderNumberStart:    p.OrderNumberStart,
		PwaInstallSuggested: p.PwaInstallSuggested,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.CompanyName.Valid {
		resp.CompanyName = &p.CompanyName.String
	}
	if p.LogoURL.Valid {
		resp.LogoURL = &p.LogoURL.String
	}
	if p.PixKey.Valid {
		resp.PixKey = &p.PixKey.String
	}
	if p.BankDetails.Valid {
		resp.BankDetails = &p.BankDetails.String
	}
	if p.PdfTerms.Valid {
		resp.PdfTerms = &p.PdfTerms.String
	}
	return resp
}

// --- Handlers ---

// Get returns the account's business profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	profile, err := h.store.GetProfile(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: get profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// Update replaces the account's business profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderNumberStart < 1 {
		req.OrderNumberStart = 1
	}

	profile, err := h.store.UpdateProfile(r.Context(), database.UpdateProfileParams{
		AccountID:        accountID,
		CompanyName:      optionalText(req.CompanyName),
		LogoURL:          optionalText(req.LogoURL),
		PixKey:           optionalText(req.PixKey),
		BankDetails:      optionalText(req.BankDetails),
		PdfTerms:         optionalText(req.PdfTerms),
		OrderNumberStart: req.OrderNumberStart,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: update profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// MarkPwaSuggested records that the install prompt was shown so the PWA
// never nags twice.
func (h *ProfileHandler) MarkPwaSuggested(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	profile, err := h.store.MarkPwaSuggested(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: mark pwa suggested: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
