package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/enum"
	"github.com/zapconfeitaria/api/internal/finance"
	"github.com/zapconfeitaria/api/internal/pdf"
)

// PDFStore defines the database methods needed by the PDF endpoints.
// Satisfied by *database.Queries; narrow interface for testability.
type PDFStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetClient(ctx context.Context, arg database.GetClientParams) (database.Client, error)
	GetProfile(ctx context.Context, accountID uuid.UUID) (database.Profile, error)
	ListTransactionsInPeriod(ctx context.Context, arg database.ListTransactionsInPeriodParams) ([]database.Transaction, error)
}

// PDFHandler renders quotes and financial reports as PDF documents. The
// response carries the bytes as a base64 data URL so the PWA can hand them
// straight to the WhatsApp share sheet.
type PDFHandler struct {
	store PDFStore
}

// NewPDFHandler creates a new PDFHandler.
func NewPDFHandler(store PDFStore) *PDFHandler {
	return &PDFHandler{store: store}
}

// RegisterRoutes registers PDF endpoints on the given Chi router.
// Expected to be mounted inside an account-scoped subrouter: /accounts/{aid}/pdf
func (h *PDFHandler) RegisterRoutes(r chi.Router) {
	r.Get("/quote/{orderID}", h.Quote)
	r.Get("/finance-report", h.FinanceReport)
}

type pdfResponse struct {
	PDF      string `json:"pdf"`
	FileName string `json:"file_name"`
}

// Quote handles GET /accounts/{aid}/pdf/quote/{orderID}.
func (h *PDFHandler) Quote(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "aid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:        orderID,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	client, err := h.store.GetClient(r.Context(), database.GetClientParams{
		ID:        order.ClientID,
		AccountID: accountID,
	})
	if err != nil {
		log.Printf("ERROR: get client for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list items for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	profile, err := h.store.GetProfile(r.Context(), accountID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: get profile for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	data := pdf.QuoteData{
		CompanyName: textOrDefault(profile.CompanyName, "Confeitaria"),
		PixKey:      profile.PixKey.String,
		BankDetails: profile.BankDetails.String,
		Terms:       profile.PdfTerms.String,
		OrderNumber: order.OrderNumber,
		ClientName:  client.Name,
		ClientPhone: client.Phone,
		DeliveryFee: numericToDec(order.DeliveryFee),
		TotalAmount: numericToDec(order.TotalAmount),
		DepositPaid: order.DepositPaid,
	}
	if order.DeliveryDate.Valid {
		data.DeliveryDate = order.DeliveryDate.Time.Format("02/01/2006")
	}
	if order.DeliveryTime.Valid {
		data.DeliveryTime = order.DeliveryTime.String
	}
	data.Items = make([]pdf.QuoteItem, len(items))
	for i, item := range items {
		data.Items[i] = pdf.QuoteItem{
			Name:      item.ProductName,
			Quantity:  numericToString(item.Quantity),
			UnitType:  item.UnitType,
			UnitPrice: numericToDec(item.UnitPrice),
			IsGift:    item.IsGift,
		}
	}

	bytes, err := pdf.Quote(data)
	if err != nil {
		log.Printf("ERROR: render quote pdf: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, pdfResponse{
		PDF:      "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(bytes),
		FileName: fmt.Sprintf("orcamento-%03d.pdf", order.OrderNumber),
	})
}

// FinanceReport handles GET /accounts/{aid}/pdf/finance-report.
func (h *PDFHandler) FinanceReport(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("ERROR: list transactions for report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	profile, err := h.store.GetProfile(r.Context(), accountID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: get profile for report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	summary := finance.Summarize(txs, nil, nil)

	data := pdf.ReportData{
		CompanyName:   textOrDefault(profile.CompanyName, "Confeitaria"),
		PeriodLabel:   periodLabel(startDate, endDate),
		TotalIncome:   summary.TotalIncome,
		TotalExpenses: summary.TotalExpenses,
		Balance:       summary.Balance,
	}
	data.Lines = make([]pdf.ReportLine, len(txs))
	for i, t := range txs {
		line := pdf.ReportLine{
			Description: t.Description,
			Type:        t.Type,
			Amount:      numericToDec(t.Amount),
		}
		if t.OccurredOn.Valid {
			line.Date = t.OccurredOn.Time.Format("02/01/2006")
		}
		if t.Category.Valid {
			line.Category = enum.CategoryLabel(t.Category.String)
		}
		data.Lines[i] = line
	}

	bytes, err := pdf.FinanceReport(data)
	if err != nil {
		log.Printf("ERROR: render finance report pdf: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, pdfResponse{
		PDF:      "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(bytes),
		FileName: "relatorio-financeiro.pdf",
	})
}

// --- Helpers ---

func textOrDefault(t pgtype.Text, def string) string {
	if t.Valid && t.String != "" {
		return t.String
	}
	return def
}

func periodLabel(start, end pgtype.Date) string {
	switch {
	case start.Valid && end.Valid:
		return start.Time.Format("02/01/2006") + " a " + end.Time.Format("02/01/2006")
	case start.Valid:
		return "a partir de " + start.Time.Format("02/01/2006")
	case end.Valid:
		return "até " + end.Time.Format("02/01/2006")
	}
	return "Todo o período"
}

func numericToDec(n pgtype.Numeric) decimal.Decimal {
	d, err := decimal.NewFromString(numericToString(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}
