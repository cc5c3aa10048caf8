package pdf

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestQuote(t *testing.T) {
	data := QuoteData{
		CompanyName: "Doces da Maria",
		PixKey:      "maria@example.com",
		Terms:       "Orçamento válido por 7 dias.",
		OrderNumber: 12,
		ClientName:  "João Souza",
		ClientPhone: "+55 11 99999-0000",
		Items: []QuoteItem{
			{Name: "Bolo de Chocolate", Quantity: "1", UnitType: "UNIT", UnitPrice: dec("150.00")},
			{Name: "Brigadeiro", Quantity: "2", UnitType: "CENTO", UnitPrice: dec("90.00")},
			{Name: "Mini brownie", Quantity: "10", UnitType: "UNIT", UnitPrice: dec("5.00"), IsGift: true},
		},
		DeliveryFee: dec("20.00"),
		TotalAmount: dec("350.00"),
	}

	out, err := Quote(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}

func TestQuote_NoOptionalFields(t *testing.T) {
	out, err := Quote(QuoteData{
		CompanyName: "Confeitaria",
		OrderNumber: 1,
		ClientName:  "Ana",
		Items: []QuoteItem{
			{Name: "Torta", Quantity: "1", UnitType: "UNIT", UnitPrice: dec("80.00")},
		},
		TotalAmount: dec("80.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected PDF bytes")
	}
}

func TestFinanceReport(t *testing.T) {
	data := ReportData{
		CompanyName: "Doces da Maria",
		PeriodLabel: "03/2026",
		Lines: []ReportLine{
			{Date: "01/03", Description: "Sinal 50% - João", Category: "Sinal 50%", Type: "INCOME", Amount: dec("100.00")},
			{Date: "05/03", Description: "Farinha e ovos", Category: "Insumos", Type: "EXPENSE", Amount: dec("35.00")},
		},
		TotalIncome:   dec("100.00"),
		TotalExpenses: dec("35.00"),
		Balance:       dec("65.00"),
	}

	out, err := FinanceReport(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}
