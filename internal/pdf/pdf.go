// Package pdf renders quotes and financial reports with maroto.
// Builders take plain data structs and return the raw PDF bytes; handlers
// decide how to ship them to the client.
package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// QuoteItem is one line of a quote.
type QuoteItem struct {
	Name      string
	Quantity  string
	UnitType  string
	UnitPrice decimal.Decimal
	IsGift    bool
}

// QuoteData carries everything the quote PDF needs.
type QuoteData struct {
	CompanyName  string
	PixKey       string
	BankDetails  string
	Terms        string
	OrderNumber  int32
	ClientName   string
	ClientPhone  string
	DeliveryDate string // already formatted, may be empty
	DeliveryTime string
	Items        []QuoteItem
	DeliveryFee  decimal.Decimal
	TotalAmount  decimal.Decimal
	DepositPaid  bool
}

// ReportLine is one transaction in the financial report.
type ReportLine struct {
	Date        string
	Description string
	Category    string
	Type        string // INCOME or EXPENSE
	Amount      decimal.Decimal
}

// ReportData carries the financial report inputs.
type ReportData struct {
	CompanyName   string
	PeriodLabel   string
	Lines         []ReportLine
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Balance       decimal.Decimal
}

func brl(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

func newDoc() core.Maroto {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	return maroto.New(cfg)
}

// Quote renders an order quote.
func Quote(data QuoteData) ([]byte, error) {
	m := newDoc()

	m.AddRow(12, text.NewCol(12, data.CompanyName, props.Text{
		Style: fontstyle.Bold,
		Size:  16,
		Align: align.Center,
	}))
	m.AddRow(8, text.NewCol(12, fmt.Sprintf("Orçamento #%03d", data.OrderNumber), props.Text{
		Size:  12,
		Align: align.Center,
	}))
	m.AddRow(4, line.NewCol(12))

	m.AddRow(6,
		text.NewCol(6, "Cliente: "+data.ClientName, props.Text{Size: 10}),
		text.NewCol(6, "Telefone: "+data.ClientPhone, props.Text{Size: 10, Align: align.Right}),
	)
	if data.DeliveryDate != "" {
		delivery := "Entrega: " + data.DeliveryDate
		if data.DeliveryTime != "" {
			delivery += " às " + data.DeliveryTime
		}
		m.AddRow(6, text.NewCol(12, delivery, props.Text{Size: 10}))
	}
	m.AddRow(4, line.NewCol(12))

	m.AddRow(7,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, "Qtd", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center}),
		text.NewCol(2, "Unitário", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
		text.NewCol(2, "Subtotal", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	for _, it := range data.Items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil {
			qty = decimal.Zero
		}
		subtotal := brl(it.UnitPrice.Mul(qty))
		name := it.Name
		if it.IsGift {
			name += " (brinde)"
			subtotal = "—"
		}
		m.AddRows(row.New(6).Add(
			text.NewCol(6, name, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%s %s", it.Quantity, it.UnitType), props.Text{Size: 9, Align: align.Center}),
			text.NewCol(2, brl(it.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, subtotal, props.Text{Size: 9, Align: align.Right}),
		))
	}

	m.AddRow(4, line.NewCol(12))
	if data.DeliveryFee.IsPositive() {
		m.AddRow(6,
			text.NewCol(10, "Taxa de entrega", props.Text{Size: 10, Align: align.Right}),
			text.NewCol(2, brl(data.DeliveryFee), props.Text{Size: 10, Align: align.Right}),
		)
	}
	m.AddRow(8,
		text.NewCol(10, "Total", props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right}),
		text.NewCol(2, brl(data.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right}),
	)

	half := data.TotalAmount.Div(decimal.NewFromInt(2))
	depositLine := fmt.Sprintf("Sinal de 50%%: %s", brl(half))
	if data.DepositPaid {
		depositLine += " (pago)"
	}
	m.AddRow(6, text.NewCol(12, depositLine, props.Text{Size: 10}))

	if data.PixKey != "" {
		m.AddRow(6, text.NewCol(12, "Chave PIX: "+data.PixKey, props.Text{Size: 10}))
	}
	if data.BankDetails != "" {
		m.AddRow(6, text.NewCol(12, data.BankDetails, props.Text{Size: 9}))
	}
	if data.Terms != "" {
		m.AddRow(4, line.NewCol(12))
		m.AddRow(10, text.NewCol(12, data.Terms, props.Text{Size: 8}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// FinanceReport renders the transaction ledger for a period.
func FinanceReport(data ReportData) ([]byte, error) {
	m := newDoc()

	m.AddRow(12, text.NewCol(12, data.CompanyName, props.Text{
		Style: fontstyle.Bold,
		Size:  16,
		Align: align.Center,
	}))
	m.AddRow(8, text.NewCol(12, "Relatório Financeiro - "+data.PeriodLabel, props.Text{
		Size:  12,
		Align: align.Center,
	}))
	m.AddRow(4, line.NewCol(12))

	m.AddRow(7,
		text.NewCol(2, "Data", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(5, "Descrição", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(3, "Categoria", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, "Valor", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	for _, l := range data.Lines {
		amount := brl(l.Amount)
		if l.Type == "EXPENSE" {
			amount = "-" + amount
		}
		m.AddRows(row.New(6).Add(
			text.NewCol(2, l.Date, props.Text{Size: 9}),
			text.NewCol(5, l.Description, props.Text{Size: 9}),
			text.NewCol(3, l.Category, props.Text{Size: 9}),
			text.NewCol(2, amount, props.Text{Size: 9, Align: align.Right}),
		))
	}

	m.AddRow(4, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(9, "Receitas", props.Text{Size: 10, Align: align.Right}),
		text.NewCol(3, brl(data.TotalIncome), props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(9, "Despesas", props.Text{Size: 10, Align: align.Right}),
		text.NewCol(3, brl(data.TotalExpenses), props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(9, "Saldo", props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right}),
		text.NewCol(3, brl(data.Balance), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate finance report pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
