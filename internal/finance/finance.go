package finance

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/enum"
)

// Summary is the aggregated financial view for a period.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Balance       decimal.Decimal
	GrossProfit   decimal.Decimal
	ProfitMargin  decimal.Decimal // percent, 0 when revenue is zero
}

// CategoryBreakdown is one slice of the expense-by-category chart.
type CategoryBreakdown struct {
	Category string
	Label    string
	Total    decimal.Decimal
}

// Summarize folds cash transactions and delivered orders into a Summary.
// Income and expenses come from the transaction ledger; gross profit is the
// delivered orders' total_amount (delivery fee included) minus the cost
// snapshot of their non-gift items.
func Summarize(transactions []database.Transaction, deliveredOrders []database.Order, deliveredItems []database.DeliveredOrderItemRow) Summary {
	var income, expenses decimal.Decimal

	for _, t := range transactions {
		amount := numericToDecimal(t.Amount)
		switch t.Type {
		case enum.TransactionTypeIncome:
			income = income.Add(amount)
		case enum.TransactionTypeExpense:
			expenses = expenses.Add(amount)
		}
	}

	var revenue decimal.Decimal
	for _, total := range OrderRevenue(deliveredOrders) {
		revenue = revenue.Add(total)
	}

	var cost decimal.Decimal
	for _, it := range deliveredItems {
		if it.IsGift {
			continue
		}
		cost = cost.Add(numericToDecimal(it.CostPrice).Mul(numericToDecimal(it.Quantity)))
	}

	grossProfit := revenue.Sub(cost)
	margin := decimal.Zero
	if revenue.IsPositive() {
		margin = grossProfit.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		GrossProfit:   grossProfit,
		ProfitMargin:  margin,
	}
}

// ExpensesByCategory groups EXPENSE transactions by category for charting.
// Transactions without a category land in OTHER. Ordering follows the canonical
// category list so charts stay stable between requests.
func ExpensesByCategory(transactions []database.Transaction) []CategoryBreakdown {
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if t.Type != enum.TransactionTypeExpense {
			continue
		}
		cat := enum.CategoryOther
		if t.Category.Valid && t.Category.String != "" {
			cat = t.Category.String
		}
		totals[cat] = totals[cat].Add(numericToDecimal(t.Amount))
	}

	order := []string{
		enum.CategoryIngredients,
		enum.CategoryPackaging,
		enum.CategoryEquipment,
		enum.CategoryDelivery,
		enum.CategoryOther,
	}

	var out []CategoryBreakdown
	for _, cat := range order {
		total, ok := totals[cat]
		if !ok {
			continue
		}
		out = append(out, CategoryBreakdown{
			Category: cat,
			Label:    enum.CategoryLabel(cat),
			Total:    total,
		})
	}
	return out
}

// OrderRevenue sums total_amount over delivered orders, keyed by order for
// per-order drill down.
func OrderRevenue(orders []database.Order) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(orders))
	for _, o := range orders {
		out[o.ID] = numericToDecimal(o.TotalAmount)
	}
	return out
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
