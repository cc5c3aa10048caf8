// Package parser classifies free-text transaction descriptions.
//
// The hosted predecessor of this system stored no category column; everything
// was encoded in Portuguese description prefixes like "Sinal 50% - Maria".
// This parser recovers structure from those strings, both for importing legacy
// ledgers and for suggesting a category when a manual entry arrives without one.
package parser

import (
	"strings"
)

// Parsed is the result of parsing a legacy transaction description.
type Parsed struct {
	Category   string
	ClientName string // set only for order-linked prefixes ("... - <name>")
}

// enum category codes, duplicated here to keep the package dependency-free
const (
	catDeposit      = "DEPOSIT"
	catFinalPayment = "FINAL_PAYMENT"
	catUpfront      = "UPFRONT"
	catIngredients  = "INGREDIENTS"
	catPackaging    = "PACKAGING"
	catEquipment    = "EQUIPMENT"
	catDelivery     = "DELIVERY"
	catOther        = "OTHER"
)

// Order-linked income prefixes, matched case-insensitively before the " - "
// separator. Longest prefixes first so "pagamento antecipado" wins over
// "pagamento".
var incomePrefixes = []struct {
	prefix   string
	category string
}{
	{"pagamento antecipado", catUpfront},
	{"pagamento final", catFinalPayment},
	{"sinal 50%", catDeposit},
	{"sinal", catDeposit},
}

// Expense keywords for classification of manual entries.
var expenseKeywords = map[string]string{
	"insumo":      catIngredients,
	"insumos":     catIngredients,
	"farinha":     catIngredients,
	"acucar":      catIngredients,
	"açúcar":      catIngredients,
	"chocolate":   catIngredients,
	"leite":       catIngredients,
	"ovos":        catIngredients,
	"manteiga":    catIngredients,
	"embalagem":   catPackaging,
	"embalagens":  catPackaging,
	"caixa":       catPackaging,
	"caixas":      catPackaging,
	"sacola":      catPackaging,
	"topo":        catPackaging,
	"fita":        catPackaging,
	"equipamento": catEquipment,
	"batedeira":   catEquipment,
	"forno":       catEquipment,
	"forma":       catEquipment,
	"formas":      catEquipment,
	"entrega":     catDelivery,
	"entregas":    catDelivery,
	"frete":       catDelivery,
	"gasolina":    catDelivery,
	"uber":        catDelivery,
	"motoboy":     catDelivery,
}

// Category labels as the predecessor wrote them into description prefixes
// ("Insumos - Farinha e açúcar"), lowercased for matching.
var labelCategories = map[string]string{
	"sinal 50%":            catDeposit,
	"sinal":                catDeposit,
	"pagamento final":      catFinalPayment,
	"pagamento antecipado": catUpfront,
	"insumos":              catIngredients,
	"embalagens":           catPackaging,
	"equipamentos":         catEquipment,
	"entrega":              catDelivery,
	"outros":               catOther,
}

// ParseIncome matches an order-linked income description ("Sinal 50% - Maria").
// Returns false when the description carries no known prefix.
func ParseIncome(description string) (Parsed, bool) {
	desc := strings.TrimSpace(description)
	lower := strings.ToLower(desc)

	for _, p := range incomePrefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}
		rest := strings.TrimSpace(desc[len(p.prefix):])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
		return Parsed{Category: p.category, ClientName: rest}, true
	}
	return Parsed{}, false
}

// ClassifyExpense suggests an expense category from description keywords.
// ok is false when no keyword matches.
func ClassifyExpense(description string) (string, bool) {
	for _, tok := range strings.Fields(strings.ToLower(description)) {
		tok = strings.Trim(tok, ".,;:()")
		if cat, ok := expenseKeywords[tok]; ok {
			return cat, true
		}
	}
	return "", false
}

// Parse recovers structure from a free-text description. A prefix before the
// first " - " that matches a known category label yields that category and the
// remainder as the clean description ("Insumos - Farinha e açúcar" → INGREDIENTS,
// "Farinha e açúcar"). Otherwise income descriptions are checked against the
// legacy prefixes and expenses against the keyword table, with the description
// kept as is. ok is false when nothing matched; the caller stores no category.
func Parse(txType, description string) (category, clean string, ok bool) {
	desc := strings.TrimSpace(description)

	if prefix, rest, found := strings.Cut(desc, " - "); found {
		if cat, known := labelCategories[strings.ToLower(strings.TrimSpace(prefix))]; known {
			return cat, strings.TrimSpace(rest), true
		}
	}

	if txType == "INCOME" {
		if p, matched := ParseIncome(desc); matched {
			return p.Category, desc, true
		}
		return "", desc, false
	}

	if cat, matched := ClassifyExpense(desc); matched {
		return cat, desc, true
	}
	return "", desc, false
}
