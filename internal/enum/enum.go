package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusQuote           = "QUOTE"
	OrderStatusAwaitingDeposit = "AWAITING_DEPOSIT"
	OrderStatusInProduction    = "IN_PRODUCTION"
	OrderStatusReady           = "READY"
	OrderStatusDelivered       = "DELIVERED"
	OrderStatusCancelled       = "CANCELLED"
)

const (
	TransactionTypeIncome  = "INCOME"
	TransactionTypeExpense = "EXPENSE"
)

// Transaction categories. The hosted predecessor encoded these as free-text
// description prefixes ("Sinal 50% - João"); here they are a structured column.
// Display labels stay in Portuguese because they surface verbatim in the UI
// and in generated PDFs.
const (
	CategoryDeposit      = "DEPOSIT"       // "Sinal 50%"
	CategoryFinalPayment = "FINAL_PAYMENT" // "Pagamento Final"
	CategoryUpfront      = "UPFRONT"       // "Pagamento Antecipado"
	CategoryIngredients  = "INGREDIENTS"   // "Insumos"
	CategoryPackaging    = "PACKAGING"     // "Embalagens"
	CategoryEquipment    = "EQUIPMENT"     // "Equipamentos"
	CategoryDelivery     = "DELIVERY"      // "Entrega"
	CategoryOther        = "OTHER"
)

var categoryLabels = map[string]string{
	CategoryDeposit:      "Sinal 50%",
	CategoryFinalPayment: "Pagamento Final",
	CategoryUpfront:      "Pagamento Antecipado",
	CategoryIngredients:  "Insumos",
	CategoryPackaging:    "Embalagens",
	CategoryEquipment:    "Equipamentos",
	CategoryDelivery:     "Entrega",
	CategoryOther:        "Outros",
}

// CategoryLabel returns the Portuguese display label for a category code.
// Unknown codes fall back to the code itself.
func CategoryLabel(code string) string {
	if label, ok := categoryLabels[code]; ok {
		return label
	}
	return code
}

// ── Configurable labels (no DB constraint) ──

const (
	UnitTypeUnit  = "UNIT"
	UnitTypeKg    = "KG"
	UnitTypeCento = "CENTO"
)

// IsValidUnitType reports whether s is a sellable unit type.
func IsValidUnitType(s string) bool {
	switch s {
	case UnitTypeUnit, UnitTypeKg, UnitTypeCento:
		return true
	}
	return false
}

const (
	PaymentMethodPix        = "PIX"
	PaymentMethodCreditCard = "CREDIT_CARD"
	PaymentMethodLink       = "LINK"
)

const (
	FeeTypeFlat       = "FLAT"
	FeeTypePercentage = "PERCENTAGE"
)

// ── Accounts ──

const (
	UserRoleOwner = "OWNER"
	UserRoleAdmin = "ADMIN"
)

// Subscription statuses mirror Stripe's vocabulary.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)
