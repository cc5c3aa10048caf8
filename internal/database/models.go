package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// User is an account on the platform. OWNER users are bakery accounts and
// double as the tenancy key (account_id) on every row they own.
type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Profile holds per-account settings surfaced in quotes and PDFs.
type Profile struct {
	AccountID           uuid.UUID
	CompanyName         pgtype.Text
	LogoURL             pgtype.Text
	PixKey              pgtype.Text
	BankDetails         pgtype.Text
	PdfTerms            pgtype.Text
	OrderNumberStart    int32
	PwaInstallSuggested bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Client struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Birthday  pgtype.Date
	Notes     pgtype.Text
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductCategory struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Name         string
	Emoji        pgtype.Text
	Color        pgtype.Text
	DisplayOrder int32
}

type Product struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	CategoryID  pgtype.UUID
	Name        string
	Description pgtype.Text
	CostPrice   pgtype.Numeric
	SalePrice   pgtype.Numeric
	UnitType    string
	PhotoURL    pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID                  uuid.UUID
	AccountID           uuid.UUID
	OrderNumber         int32
	ClientID            uuid.UUID
	Status              string
	DeliveryDate        pgtype.Date
	DeliveryTime        pgtype.Text
	DeliveryAddress     pgtype.Text
	DeliveryFee         pgtype.Numeric
	TotalAmount         pgtype.Numeric
	DepositPaid         bool
	FullPaymentReceived bool
	PaymentMethod       pgtype.Text
	PaymentFee          pgtype.Numeric
	Notes               pgtype.Text
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderItem snapshots product name and price at order time; ProductID is null
// for ad-hoc "additional" items typed straight into the order form.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   pgtype.UUID
	ProductName string
	Quantity    pgtype.Numeric
	UnitPrice   pgtype.Numeric
	UnitType    string
	IsGift      bool
}

type Transaction struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	OrderID     pgtype.UUID
	Type        string
	Category    pgtype.Text
	Description string
	Amount      pgtype.Numeric
	OccurredOn  pgtype.Date
	CreatedAt   time.Time
}

type Subscription struct {
	ID                   uuid.UUID
	AccountID            uuid.UUID
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	CurrentPeriodEnd     pgtype.Timestamptz
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
