package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const profileColumns = `account_id, company_name, logo_url, pix_key, bank_details, pdf_terms,
	order_number_start, pwa_install_suggested, created_at, updated_at`

func scanProfile(row interface{ Scan(dest ...interface{}) error }) (Profile, error) {
	var p Profile
	err := row.Scan(&p.AccountID, &p.CompanyName, &p.LogoURL, &p.PixKey, &p.BankDetails,
		&p.PdfTerms, &p.OrderNumberStart, &p.PwaInstallSuggested, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProfile inserts the empty settings row that accompanies a new account.
func (q *Queries) CreateProfile(ctx context.Context, accountID uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO profiles (account_id)
		VALUES ($1)
		RETURNING `+profileColumns, accountID)
	return scanProfile(row)
}

func (q *Queries) GetProfile(ctx context.Context, accountID uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE account_id = $1`, accountID)
	return scanProfile(row)
}

type UpdateProfileParams struct {
	AccountID        uuid.UUID
	CompanyName      pgtype.Text
	LogoURL          pgtype.Text
	PixKey           pgtype.Text
	BankDetails      pgtype.Text
	PdfTerms         pgtype.Text
	OrderNumberStart int32
}

func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE profiles
		SET company_name = $2, logo_url = $3, pix_key = $4, bank_details = $5,
		    pdf_terms = $6, order_number_start = $7, updated_at = now()
		WHERE account_id = $1
		RETURNING `+profileColumns,
		arg.AccountID, arg.CompanyName, arg.LogoURL, arg.PixKey, arg.BankDetails,
		arg.PdfTerms, arg.OrderNumberStart)
	return scanProfile(row)
}

// MarkPwaSuggested flips the one-shot flag that stops the frontend from
// re-suggesting the install prompt.
func (q *Queries) MarkPwaSuggested(ctx context.Context, accountID uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE profiles
		SET pwa_install_suggested = true, updated_at = now()
		WHERE account_id = $1
		RETURNING `+profileColumns, accountID)
	return scanProfile(row)
}
