package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const clientColumns = `id, account_id, name, phone, email, birthday, notes, is_active, created_at, updated_at`

func scanClient(row interface{ Scan(dest ...interface{}) error }) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.Phone, &c.Email, &c.Birthday,
		&c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type ListClientsByAccountParams struct {
	AccountID uuid.UUID
	Limit     int32
	Offset    int32
	Search    pgtype.Text
}

func (q *Queries) ListClientsByAccount(ctx context.Context, arg ListClientsByAccountParams) ([]Client, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE account_id = $1
		  AND is_active = true
		  AND ($4::text IS NULL OR name ILIKE '%' || $4 || '%' OR phone ILIKE '%' || $4 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`,
		arg.AccountID, arg.Limit, arg.Offset, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// ListActiveClients returns every active client for an account. Used by the
// notification builder, which needs the full set to scan birthdays.
func (q *Queries) ListActiveClients(ctx context.Context, accountID uuid.UUID) ([]Client, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE account_id = $1 AND is_active = true
		ORDER BY name`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

type GetClientParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) GetClient(ctx context.Context, arg GetClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE id = $1 AND account_id = $2 AND is_active = true`, arg.ID, arg.AccountID)
	return scanClient(row)
}

type CreateClientParams struct {
	AccountID uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Birthday  pgtype.Date
	Notes     pgtype.Text
}

func (q *Queries) CreateClient(ctx context.Context, arg CreateClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO clients (account_id, name, phone, email, birthday, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientColumns,
		arg.AccountID, arg.Name, arg.Phone, arg.Email, arg.Birthday, arg.Notes)
	return scanClient(row)
}

type UpdateClientParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Birthday  pgtype.Date
	Notes     pgtype.Text
}

func (q *Queries) UpdateClient(ctx context.Context, arg UpdateClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE clients
		SET name = $3, phone = $4, email = $5, birthday = $6, notes = $7, updated_at = now()
		WHERE id = $1 AND account_id = $2 AND is_active = true
		RETURNING `+clientColumns,
		arg.ID, arg.AccountID, arg.Name, arg.Phone, arg.Email, arg.Birthday, arg.Notes)
	return scanClient(row)
}

type SoftDeleteClientParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) SoftDeleteClient(ctx context.Context, arg SoftDeleteClientParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE clients
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND account_id = $2 AND is_active = true
		RETURNING id`, arg.ID, arg.AccountID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
