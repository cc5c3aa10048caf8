package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, account_id, category_id, name, description, cost_price, sale_price,
	unit_type, photo_url, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.AccountID, &p.CategoryID, &p.Name, &p.Description,
		&p.CostPrice, &p.SalePrice, &p.UnitType, &p.PhotoURL, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type ListProductsByAccountParams struct {
	AccountID  uuid.UUID
	CategoryID pgtype.UUID
	Search     pgtype.Text
	Limit      int32
	Offset     int32
}

func (q *Queries) ListProductsByAccount(ctx context.Context, arg ListProductsByAccountParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE account_id = $1
		  AND is_active = true
		  AND ($2::uuid IS NULL OR category_id = $2)
		  AND ($3::text IS NULL OR name ILIKE '%' || $3 || '%')
		ORDER BY name
		LIMIT $4 OFFSET $5`,
		arg.AccountID, arg.CategoryID, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type GetProductParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) GetProduct(ctx context.Context, arg GetProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id = $1 AND account_id = $2 AND is_active = true`, arg.ID, arg.AccountID)
	return scanProduct(row)
}

type CreateProductParams struct {
	AccountID   uuid.UUID
	CategoryID  pgtype.UUID
	Name        string
	Description pgtype.Text
	CostPrice   pgtype.Numeric
	SalePrice   pgtype.Numeric
	UnitType    string
	PhotoURL    pgtype.Text
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (account_id, category_id, name, description, cost_price, sale_price, unit_type, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		arg.AccountID, arg.CategoryID, arg.Name, arg.Description, arg.CostPrice,
		arg.SalePrice, arg.UnitType, arg.PhotoURL)
	return scanProduct(row)
}

type UpdateProductParams struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	CategoryID  pgtype.UUID
	Name        string
	Description pgtype.Text
	CostPrice   pgtype.Numeric
	SalePrice   pgtype.Numeric
	UnitType    string
	PhotoURL    pgtype.Text
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET category_id = $3, name = $4, description = $5, cost_price = $6,
		    sale_price = $7, unit_type = $8, photo_url = $9, updated_at = now()
		WHERE id = $1 AND account_id = $2 AND is_active = true
		RETURNING `+productColumns,
		arg.ID, arg.AccountID, arg.CategoryID, arg.Name, arg.Description,
		arg.CostPrice, arg.SalePrice, arg.UnitType, arg.PhotoURL)
	return scanProduct(row)
}

type SoftDeleteProductParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) SoftDeleteProduct(ctx context.Context, arg SoftDeleteProductParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND account_id = $2 AND is_active = true
		RETURNING id`, arg.ID, arg.AccountID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
