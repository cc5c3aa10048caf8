package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = `id, account_id, name, emoji, color, display_order`

func scanCategory(row interface{ Scan(dest ...interface{}) error }) (ProductCategory, error) {
	var c ProductCategory
	err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.Emoji, &c.Color, &c.DisplayOrder)
	return c, err
}

func (q *Queries) ListCategoriesByAccount(ctx context.Context, accountID uuid.UUID) ([]ProductCategory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM product_categories
		WHERE account_id = $1
		ORDER BY display_order, name`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []ProductCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type GetCategoryParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

func (q *Queries) GetCategory(ctx context.Context, arg GetCategoryParams) (ProductCategory, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM product_categories
		WHERE id = $1 AND account_id = $2`, arg.ID, arg.AccountID)
	return scanCategory(row)
}

type CreateCategoryParams struct {
	AccountID    uuid.UUID
	Name         string
	Emoji        pgtype.Text
	Color        pgtype.Text
	DisplayOrder int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (ProductCategory, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO product_categories (account_id, name, emoji, color, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		arg.AccountID, arg.Name, arg.Emoji, arg.Color, arg.DisplayOrder)
	return scanCategory(row)
}

type UpdateCategoryParams struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Name         string
	Emoji        pgtype.Text
	Color        pgtype.Text
	DisplayOrder int32
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (ProductCategory, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE product_categories
		SET name = $3, emoji = $4, color = $5, display_order = $6
		WHERE id = $1 AND account_id = $2
		RETURNING `+categoryColumns,
		arg.ID, arg.AccountID, arg.Name, arg.Emoji, arg.Color, arg.DisplayOrder)
	return scanCategory(row)
}

type DeleteCategoryParams struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

// DeleteCategory removes a category; products keep running with a null
// category_id (ON DELETE SET NULL in the schema).
func (q *Queries) DeleteCategory(ctx context.Context, arg DeleteCategoryParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM product_categories
		WHERE id = $1 AND account_id = $2
		RETURNING id`, arg.ID, arg.AccountID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
