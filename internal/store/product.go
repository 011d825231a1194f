package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// ProductRepository handles persistence for products.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, founder_id, name, description, category, status, url, tags, image, created_at, updated_at`

func scanProduct(row rowScanner) (types.Product, error) {
	var product types.Product
	var tagsJSON []byte
	err := row.Scan(
		&product.ID,
		&product.FounderID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Status,
		&product.URL,
		&tagsJSON,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	if product.Tags, err = decodeList[string](tagsJSON); err != nil {
		return types.Product{}, err
	}
	return product, nil
}

// List returns products newest-first. A founderID of 0 lists every founder's products.
func (r *ProductRepository) List(ctx context.Context, founderID int) ([]types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if founderID > 0 {
		query += ` WHERE founder_id = $1`
		args = append(args, founderID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int) (types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	tagsJSON, err := encodeList(product.Tags)
	if err != nil {
		return types.Product{}, err
	}

	const query = `
		INSERT INTO products (founder_id, name, description, category, status, url, tags, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		product.FounderID,
		product.Name,
		product.Description,
		product.Category,
		product.Status,
		product.URL,
		tagsJSON,
		product.Image,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID); err != nil {
		return types.Product{}, err
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product types.Product) (types.Product, error) {
	product.UpdatedAt = time.Now().UTC()

	tagsJSON, err := encodeList(product.Tags)
	if err != nil {
		return types.Product{}, err
	}

	query := `
		UPDATE products
		SET name = $1,
			description = $2,
			category = $3,
			status = $4,
			url = $5,
			tags = $6,
			image = $7,
			updated_at = $8
		WHERE id = $9
		RETURNING ` + productColumns
	return scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Category,
		product.Status,
		product.URL,
		tagsJSON,
		product.Image,
		product.UpdatedAt,
		product.ID,
	))
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
