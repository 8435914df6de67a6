package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/smartstore/internal/domain/catalog"
)

const productColumns = `id, name, description, price, discount_price,
		category_id, category_name, image, images, rating, num_reviews,
		stock, is_available, is_featured, is_trending, created_at, updated_at`

const (
	listProductsSQL    = `SELECT ` + productColumns + ` FROM products ORDER BY id`
	getProductByIDSQL  = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (
			id, name, description, price, discount_price, category_id,
			category_name, image, images, rating, num_reviews, stock,
			is_available, is_featured, is_trending
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price,
			category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name,
			image = EXCLUDED.image,
			images = EXCLUDED.images,
			rating = EXCLUDED.rating,
			num_reviews = EXCLUDED.num_reviews,
			stock = EXCLUDED.stock,
			is_available = EXCLUDED.is_available,
			is_featured = EXCLUDED.is_featured,
			is_trending = EXCLUDED.is_trending,
			updated_at = now()`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the full catalog ordered by ID. Filtering and sorting happen
// in the catalog pipeline, not in SQL, so the pipeline behaves identically
// over fixture data and database rows.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts or updates a product. Used by the seed tool.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.DiscountPrice,
		p.CategoryID, p.CategoryName, p.Image, p.Images,
		p.Rating, p.NumReviews, p.Stock,
		p.Available, p.Featured, p.Trending,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice,
		&p.CategoryID, &p.CategoryName, &p.Image, &p.Images,
		&p.Rating, &p.NumReviews, &p.Stock,
		&p.Available, &p.Featured, &p.Trending,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
