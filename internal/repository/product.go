package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecocin/internal/domain/product"
)

const (
	productColumns = `id, name, description, sku, price, stock_quantity, is_active, created_at`

	createProductSQL = `INSERT INTO products (name, description, sku, price, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

	getProductByIDSQL  = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductBySKUSQL = `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	listProductsSQL    = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, sku = $4, price = $5, stock_quantity = $6, is_active = $7
		WHERE id = $1`
	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.SKU, p.Price, p.StockQuantity, p.Active,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.SKU, productConflict(err))
	}
	return nil
}

// FindByID returns a single product by its identifier.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.findOne(ctx, getProductByIDSQL, id)
}

// FindBySKU returns the product with the given stock-keeping code.
func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.findOne(ctx, getProductBySKUSQL, sku)
}

func (r *ProductRepository) findOne(ctx context.Context, query string, arg any) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting product %v: %w", arg, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %v: %w", arg, err)
	}
	return &p, nil
}

// ListAll returns the catalog ordered by ID.
func (r *ProductRepository) ListAll(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.StockQuantity, p.Active,
	)
	if err != nil {
		return false, fmt.Errorf("updating product %d: %w", p.ID, productConflict(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ProductRepository) Remove(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting product %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func productConflict(err error) error {
	if violatedConstraint(err) == "products_sku_key" {
		return product.ErrSKUTaken
	}
	return err
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.SKU, &price,
		&p.StockQuantity, &p.Active, &p.CreatedAt,
	)
	p.Price = price
	return p, err
}
