package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrSKUTaken is returned when another product already uses the SKU.
	ErrSKUTaken = errors.New("product with this sku already exists")

	ErrNameRequired  = errors.New("name is required")
	ErrPriceNegative = errors.New("price must be non-negative")
	ErrStockNegative = errors.New("stock quantity must be non-negative")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID            int64
	Name          string
	Description   string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int
	Active        bool
	CreatedAt     time.Time
}

// PriceScale is the number of decimal places prices are stored with.
const PriceScale = 2

// Validate rounds the price to PriceScale places, half away from zero like
// the NUMERIC column does, and checks the catalog constraints on a product.
func (p *Product) Validate() error {
	p.Price = p.Price.Round(PriceScale)
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrNameRequired
	case p.Price.IsNegative():
		return ErrPriceNegative
	case p.StockQuantity < 0:
		return ErrStockNegative
	}
	return nil
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p *Product) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
}
