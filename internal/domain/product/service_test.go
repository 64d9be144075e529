package product_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ecocin/internal/domain/product"
	"github.com/xenking/ecocin/internal/storage/memory"
)

func TestService_CreateGeneratesSKU(t *testing.T) {
	svc := product.NewService(memory.New().Products())

	p := &product.Product{Name: "Coffee", Price: decimal.RequireFromString("9.90"), StockQuantity: 5}
	require.NoError(t, svc.Create(context.Background(), p))

	_, err := uuid.Parse(p.SKU)
	require.NoError(t, err, "generated sku %q", p.SKU)

	got, err := svc.GetBySKU(context.Background(), p.SKU)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestService_CreateValidation(t *testing.T) {
	svc := product.NewService(memory.New().Products())

	tests := []struct {
		name string
		in   product.Product
		want error
	}{
		{"NoName", product.Product{Price: decimal.NewFromInt(1)}, product.ErrNameRequired},
		{"NegativePrice", product.Product{Name: "x", Price: decimal.NewFromInt(-1)}, product.ErrPriceNegative},
		{"NegativeStock", product.Product{Name: "x", StockQuantity: -1}, product.ErrStockNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			require.ErrorIs(t, svc.Create(context.Background(), &p), tt.want)
		})
	}
}

func TestService_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	svc := product.NewService(memory.New().Products())
	require.NoError(t, svc.Create(ctx, &product.Product{Name: "Coffee", SKU: "SKU-1"}))

	err := svc.Create(ctx, &product.Product{Name: "Tea", SKU: "SKU-1"})
	require.ErrorIs(t, err, product.ErrSKUTaken)

	tea := &product.Product{Name: "Tea", SKU: "SKU-2"}
	require.NoError(t, svc.Create(ctx, tea))
	tea.SKU = "SKU-1"
	require.ErrorIs(t, svc.Update(ctx, tea), product.ErrSKUTaken)
}

func TestService_UpdateKeepsSKUWhenEmpty(t *testing.T) {
	ctx := context.Background()
	svc := product.NewService(memory.New().Products())
	p := &product.Product{Name: "Coffee", SKU: "SKU-1", Price: decimal.NewFromInt(10)}
	require.NoError(t, svc.Create(ctx, p))

	upd := &product.Product{ID: p.ID, Name: "Coffee", Price: decimal.NewFromInt(12)}
	require.NoError(t, svc.Update(ctx, upd))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", got.SKU)
	assert.True(t, decimal.NewFromInt(12).Equal(got.Price))
	assert.Equal(t, p.CreatedAt, got.CreatedAt)

	require.ErrorIs(t, svc.Update(ctx, &product.Product{ID: 99, Name: "x"}), product.ErrNotFound)
	require.NoError(t, svc.Remove(ctx, p.ID))
	require.ErrorIs(t, svc.Remove(ctx, p.ID), product.ErrNotFound)
}

func TestService_PricesRoundToCents(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Products()
	svc := product.NewService(store)

	tests := []struct {
		in, want string
	}{
		{"9.999", "10"},
		{"1.005", "1.01"},
		{"2.344", "2.34"},
		{"7", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := &product.Product{Name: "Soap", Price: decimal.RequireFromString(tt.in)}
			require.NoError(t, svc.Create(ctx, p))
			assert.True(t, p.Price.Equal(decimal.RequireFromString(tt.want)), "got %s", p.Price)

			got, err := store.FindByID(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, got.Price.Equal(decimal.RequireFromString(tt.want)), "stored %s", got.Price)
		})
	}

	p := &product.Product{Name: "Brush", Price: decimal.NewFromInt(1)}
	require.NoError(t, svc.Create(ctx, p))
	p.Price = decimal.RequireFromString("3.456")
	require.NoError(t, svc.Update(ctx, p))
	got, err := store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("3.46")), "stored %s", got.Price)
}
