package memory

import (
	"context"

	"github.com/xenking/ecocin/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

type ProductRepository struct {
	db *DB
}

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.skuTaken(p.SKU, 0) {
		return product.ErrSKUTaken
	}
	r.db.productSeq++
	p.ID = r.db.productSeq
	p.CreatedAt = r.db.now()
	r.db.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) FindByID(_ context.Context, id int64) (*product.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepository) FindBySKU(_ context.Context, sku string) (*product.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, p := range r.db.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *ProductRepository) ListAll(_ context.Context) ([]product.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]product.Product, 0, len(r.db.products))
	for _, p := range r.db.products {
		out = append(out, p)
	}
	byID(out, func(p product.Product) int64 { return p.ID })
	return out, nil
}

func (r *ProductRepository) Update(_ context.Context, p *product.Product) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.products[p.ID]
	if !ok {
		return false, nil
	}
	if r.skuTaken(p.SKU, p.ID) {
		return false, product.ErrSKUTaken
	}
	updated := *p
	updated.CreatedAt = existing.CreatedAt
	r.db.products[p.ID] = updated
	return true, nil
}

// Remove deletes the product. Orders referencing it are kept.
func (r *ProductRepository) Remove(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.products[id]; !ok {
		return false, nil
	}
	delete(r.db.products, id)
	return true, nil
}

func (r *ProductRepository) skuTaken(sku string, self int64) bool {
	for id, p := range r.db.products {
		if id != self && p.SKU == sku {
			return true
		}
	}
	return false
}
