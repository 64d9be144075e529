package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service encapsulates catalog maintenance rules.
type Service struct {
	repo Repository
}

// NewService creates a product Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates p and persists it. A product submitted without a SKU gets
// a random UUID as its stock-keeping code.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.SKU == "" {
		p.SKU = uuid.New().String()
	}
	if err := s.ensureSKUFree(ctx, p.SKU, 0); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return p, nil
}

// GetBySKU returns the product with the given stock-keeping code.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, errors.Wrapf(err, "get product by sku %q", sku)
	}
	return p, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// Update overwrites every mutable field of an existing product. Existing
// orders keep the unit price they were created with.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		return errors.Wrapf(err, "get product %d", p.ID)
	}
	if p.SKU == "" {
		p.SKU = existing.SKU
	}
	if err := s.ensureSKUFree(ctx, p.SKU, p.ID); err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt

	ok, err := s.repo.Update(ctx, p)
	if err != nil {
		return errors.Wrapf(err, "update product %d", p.ID)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Remove deletes a product. Orders referencing it are left untouched.
func (s *Service) Remove(ctx context.Context, id int64) error {
	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "remove product %d", id)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ensureSKUFree(ctx context.Context, sku string, self int64) error {
	other, err := s.repo.FindBySKU(ctx, sku)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrap(err, "lookup product by sku")
	case other.ID != self:
		return ErrSKUTaken
	}
	return nil
}
