package address

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/ecocin/internal/domain/client"
)

// Service manages addresses on behalf of clients identified by cpf.
type Service struct {
	repo    Repository
	clients client.Repository
}

// NewService creates an address Service.
func NewService(repo Repository, clients client.Repository) *Service {
	return &Service{repo: repo, clients: clients}
}

// Create attaches a to the client owning cpf and persists it.
// An unknown cpf yields client.ErrNotFound.
func (s *Service) Create(ctx context.Context, cpf string, a *Address) error {
	if strings.TrimSpace(cpf) == "" {
		return ErrOwnerRequired
	}
	if err := a.Validate(); err != nil {
		return err
	}
	owner, err := s.clients.FindByCPF(ctx, cpf)
	if err != nil {
		return errors.Wrap(err, "resolve owner")
	}
	a.ClientID = owner.ID
	if err := s.repo.Create(ctx, a); err != nil {
		return errors.Wrap(err, "create address")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Address, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get address %d", id)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Address, error) {
	addrs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return addrs, nil
}

// ListByCPF returns the addresses of the client owning cpf. An unknown cpf
// yields an empty list.
func (s *Service) ListByCPF(ctx context.Context, cpf string) ([]Address, error) {
	owner, err := s.clients.FindByCPF(ctx, cpf)
	if errors.Is(err, client.ErrNotFound) {
		return []Address{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve owner")
	}
	addrs, err := s.repo.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses by owner")
	}
	return addrs, nil
}

// Update overwrites the postal fields of an existing address. The owner and
// the creation timestamp of the stored row are kept.
func (s *Service) Update(ctx context.Context, a *Address) error {
	if err := a.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, a.ID)
	if err != nil {
		return errors.Wrapf(err, "get address %d", a.ID)
	}
	a.ClientID = existing.ClientID
	a.CreatedAt = existing.CreatedAt

	ok, err := s.repo.Update(ctx, a)
	if err != nil {
		return errors.Wrapf(err, "update address %d", a.ID)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "remove address %d", id)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
