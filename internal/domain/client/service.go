package client

import (
	"context"

	"github.com/go-faster/errors"
)

// Service implements client registration and maintenance rules on top of a
// Repository.
type Service struct {
	repo Repository
}

// NewService creates a client Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates c, rejects a document number already in use and persists
// the client. On success c carries the store-assigned ID and CreatedAt.
func (s *Service) Create(ctx context.Context, c *Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.ensureCPFFree(ctx, c.CPF, 0); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return errors.Wrap(err, "create client")
	}
	return nil
}

// Get returns the client with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get client %d", id)
	}
	return c, nil
}

// GetByCPF returns the client owning the document number.
func (s *Service) GetByCPF(ctx context.Context, cpf string) (*Client, error) {
	c, err := s.repo.FindByCPF(ctx, cpf)
	if err != nil {
		return nil, errors.Wrap(err, "get client by cpf")
	}
	return c, nil
}

// List returns every client.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	clients, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list clients")
	}
	return clients, nil
}

// Update overwrites the mutable fields of an existing client. The creation
// timestamp of the stored row is kept.
func (s *Service) Update(ctx context.Context, c *Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, c.ID)
	if err != nil {
		return errors.Wrapf(err, "get client %d", c.ID)
	}
	if err := s.ensureCPFFree(ctx, c.CPF, c.ID); err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt

	ok, err := s.repo.Update(ctx, c)
	if err != nil {
		return errors.Wrapf(err, "update client %d", c.ID)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the client with the given id.
func (s *Service) Remove(ctx context.Context, id int64) error {
	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "remove client %d", id)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ensureCPFFree fails with ErrCPFTaken when cpf belongs to a client other
// than self.
func (s *Service) ensureCPFFree(ctx context.Context, cpf string, self int64) error {
	other, err := s.repo.FindByCPF(ctx, cpf)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrap(err, "lookup client by cpf")
	case other.ID != self:
		return ErrCPFTaken
	}
	return nil
}
