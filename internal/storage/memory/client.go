package memory

import (
	"context"

	"github.com/xenking/ecocin/internal/domain/client"
)

var _ client.Repository = (*ClientRepository)(nil)

// ClientRepository enforces the same cpf and email uniqueness as the
// PostgreSQL schema.
type ClientRepository struct {
	db *DB
}

func (r *ClientRepository) Create(_ context.Context, c *client.Client) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.checkUnique(c, 0); err != nil {
		return err
	}
	r.db.clientSeq++
	c.ID = r.db.clientSeq
	c.CreatedAt = r.db.now()
	r.db.clients[c.ID] = *c
	return nil
}

func (r *ClientRepository) FindByID(_ context.Context, id int64) (*client.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.clients[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return &c, nil
}

func (r *ClientRepository) FindByCPF(_ context.Context, cpf string) (*client.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, c := range r.db.clients {
		if c.CPF == cpf {
			return &c, nil
		}
	}
	return nil, client.ErrNotFound
}

func (r *ClientRepository) ListAll(_ context.Context) ([]client.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]client.Client, 0, len(r.db.clients))
	for _, c := range r.db.clients {
		out = append(out, c)
	}
	byID(out, func(c client.Client) int64 { return c.ID })
	return out, nil
}

func (r *ClientRepository) Update(_ context.Context, c *client.Client) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.clients[c.ID]
	if !ok {
		return false, nil
	}
	if err := r.checkUnique(c, c.ID); err != nil {
		return false, err
	}
	updated := *c
	updated.CreatedAt = existing.CreatedAt
	r.db.clients[c.ID] = updated
	return true, nil
}

// Remove deletes the client along with its addresses.
func (r *ClientRepository) Remove(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.clients[id]; !ok {
		return false, nil
	}
	delete(r.db.clients, id)
	for aid, a := range r.db.addresses {
		if a.ClientID == id {
			delete(r.db.addresses, aid)
		}
	}
	return true, nil
}

func (r *ClientRepository) checkUnique(c *client.Client, self int64) error {
	for id, other := range r.db.clients {
		if id == self {
			continue
		}
		if other.CPF == c.CPF {
			return client.ErrCPFTaken
		}
		if other.Email == c.Email {
			return client.ErrEmailTaken
		}
	}
	return nil
}
