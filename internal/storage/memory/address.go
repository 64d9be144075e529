package memory

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/ecocin/internal/domain/address"
)

var _ address.Repository = (*AddressRepository)(nil)

type AddressRepository struct {
	db *DB
}

// Create stores a. The owning client must exist, as with the foreign key in
// the PostgreSQL schema.
func (r *AddressRepository) Create(_ context.Context, a *address.Address) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.clients[a.ClientID]; !ok {
		return errors.Errorf("address owner %d does not exist", a.ClientID)
	}
	r.db.addressSeq++
	a.ID = r.db.addressSeq
	a.CreatedAt = r.db.now()
	r.db.addresses[a.ID] = *a
	return nil
}

func (r *AddressRepository) FindByID(_ context.Context, id int64) (*address.Address, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.addresses[id]
	if !ok {
		return nil, address.ErrNotFound
	}
	return &a, nil
}

func (r *AddressRepository) ListAll(_ context.Context) ([]address.Address, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]address.Address, 0, len(r.db.addresses))
	for _, a := range r.db.addresses {
		out = append(out, a)
	}
	byID(out, func(a address.Address) int64 { return a.ID })
	return out, nil
}

// ListByOwner returns the client's addresses newest first.
func (r *AddressRepository) ListByOwner(_ context.Context, clientID int64) ([]address.Address, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]address.Address, 0)
	for _, a := range r.db.addresses {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	newestFirst(out, func(a address.Address) (time.Time, int64) { return a.CreatedAt, a.ID })
	return out, nil
}

func (r *AddressRepository) Update(_ context.Context, a *address.Address) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.addresses[a.ID]
	if !ok {
		return false, nil
	}
	updated := *a
	updated.ClientID = existing.ClientID
	updated.CreatedAt = existing.CreatedAt
	r.db.addresses[a.ID] = updated
	return true, nil
}

func (r *AddressRepository) Remove(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.addresses[id]; !ok {
		return false, nil
	}
	delete(r.db.addresses, id)
	return true, nil
}
