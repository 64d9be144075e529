package memory

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/ecocin/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps orders independent of the product and address
// tables: removing either leaves dangling references, as in PostgreSQL.
type OrderRepository struct {
	db *DB
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	if err := checkOrder(o); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.orderSeq++
	o.ID = r.db.orderSeq
	o.CreatedAt = r.db.now()
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	r.db.orders[o.ID] = *o
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id int64) (*order.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	o, ok := r.db.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (r *OrderRepository) ListAll(_ context.Context) ([]order.Order, error) {
	return r.list(func(order.Order) bool { return true }), nil
}

func (r *OrderRepository) ListByOwner(_ context.Context, clientID int64) ([]order.Order, error) {
	return r.list(func(o order.Order) bool { return o.ClientID == clientID }), nil
}

func (r *OrderRepository) list(keep func(order.Order) bool) []order.Order {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]order.Order, 0)
	for _, o := range r.db.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	newestFirst(out, func(o order.Order) (time.Time, int64) { return o.CreatedAt, o.ID })
	return out
}

func (r *OrderRepository) Update(_ context.Context, o *order.Order) (bool, error) {
	if err := checkOrder(o); err != nil {
		return false, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.orders[o.ID]
	if !ok {
		return false, nil
	}
	updated := *o
	updated.CreatedAt = existing.CreatedAt
	r.db.orders[o.ID] = updated
	return true, nil
}

func (r *OrderRepository) Remove(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.orders[id]; !ok {
		return false, nil
	}
	delete(r.db.orders, id)
	return true, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id int64, status order.Status) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	r.db.orders[id] = o
	return true, nil
}

func (r *OrderRepository) UpdateShippingAddress(_ context.Context, id, addressID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[id]
	if !ok {
		return false, nil
	}
	o.ShippingAddressID = addressID
	r.db.orders[id] = o
	return true, nil
}

// checkOrder mirrors the CHECK constraints of the orders table.
func checkOrder(o *order.Order) error {
	switch {
	case o.Quantity() <= 0:
		return errors.Errorf("order quantity %d violates check constraint", o.Quantity())
	case o.UnitPrice().IsNegative():
		return errors.Errorf("order unit price %s violates check constraint", o.UnitPrice())
	}
	return nil
}
