package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecocin/internal/domain/order"
)

const (
	orderColumns = `id, client_id, product_id, shipping_address_id, quantity, unit_price, status, created_at`

	createOrderSQL = `INSERT INTO orders
		(client_id, product_id, shipping_address_id, quantity, unit_price, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`

	getOrderByIDSQL      = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersSQL        = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
	listOrdersByOwnerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE client_id = $1 ORDER BY created_at DESC, id DESC`

	updateOrderSQL = `UPDATE orders
		SET client_id = $2, product_id = $3, shipping_address_id = $4,
			quantity = $5, unit_price = $6, total_price = $7, status = $8
		WHERE id = $1`
	updateOrderStatusSQL  = `UPDATE orders SET status = $2 WHERE id = $1`
	updateOrderAddressSQL = `UPDATE orders SET shipping_address_id = $2 WHERE id = $1`
	deleteOrderSQL        = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order in a single statement and fills in its id and
// creation time.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	err := r.pool.QueryRow(ctx, createOrderSQL,
		o.ClientID, o.ProductID, o.ShippingAddressID,
		o.Quantity(), o.UnitPrice(), o.TotalPrice(), string(o.Status),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order for client %d: %w", o.ClientID, err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return o, nil
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return collectOrders(rows)
}

// ListByOwner returns the client's orders newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, clientID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByOwnerSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of client %d: %w", clientID, err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) Update(ctx context.Context, o *order.Order) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, o.ClientID, o.ProductID, o.ShippingAddressID,
		o.Quantity(), o.UnitPrice(), o.TotalPrice(), string(o.Status),
	)
	if err != nil {
		return false, fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) Remove(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting order %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return false, fmt.Errorf("updating status of order %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) UpdateShippingAddress(ctx context.Context, id, addressID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateOrderAddressSQL, id, addressID)
	if err != nil {
		return false, fmt.Errorf("updating shipping address of order %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	ptrs, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scanning orders: %w", err)
	}
	out := make([]order.Order, len(ptrs))
	for i, o := range ptrs {
		out[i] = *o
	}
	return out, nil
}

// scanOrder rebuilds the entity through order.New so the total is derived
// from quantity and unit price rather than read back.
func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		id, clientID, productID, addressID int64
		quantity                           int
		unitPrice                          decimal.Decimal
		status                             string
		createdAt                          time.Time
	)
	err := row.Scan(&id, &clientID, &productID, &addressID, &quantity, &unitPrice, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	o := order.New(clientID, productID, addressID, quantity, unitPrice)
	o.ID = id
	o.Status = order.Status(status)
	o.CreatedAt = createdAt
	return o, nil
}
