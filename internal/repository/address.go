package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ecocin/internal/domain/address"
)

const (
	addressColumns = `id, client_id, street, number, city, state, zip, address_type, created_at`

	createAddressSQL = `INSERT INTO addresses (client_id, street, number, city, state, zip, address_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`

	getAddressByIDSQL       = `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`
	listAddressesSQL        = `SELECT ` + addressColumns + ` FROM addresses ORDER BY id`
	listAddressesByOwnerSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE client_id = $1 ORDER BY created_at DESC, id DESC`

	updateAddressSQL = `UPDATE addresses
		SET street = $2, number = $3, city = $4, state = $5, zip = $6, address_type = $7
		WHERE id = $1`
	deleteAddressSQL = `DELETE FROM addresses WHERE id = $1`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	err := r.pool.QueryRow(ctx, createAddressSQL,
		a.ClientID, a.Street, a.Number, a.City, a.State, a.Zip, a.Type,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating address for client %d: %w", a.ClientID, err)
	}
	return nil
}

func (r *AddressRepository) FindByID(ctx context.Context, id int64) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	return &a, nil
}

func (r *AddressRepository) ListAll(ctx context.Context) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// ListByOwner returns the client's addresses newest first.
func (r *AddressRepository) ListByOwner(ctx context.Context, clientID int64) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesByOwnerSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of client %d: %w", clientID, err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Update overwrites the postal fields. The owner column is never changed.
func (r *AddressRepository) Update(ctx context.Context, a *address.Address) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateAddressSQL,
		a.ID, a.Street, a.Number, a.City, a.State, a.Zip, a.Type,
	)
	if err != nil {
		return false, fmt.Errorf("updating address %d: %w", a.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AddressRepository) Remove(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteAddressSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting address %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.ClientID, &a.Street, &a.Number, &a.City, &a.State, &a.Zip,
		&a.Type, &a.CreatedAt,
	)
	return a, err
}
