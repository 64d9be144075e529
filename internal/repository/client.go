package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ecocin/internal/domain/client"
)

const (
	clientColumns = `id, name, email, cpf, created_at`

	createClientSQL = `INSERT INTO clients (name, email, cpf)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	getClientByIDSQL  = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	getClientByCPFSQL = `SELECT ` + clientColumns + ` FROM clients WHERE cpf = $1`
	listClientsSQL    = `SELECT ` + clientColumns + ` FROM clients ORDER BY id`

	updateClientSQL = `UPDATE clients SET name = $2, email = $3, cpf = $4 WHERE id = $1`
	deleteClientSQL = `DELETE FROM clients WHERE id = $1`
)

var _ client.Repository = (*ClientRepository)(nil)

// ClientRepository implements client.Repository backed by PostgreSQL.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a ClientRepository that uses the given pool.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Create inserts c and fills in its id and creation time.
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	err := r.pool.QueryRow(ctx, createClientSQL, c.Name, c.Email, c.CPF).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating client: %w", clientConflict(err))
	}
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*client.Client, error) {
	return r.findOne(ctx, getClientByIDSQL, id)
}

func (r *ClientRepository) FindByCPF(ctx context.Context, cpf string) (*client.Client, error) {
	return r.findOne(ctx, getClientByCPFSQL, cpf)
}

func (r *ClientRepository) findOne(ctx context.Context, query string, arg any) (*client.Client, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting client: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanClient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrNotFound
		}
		return nil, fmt.Errorf("getting client: %w", err)
	}
	return &c, nil
}

// ListAll returns every client ordered by id.
func (r *ClientRepository) ListAll(ctx context.Context) ([]client.Client, error) {
	rows, err := r.pool.Query(ctx, listClientsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return pgx.CollectRows(rows, scanClient)
}

func (r *ClientRepository) Update(ctx context.Context, c *client.Client) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateClientSQL, c.ID, c.Name, c.Email, c.CPF)
	if err != nil {
		return false, fmt.Errorf("updating client %d: %w", c.ID, clientConflict(err))
	}
	return tag.RowsAffected() > 0, nil
}

// Remove deletes the client. Its addresses go with it through ON DELETE CASCADE.
func (r *ClientRepository) Remove(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteClientSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting client %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func clientConflict(err error) error {
	switch violatedConstraint(err) {
	case "clients_cpf_key":
		return client.ErrCPFTaken
	case "clients_email_key":
		return client.ErrEmailTaken
	}
	return err
}

func scanClient(row pgx.CollectableRow) (client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CPF, &c.CreatedAt)
	return c, err
}
