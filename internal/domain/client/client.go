package client

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a client lookup matches no row. Callers
	// treat it as an empty result, not as a failure.
	ErrNotFound = errors.New("client not found")

	// ErrCPFTaken is returned when another client already uses the document number.
	ErrCPFTaken = errors.New("client with this cpf already exists")
	// ErrEmailTaken is returned when another client already uses the email.
	ErrEmailTaken = errors.New("client with this email already exists")

	ErrNameRequired  = errors.New("name is required")
	ErrEmailRequired = errors.New("email is required")
	ErrCPFRequired   = errors.New("cpf is required")
)

// Client is a customer identified by its document number (cpf).
type Client struct {
	ID        int64
	Name      string
	Email     string
	CPF       string
	CreatedAt time.Time
}

// Validate checks required fields. It returns the first violation found.
func (c *Client) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return ErrNameRequired
	case strings.TrimSpace(c.Email) == "":
		return ErrEmailRequired
	case strings.TrimSpace(c.CPF) == "":
		return ErrCPFRequired
	}
	return nil
}

// Repository defines persistence operations for clients.
//
// Create assigns ID and CreatedAt on the passed client. Update and Remove
// report whether a row was affected.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	FindByID(ctx context.Context, id int64) (*Client, error)
	FindByCPF(ctx context.Context, cpf string) (*Client, error)
	ListAll(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, c *Client) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCPFTaken) || errors.Is(err, ErrEmailTaken)
}
