// Package address holds client-owned postal addresses.
//
// The address type is a free-text tag ("billing", "shipping", "home", ...)
// chosen by the client. It is compared verbatim when an order picks its
// shipping destination.
package address

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an address lookup matches no row.
	ErrNotFound = errors.New("address not found")

	ErrOwnerRequired  = errors.New("owning client is required")
	ErrStreetRequired = errors.New("street is required")
	ErrNumberRequired = errors.New("number is required")
	ErrCityRequired   = errors.New("city is required")
	ErrStateRequired  = errors.New("state is required")
	ErrZipRequired    = errors.New("zip is required")
)

// Address is a postal address owned by a client.
type Address struct {
	ID        int64
	ClientID  int64
	Street    string
	Number    string
	City      string
	State     string
	Zip       string
	Type      string
	CreatedAt time.Time
}

// Validate checks that every postal field is filled in. The type is free
// text and may be empty. The owner is checked separately by the service,
// since it is resolved from the client's cpf.
func (a *Address) Validate() error {
	for _, f := range []struct {
		value string
		err   error
	}{
		{a.Street, ErrStreetRequired},
		{a.Number, ErrNumberRequired},
		{a.City, ErrCityRequired},
		{a.State, ErrStateRequired},
		{a.Zip, ErrZipRequired},
	} {
		if strings.TrimSpace(f.value) == "" {
			return f.err
		}
	}
	return nil
}

// Repository defines persistence operations for addresses.
//
// ListByOwner returns the client's addresses newest first; the order is
// stable for a given store state.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	FindByID(ctx context.Context, id int64) (*Address, error)
	ListAll(ctx context.Context) ([]Address, error)
	ListByOwner(ctx context.Context, clientID int64) ([]Address, error)
	Update(ctx context.Context, a *Address) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
}
