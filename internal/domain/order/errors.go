package order

import (
	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an order lookup matches no row.
	ErrNotFound = errors.New("order not found")
	// ErrNotCreated is the single outcome of every failed order resolution.
	ErrNotCreated = errors.New("order could not be created")

	ErrStatusRequired = errors.New("status is required")
)

// Reason identifies which resolution step rejected an order.
type Reason string

const (
	ReasonInvalidInput   Reason = "invalid input"
	ReasonUnknownClient  Reason = "unknown client"
	ReasonUnknownProduct Reason = "unknown product"
	ReasonNoAddress      Reason = "no shipping address"
	ReasonForeignAddress Reason = "address belongs to another client"
)

// ResolutionError carries the reason an order was not created.
// It matches ErrNotCreated under errors.Is.
type ResolutionError struct {
	Reason Reason
	Detail string
}

func (e *ResolutionError) Error() string {
	if e.Detail == "" {
		return ErrNotCreated.Error() + ": " + string(e.Reason)
	}
	return ErrNotCreated.Error() + ": " + string(e.Reason) + ": " + e.Detail
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrNotCreated
}

func reject(reason Reason, detail string) error {
	return &ResolutionError{Reason: reason, Detail: detail}
}
