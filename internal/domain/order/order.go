package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/product"
)

// Status is a free-text order state. New orders start as StatusPending.
type Status string

const StatusPending Status = "PENDING"

// Order is a priced purchase of a single product by a client.
//
// Quantity and unit price are only reachable through accessors so the total
// always equals quantity × unit price.
type Order struct {
	ID                int64
	ClientID          int64
	ProductID         int64
	ShippingAddressID int64
	Status            Status
	CreatedAt         time.Time

	quantity   int
	unitPrice  decimal.Decimal
	totalPrice decimal.Decimal
}

// New returns a pending order with its total computed.
func New(clientID, productID, shippingAddressID int64, quantity int, unitPrice decimal.Decimal) *Order {
	o := &Order{
		ClientID:          clientID,
		ProductID:         productID,
		ShippingAddressID: shippingAddressID,
		Status:            StatusPending,
		quantity:          quantity,
		unitPrice:         unitPrice,
	}
	o.recompute()
	return o
}

func (o *Order) Quantity() int { return o.quantity }

func (o *Order) UnitPrice() decimal.Decimal { return o.unitPrice }

func (o *Order) TotalPrice() decimal.Decimal { return o.totalPrice }

func (o *Order) SetQuantity(q int) {
	o.quantity = q
	o.recompute()
}

func (o *Order) SetUnitPrice(p decimal.Decimal) {
	o.unitPrice = p
	o.recompute()
}

func (o *Order) recompute() {
	o.totalPrice = o.unitPrice.Mul(decimal.NewFromInt(int64(o.quantity)))
}

// Details is an order joined with the records it references.
type Details struct {
	Order   Order
	Client  client.Client
	Product product.Product
	Address address.Address
}

// Repository defines persistence operations for orders.
//
// ListAll and ListByOwner return newest orders first, ties broken by id
// descending.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByOwner(ctx context.Context, clientID int64) ([]Order, error)
	Update(ctx context.Context, o *Order) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (bool, error)
	UpdateShippingAddress(ctx context.Context, id, addressID int64) (bool, error)
}
