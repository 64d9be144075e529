package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/product"
)

const instrumentationName = "github.com/xenking/ecocin/internal/domain/order"

// CreateRequest holds the input for placing an order. The unit price is not
// part of it: it is always read from the product.
type CreateRequest struct {
	DocumentNumber      string
	SKU                 string
	ShippingAddressType string
	Quantity            int
}

// Service implements order placement and the enriched order listing.
type Service struct {
	orders    Repository
	clients   client.Repository
	products  product.Repository
	addresses address.Repository

	tracer   trace.Tracer
	created  metric.Int64Counter
	rejected metric.Int64Counter
}

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Service.
type Option func(*options)

// WithTracerProvider sets the provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// NewService creates an order Service with the stores it resolves against.
func NewService(
	orders Repository,
	clients client.Repository,
	products product.Repository,
	addresses address.Repository,
	opts ...Option,
) (*Service, error) {
	o := options{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders persisted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.created counter")
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Order requests that could not be resolved"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.rejected counter")
	}

	return &Service{
		orders:    orders,
		clients:   clients,
		products:  products,
		addresses: addresses,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		created:   created,
		rejected:  rejected,
	}, nil
}

// Create resolves the client, product and shipping address of req and
// persists a pending order priced at the product's current price.
//
// Every resolution failure matches ErrNotCreated; store faults are returned
// wrapped. Nothing is written unless every step succeeds.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(
			attribute.String("order.sku", req.SKU),
			attribute.Int("order.quantity", req.Quantity),
		),
	)
	defer func() {
		var re *ResolutionError
		switch {
		case errors.As(rerr, &re):
			span.SetAttributes(attribute.String("order.rejected_reason", string(re.Reason)))
			s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(re.Reason))))
			zctx.From(ctx).Debug("Order rejected",
				zap.String("reason", string(re.Reason)),
				zap.String("detail", re.Detail),
			)
		case rerr != nil:
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	switch {
	case strings.TrimSpace(req.DocumentNumber) == "":
		return nil, reject(ReasonInvalidInput, "document number is required")
	case strings.TrimSpace(req.SKU) == "":
		return nil, reject(ReasonInvalidInput, "sku is required")
	case req.Quantity <= 0:
		return nil, reject(ReasonInvalidInput, "quantity must be greater than 0")
	}

	c, err := s.clients.FindByCPF(ctx, req.DocumentNumber)
	if errors.Is(err, client.ErrNotFound) {
		return nil, reject(ReasonUnknownClient, "")
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve client")
	}

	p, err := s.products.FindBySKU(ctx, req.SKU)
	if errors.Is(err, product.ErrNotFound) {
		return nil, reject(ReasonUnknownProduct, req.SKU)
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve product")
	}

	addrs, err := s.addresses.ListByOwner(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list client addresses")
	}
	addr, ok := pickShippingAddress(addrs, req.ShippingAddressType)
	if !ok {
		return nil, reject(ReasonNoAddress, req.ShippingAddressType)
	}

	o := New(c.ID, p.ID, addr.ID, req.Quantity, p.Price)
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))
	s.created.Add(ctx, 1)
	return o, nil
}

// ListDetails returns the orders of the client owning cpf, newest first, each
// joined with its client, product and shipping address.
//
// An unknown cpf yields an empty list. Orders whose product or address no
// longer exists are left out.
func (s *Service) ListDetails(ctx context.Context, cpf string) ([]Details, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListDetails")
	defer span.End()

	c, err := s.clients.FindByCPF(ctx, cpf)
	if errors.Is(err, client.ErrNotFound) {
		return []Details{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve client")
	}

	orders, err := s.orders.ListByOwner(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list client orders")
	}

	lg := zctx.From(ctx)
	out := make([]Details, 0, len(orders))
	for _, o := range orders {
		p, err := s.products.FindByID(ctx, o.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			lg.Debug("Skipping order with missing product",
				zap.Int64("order_id", o.ID),
				zap.Int64("product_id", o.ProductID),
			)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "resolve product of order %d", o.ID)
		}

		a, err := s.addresses.FindByID(ctx, o.ShippingAddressID)
		if errors.Is(err, address.ErrNotFound) {
			lg.Debug("Skipping order with missing address",
				zap.Int64("order_id", o.ID),
				zap.Int64("address_id", o.ShippingAddressID),
			)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "resolve address of order %d", o.ID)
		}

		out = append(out, Details{Order: o, Client: *c, Product: *p, Address: *a})
	}
	span.SetAttributes(attribute.Int("order.count", len(out)))
	return out, nil
}

// Get returns a single order by id.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}

// UpdateStatus moves an order to a new free-text status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if strings.TrimSpace(string(status)) == "" {
		return nil, ErrStatusRequired
	}
	ok, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, errors.Wrapf(err, "update status of order %d", id)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// ChangeShippingAddress points an order at another address of the same client.
func (s *Service) ChangeShippingAddress(ctx context.Context, id, addressID int64) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	a, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return nil, errors.Wrapf(err, "get address %d", addressID)
	}
	if a.ClientID != o.ClientID {
		return nil, reject(ReasonForeignAddress, "")
	}

	ok, err := s.orders.UpdateShippingAddress(ctx, id, addressID)
	if err != nil {
		return nil, errors.Wrapf(err, "update shipping address of order %d", id)
	}
	if !ok {
		return nil, ErrNotFound
	}
	o.ShippingAddressID = addressID
	return o, nil
}
