// Package handler exposes the ecocin services over HTTP with a JSON codec
// built on go-faster/jx.
package handler

import (
	"net/http"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/order"
	"github.com/xenking/ecocin/internal/domain/product"
)

// Services groups the domain services the handler delegates to.
type Services struct {
	Clients   *client.Service
	Products  *product.Service
	Addresses *address.Service
	Orders    *order.Service
}

// Handler serves the REST API.
type Handler struct {
	clients   *client.Service
	products  *product.Service
	addresses *address.Service
	orders    *order.Service

	// guard wraps mutating routes. Nil leaves them open.
	guard func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithGuard protects every mutating route with g.
func WithGuard(g func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.guard = g }
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(s Services, opts ...Option) *Handler {
	h := &Handler{
		clients:   s.Clients,
		products:  s.Products,
		addresses: s.Addresses,
		orders:    s.Orders,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /clients", h.write(h.createClient))
	mux.HandleFunc("GET /clients", h.listClients)
	mux.HandleFunc("GET /clients/{id}", h.getClient)
	mux.HandleFunc("GET /clients/cpf/{cpf}", h.getClientByCPF)
	mux.HandleFunc("GET /clients/{cpf}/{resource}", h.listClientAddresses)
	mux.Handle("PUT /clients/{id}", h.write(h.updateClient))
	mux.Handle("DELETE /clients/{id}", h.write(h.removeClient))

	mux.Handle("POST /products", h.write(h.createProduct))
	mux.HandleFunc("GET /products", h.listProducts)
	mux.HandleFunc("GET /products/{id}", h.getProduct)
	mux.HandleFunc("GET /products/sku/{sku}", h.getProductBySKU)
	mux.Handle("PUT /products/{id}", h.write(h.updateProduct))
	mux.Handle("DELETE /products/{id}", h.write(h.removeProduct))

	mux.Handle("POST /addresses", h.write(h.createAddress))
	mux.HandleFunc("GET /addresses", h.listAddresses)
	mux.HandleFunc("GET /addresses/{id}", h.getAddress)
	mux.Handle("PUT /addresses/{id}", h.write(h.updateAddress))
	mux.Handle("DELETE /addresses/{id}", h.write(h.removeAddress))

	mux.Handle("POST /orders", h.write(h.createOrder))
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.Handle("PATCH /orders/{id}/status", h.write(h.updateOrderStatus))
	mux.Handle("PATCH /orders/{id}/shipping-address", h.write(h.changeShippingAddress))
}

func (h *Handler) write(fn http.HandlerFunc) http.Handler {
	if h.guard == nil {
		return fn
	}
	return h.guard(fn)
}
