// Package memory implements the domain repositories on mutex-guarded maps,
// for local runs and tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/order"
	"github.com/xenking/ecocin/internal/domain/product"
)

// DB holds every table. Repositories obtained from the same DB share its
// lock, so cascades across tables are atomic.
type DB struct {
	mu  sync.RWMutex
	now func() time.Time

	clientSeq  int64
	productSeq int64
	addressSeq int64
	orderSeq   int64

	clients   map[int64]client.Client
	products  map[int64]product.Product
	addresses map[int64]address.Address
	orders    map[int64]order.Order
}

// New returns an empty in-memory database.
func New() *DB {
	return &DB{
		now:       func() time.Time { return time.Now().UTC() },
		clients:   make(map[int64]client.Client),
		products:  make(map[int64]product.Product),
		addresses: make(map[int64]address.Address),
		orders:    make(map[int64]order.Order),
	}
}

// Clients returns the client table.
func (db *DB) Clients() *ClientRepository { return &ClientRepository{db: db} }

// Products returns the product table.
func (db *DB) Products() *ProductRepository { return &ProductRepository{db: db} }

// Addresses returns the address table.
func (db *DB) Addresses() *AddressRepository { return &AddressRepository{db: db} }

// Orders returns the order table.
func (db *DB) Orders() *OrderRepository { return &OrderRepository{db: db} }

// SetClock overrides the timestamp source. Tests use it to produce equal or
// out-of-order creation times.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

// newestFirst sorts by creation time descending, ties broken by id descending.
func newestFirst[T any](items []T, key func(T) (time.Time, int64)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}

func byID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
