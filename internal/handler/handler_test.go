package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/auth"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/order"
	"github.com/xenking/ecocin/internal/domain/product"
	"github.com/xenking/ecocin/internal/handler"
	"github.com/xenking/ecocin/internal/storage/memory"
)

func newMux(t *testing.T, opts ...handler.Option) *http.ServeMux {
	t.Helper()
	db := memory.New()
	orders, err := order.NewService(db.Orders(), db.Clients(), db.Products(), db.Addresses())
	require.NoError(t, err)

	h := handler.NewHandler(handler.Services{
		Clients:   client.NewService(db.Clients()),
		Products:  product.NewService(db.Products()),
		Addresses: address.NewService(db.Addresses(), db.Clients()),
		Orders:    orders,
	}, opts...)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// object decodes a flat JSON object into raw values keyed by field.
func object(t *testing.T, body string) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, jx.DecodeStr(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		out[string(key)] = strings.Trim(raw.String(), `"`)
		return nil
	}), body)
	return out
}

func array(t *testing.T, body string) []string {
	t.Helper()
	var out []string
	require.NoError(t, jx.DecodeStr(body).Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		out = append(out, raw.String())
		return nil
	}), body)
	return out
}

const (
	anaJSON  = `{"name":"Ana","email":"ana@example.com","cpf":"111"}`
	soapJSON = `{"name":"Soap","description":"Organic soap","sku":"SOAP-1","price":9.90,"stockQuantity":10}`
	homeJSON = `{"cpf":"111","street":"Rua A","number":"10","city":"Recife","state":"PE","zip":"50000","addressType":"HOME"}`
	workJSON = `{"cpf":"111","street":"Av B","number":"200","city":"Recife","state":"PE","zip":"50001","addressType":"WORK"}`
)

func seed(t *testing.T, h http.Handler, bodies ...[2]string) {
	t.Helper()
	for _, b := range bodies {
		w := do(t, h, http.MethodPost, b[0], b[1])
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func TestClients(t *testing.T) {
	mux := newMux(t)

	w := do(t, mux, http.MethodPost, "/clients", anaJSON)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := object(t, w.Body.String())
	assert.Equal(t, "Ana", created["name"])
	assert.Equal(t, "111", created["cpf"])
	id := created["id"]

	w = do(t, mux, http.MethodGet, "/clients/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, mux, http.MethodGet, "/clients/cpf/111", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, object(t, w.Body.String())["id"])

	w = do(t, mux, http.MethodPost, "/clients", `{"name":"Other","email":"o@example.com","cpf":"111"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, mux, http.MethodPost, "/clients", `{"name":"","email":"x@example.com","cpf":"222"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, mux, http.MethodPut, "/clients/"+id, `{"name":"Ana Maria","email":"ana@example.com","cpf":"111"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ana Maria", object(t, w.Body.String())["name"])

	w = do(t, mux, http.MethodGet, "/clients", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, array(t, w.Body.String()), 1)

	assert.Equal(t, http.StatusNoContent, do(t, mux, http.MethodDelete, "/clients/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/clients/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodDelete, "/clients/"+id, "").Code)
}

func TestBadRequests(t *testing.T) {
	mux := newMux(t)

	for _, tt := range []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"InvalidID", http.MethodGet, "/clients/abc", ""},
		{"ZeroID", http.MethodGet, "/products/0", ""},
		{"EmptyBody", http.MethodPost, "/clients", ""},
		{"MalformedJSON", http.MethodPost, "/clients", `{"name":`},
		{"NotAnObject", http.MethodPost, "/products", `[1,2]`},
		{"PriceNotNumber", http.MethodPost, "/products", `{"name":"x","price":true}`},
		{"NegativePrice", http.MethodPost, "/products", `{"name":"x","price":-1}`},
		{"OrdersWithoutCPF", http.MethodGet, "/orders", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "400", object(t, w.Body.String())["code"])
		})
	}
}

func TestProducts(t *testing.T) {
	mux := newMux(t)

	w := do(t, mux, http.MethodPost, "/products", `{"name":"Soap","description":"Organic","price":"12.50","stockQuantity":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := object(t, w.Body.String())
	assert.NotEmpty(t, created["sku"])
	assert.Equal(t, "12.5", created["price"])
	assert.Equal(t, "true", created["isActive"])

	w = do(t, mux, http.MethodGet, "/products/sku/"+created["sku"], "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created["id"], object(t, w.Body.String())["id"])

	w = do(t, mux, http.MethodPost, "/products", `{"name":"Dup","sku":"`+created["sku"]+`","price":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, mux, http.MethodPut, "/products/"+created["id"], `{"name":"Soap","price":13,"stockQuantity":1,"isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := object(t, w.Body.String())
	assert.Equal(t, created["sku"], updated["sku"])
	assert.Equal(t, "false", updated["isActive"])

	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/products/sku/missing", "").Code)
}

func TestAddresses(t *testing.T) {
	mux := newMux(t)
	seed(t, mux, [2]string{"/clients", anaJSON})

	w := do(t, mux, http.MethodPost, "/addresses", strings.Replace(homeJSON, `"111"`, `"999"`, 1))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, mux, http.MethodPost, "/addresses", `{"street":"Rua A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	seed(t, mux, [2]string{"/addresses", homeJSON}, [2]string{"/addresses", workJSON})

	w = do(t, mux, http.MethodGet, "/addresses?cpf=111", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, array(t, w.Body.String()), 2)

	w = do(t, mux, http.MethodGet, "/addresses?cpf=999", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, mux, http.MethodGet, "/clients/111/addresses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, array(t, w.Body.String()), 2)

	w = do(t, mux, http.MethodGet, "/clients/999/addresses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/clients/111/orders", "").Code)

	// The cpf lookup keeps its own route.
	w = do(t, mux, http.MethodGet, "/clients/cpf/111", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "111", object(t, w.Body.String())["cpf"])
}

func TestAddresses_TypeIsOptional(t *testing.T) {
	mux := newMux(t)
	seed(t, mux, [2]string{"/clients", anaJSON})

	w := do(t, mux, http.MethodPost, "/addresses", strings.Replace(homeJSON, `"HOME"`, `""`, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "", object(t, w.Body.String())["addressType"])

	w = do(t, mux, http.MethodPost, "/addresses", `{"cpf":"111","street":"Av B","number":"200","city":"Recife","state":"PE","zip":"50001"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateOrder(t *testing.T) {
	mux := newMux(t)
	seed(t, mux,
		[2]string{"/clients", anaJSON},
		[2]string{"/products", soapJSON},
		[2]string{"/addresses", homeJSON},
	)

	t.Run("IgnoresClientPrice", func(t *testing.T) {
		w := do(t, mux, http.MethodPost, "/orders",
			`{"documentNumber":"111","sku":"SOAP-1","quantity":3,"unitPrice":0.01,"totalPrice":0.03}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		o := object(t, w.Body.String())
		assert.Equal(t, "9.9", o["unitPrice"])
		assert.Equal(t, "29.7", o["totalPrice"])
		assert.Equal(t, "PENDING", o["status"])
		assert.Equal(t, "3", o["quantity"])

		w = do(t, mux, http.MethodGet, "/orders/"+o["id"], "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "29.7", object(t, w.Body.String())["totalPrice"])
	})
	t.Run("QuantityDefaultsToOne", func(t *testing.T) {
		w := do(t, mux, http.MethodPost, "/orders", `{"cpf":"111","sku":"SOAP-1"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "1", object(t, w.Body.String())["quantity"])
	})
	t.Run("MissingFields", func(t *testing.T) {
		for _, body := range []string{
			`{"sku":"SOAP-1","quantity":1}`,
			`{"documentNumber":"111","quantity":1}`,
			`{"documentNumber":"111","sku":"SOAP-1","quantity":0}`,
		} {
			assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodPost, "/orders", body).Code, body)
		}
	})
	t.Run("NotCreated", func(t *testing.T) {
		for _, body := range []string{
			`{"documentNumber":"999","sku":"SOAP-1","quantity":1}`,
			`{"documentNumber":"111","sku":"NOPE","quantity":1}`,
		} {
			w := do(t, mux, http.MethodPost, "/orders", body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
			assert.Equal(t, order.ErrNotCreated.Error(), object(t, w.Body.String())["message"])
		}
	})
}

func TestOrderTypeSelection(t *testing.T) {
	mux := newMux(t)
	seed(t, mux,
		[2]string{"/clients", anaJSON},
		[2]string{"/products", soapJSON},
		[2]string{"/addresses", homeJSON},
		[2]string{"/addresses", workJSON},
	)

	w := do(t, mux, http.MethodPost, "/orders", `{"documentNumber":"111","sku":"SOAP-1","quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, mux, http.MethodPost, "/orders", `{"documentNumber":"111","sku":"SOAP-1","quantity":1,"shippingAddressType":"WORK"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, mux, http.MethodGet, "/orders?cpf=111", "")
	require.Equal(t, http.StatusOK, w.Code)
	items := array(t, w.Body.String())
	require.Len(t, items, 1)
	d := object(t, items[0])
	assert.Equal(t, "Ana", d["clientName"])
	assert.Equal(t, "Organic soap", d["productDescription"])
	ship := object(t, d["shippingAddress"])
	assert.Equal(t, "Av B", ship["street"])
	assert.Equal(t, "WORK", ship["addressType"])
}

func TestListOrders_UnknownClient(t *testing.T) {
	mux := newMux(t)

	w := do(t, mux, http.MethodGet, "/orders?cpf=000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestOrderUpdates(t *testing.T) {
	mux := newMux(t)
	seed(t, mux,
		[2]string{"/clients", anaJSON},
		[2]string{"/clients", `{"name":"Bia","email":"bia@example.com","cpf":"222"}`},
		[2]string{"/products", soapJSON},
		[2]string{"/addresses", homeJSON},
	)
	w := do(t, mux, http.MethodPost, "/addresses", workJSON)
	require.Equal(t, http.StatusCreated, w.Code)
	workID := object(t, w.Body.String())["id"]
	w = do(t, mux, http.MethodPost, "/addresses", strings.Replace(homeJSON, `"111"`, `"222"`, 1))
	require.Equal(t, http.StatusCreated, w.Code)
	foreignID := object(t, w.Body.String())["id"]

	w = do(t, mux, http.MethodPost, "/orders", `{"documentNumber":"111","sku":"SOAP-1","shippingAddressType":"HOME"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := object(t, w.Body.String())["id"]

	w = do(t, mux, http.MethodPatch, "/orders/"+id+"/status", `{"status":"SHIPPED"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SHIPPED", object(t, w.Body.String())["status"])

	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodPatch, "/orders/"+id+"/status", `{"status":" "}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodPatch, "/orders/9999/status", `{"status":"X"}`).Code)

	w = do(t, mux, http.MethodPatch, "/orders/"+id+"/shipping-address", `{"addressId":`+workID+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, workID, object(t, w.Body.String())["shippingAddressId"])

	w = do(t, mux, http.MethodPatch, "/orders/"+id+"/shipping-address", `{"addressId":`+foreignID+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, mux, http.MethodPatch, "/orders/"+id+"/shipping-address", `{"addressId":9999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type keyStore struct {
	keys map[string]auth.APIKeyInfo
}

func (s *keyStore) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := s.keys[hash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &info, nil
}

func (s *keyStore) Create(_ context.Context, info *auth.APIKeyInfo) error {
	s.keys[info.KeyHash] = *info
	return nil
}

func TestGuard(t *testing.T) {
	pepper := []byte("pepper")
	store := &keyStore{keys: map[string]auth.APIKeyInfo{}}
	require.NoError(t, store.Create(context.Background(), &auth.APIKeyInfo{
		ID:      1,
		KeyHash: auth.HashKey(pepper, "secret"),
		Name:    "ci",
	}))
	mux := newMux(t, handler.WithGuard(handler.NewGuard(store, pepper).Middleware))

	w := do(t, mux, http.MethodPost, "/clients", anaJSON)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", object(t, w.Body.String())["message"])

	w = do(t, mux, http.MethodPost, "/clients", anaJSON, handler.APIKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, mux, http.MethodPost, "/clients", anaJSON, handler.APIKeyHeader, "secret")
	assert.Equal(t, http.StatusCreated, w.Code)

	// Reads stay open.
	assert.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/clients", "").Code)
}

type brokenKeyStore struct{}

func (brokenKeyStore) FindByHash(context.Context, string) (*auth.APIKeyInfo, error) {
	return nil, errors.New("connection refused")
}

func (brokenKeyStore) Create(context.Context, *auth.APIKeyInfo) error {
	return errors.New("connection refused")
}

func TestGuard_StoreFault(t *testing.T) {
	mux := newMux(t, handler.WithGuard(handler.NewGuard(brokenKeyStore{}, []byte("pepper")).Middleware))

	w := do(t, mux, http.MethodPost, "/clients", anaJSON, handler.APIKeyHeader, "secret")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", object(t, w.Body.String())["message"])

	// A missing key never reaches the store.
	w = do(t, mux, http.MethodPost, "/clients", anaJSON)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
