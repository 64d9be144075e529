package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/order"
	"github.com/xenking/ecocin/internal/domain/product"
)

const maxBodyBytes = 1 << 20

// badRequestError marks malformed input detected by the handler itself.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

var validationErrors = []error{
	client.ErrNameRequired,
	client.ErrEmailRequired,
	client.ErrCPFRequired,
	product.ErrNameRequired,
	product.ErrPriceNegative,
	product.ErrStockNegative,
	address.ErrOwnerRequired,
	address.ErrStreetRequired,
	address.ErrNumberRequired,
	address.ErrCityRequired,
	address.ErrStateRequired,
	address.ErrZipRequired,
	order.ErrStatusRequired,
}

var notFoundErrors = []error{
	client.ErrNotFound,
	product.ErrNotFound,
	address.ErrNotFound,
	order.ErrNotFound,
}

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	var bre *badRequestError
	switch {
	case errors.As(err, &bre):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrNotCreated):
		return http.StatusUnprocessableEntity
	case client.IsConflict(err), errors.Is(err, product.ErrSKUTaken):
		return http.StatusConflict
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, validationErrors):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeError renders err as {"code","message"}. Server faults are logged and
// their details withheld; order resolution failures share one message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal server error"
	case http.StatusUnprocessableEntity:
		msg = order.ErrNotCreated.Error()
	}
	writeErrorMessage(w, status, msg)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already written; a failed write means the client left.
	_, _ = w.Write(e.Bytes())
}

// decodeBody reads a JSON object from the request body and calls field for
// every key. Unknown keys must be skipped by field.
func decodeBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if len(data) == 0 {
		return badRequest("request body is required")
	}
	d := jx.DecodeBytes(data)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return field(d, string(key))
	}); err != nil {
		var bre *badRequestError
		if errors.As(err, &bre) {
			return err
		}
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Decimal{}, badRequest("expected a number")
	}
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

func encodePrice(e *jx.Encoder, p decimal.Decimal) {
	e.Float64(p.InexactFloat64())
}
