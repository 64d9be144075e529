package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/ecocin/internal/domain/order"
)

// decodeCreateOrder reads a placement request. Any price sent by the caller
// is skipped with the other unknown fields.
func decodeCreateOrder(w http.ResponseWriter, r *http.Request) (order.CreateRequest, error) {
	req := order.CreateRequest{Quantity: 1}
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "documentNumber", "cpf":
			req.DocumentNumber, err = d.Str()
		case "sku":
			req.SKU, err = d.Str()
		case "shippingAddressType", "addressType":
			req.ShippingAddressType, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}

	switch {
	case req.DocumentNumber == "":
		return req, badRequest("documentNumber is required")
	case req.SKU == "":
		return req, badRequest("sku is required")
	case req.Quantity <= 0:
		return req, badRequest("quantity must be positive")
	}
	return req, nil
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
		e.Field("clientId", func(e *jx.Encoder) { e.Int64(o.ClientID) })
		e.Field("productId", func(e *jx.Encoder) { e.Int64(o.ProductID) })
		e.Field("shippingAddressId", func(e *jx.Encoder) { e.Int64(o.ShippingAddressID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(o.Quantity()) })
		e.Field("unitPrice", func(e *jx.Encoder) { encodePrice(e, o.UnitPrice()) })
		e.Field("totalPrice", func(e *jx.Encoder) { encodePrice(e, o.TotalPrice()) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("createDate", func(e *jx.Encoder) { e.Int64(o.CreatedAt.Unix()) })
	})
}

func encodeOrderDetails(e *jx.Encoder, d *order.Details) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(d.Order.ID) })
		e.Field("clientName", func(e *jx.Encoder) { e.Str(d.Client.Name) })
		e.Field("productDescription", func(e *jx.Encoder) { e.Str(d.Product.Description) })
		e.Field("shippingAddress", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) { encodeAddressFields(e, &d.Address) })
		})
		e.Field("quantity", func(e *jx.Encoder) { e.Int(d.Order.Quantity()) })
		e.Field("unitPrice", func(e *jx.Encoder) { encodePrice(e, d.Order.UnitPrice()) })
		e.Field("totalPrice", func(e *jx.Encoder) { encodePrice(e, d.Order.TotalPrice()) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(d.Order.Status)) })
		e.Field("createDate", func(e *jx.Encoder) { e.Int64(d.Order.CreatedAt.Unix()) })
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateOrder(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// listOrders returns the enriched orders of the client given by ?cpf=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	cpf := r.URL.Query().Get("cpf")
	if cpf == "" {
		writeError(w, r, badRequest("cpf query parameter is required"))
		return
	}
	details, err := h.orders.ListDetails(r.Context(), cpf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range details {
				encodeOrderDetails(e, &details[i])
			}
		})
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var status string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		var err error
		status, err = d.Str()
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), id, order.Status(status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) changeShippingAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var addressID int64
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "addressId", "shippingAddressId":
			var err error
			addressID, err = d.Int64()
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if addressID <= 0 {
		writeError(w, r, badRequest("addressId is required"))
		return
	}
	o, err := h.orders.ChangeShippingAddress(r.Context(), id, addressID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}
