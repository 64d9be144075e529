package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/ecocin/internal/domain/product"
)

// decodeProduct reads a product body. A missing isActive means active.
func decodeProduct(w http.ResponseWriter, r *http.Request) (*product.Product, error) {
	p := product.Product{Active: true}
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "sku":
			p.SKU, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "stockQuantity":
			p.StockQuantity, err = d.Int()
		case "isActive":
			p.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("price", func(e *jx.Encoder) { encodePrice(e, p.Price) })
		e.Field("stockQuantity", func(e *jx.Encoder) { e.Int(p.StockQuantity) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(p.Active) })
		e.Field("createDate", func(e *jx.Encoder) { e.Int64(p.CreatedAt.Unix()) })
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range products {
				encodeProduct(e, &products[i])
			}
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) getProductBySKU(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySKU(r.Context(), r.PathValue("sku"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := decodeProduct(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p.ID = id
	if err := h.products.Update(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
