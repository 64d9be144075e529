package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/ecocin/internal/domain/address"
)

// decodeAddress reads an address body. The owner's cpf is only meaningful on
// creation.
func decodeAddress(w http.ResponseWriter, r *http.Request) (cpf string, a *address.Address, err error) {
	a = &address.Address{}
	err = decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "cpf", "documentNumber":
			cpf, err = d.Str()
		case "street":
			a.Street, err = d.Str()
		case "number":
			a.Number, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "state":
			a.State, err = d.Str()
		case "zip":
			a.Zip, err = d.Str()
		case "addressType":
			a.Type, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return cpf, a, nil
}

func encodeAddress(e *jx.Encoder, a *address.Address) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(a.ID) })
		e.Field("clientId", func(e *jx.Encoder) { e.Int64(a.ClientID) })
		encodeAddressFields(e, a)
		e.Field("createDate", func(e *jx.Encoder) { e.Int64(a.CreatedAt.Unix()) })
	})
}

func encodeAddressFields(e *jx.Encoder, a *address.Address) {
	e.Field("street", func(e *jx.Encoder) { e.Str(a.Street) })
	e.Field("number", func(e *jx.Encoder) { e.Str(a.Number) })
	e.Field("city", func(e *jx.Encoder) { e.Str(a.City) })
	e.Field("state", func(e *jx.Encoder) { e.Str(a.State) })
	e.Field("zip", func(e *jx.Encoder) { e.Str(a.Zip) })
	e.Field("addressType", func(e *jx.Encoder) { e.Str(a.Type) })
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	cpf, a, err := decodeAddress(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.addresses.Create(r.Context(), cpf, a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeAddress(e, a) })
}

// listAddresses lists every address, or only those of the client given by
// the cpf query parameter.
func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	var (
		addrs []address.Address
		err   error
	)
	if cpf := r.URL.Query().Get("cpf"); cpf != "" {
		addrs, err = h.addresses.ListByCPF(r.Context(), cpf)
	} else {
		addrs, err = h.addresses.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAddresses(w, addrs)
}

// listClientAddresses serves GET /clients/{cpf}/addresses. The last segment
// is a wildcard so the route can coexist with GET /clients/cpf/{cpf}.
func (h *Handler) listClientAddresses(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("resource") != "addresses" {
		writeErrorMessage(w, http.StatusNotFound, "not found")
		return
	}
	addrs, err := h.addresses.ListByCPF(r.Context(), r.PathValue("cpf"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAddresses(w, addrs)
}

func writeAddresses(w http.ResponseWriter, addrs []address.Address) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range addrs {
				encodeAddress(e, &addrs[i])
			}
		})
	})
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.addresses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeAddress(e, a) })
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, a, err := decodeAddress(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = id
	if err := h.addresses.Update(r.Context(), a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeAddress(e, a) })
}

func (h *Handler) removeAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.addresses.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
