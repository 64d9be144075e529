package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/ecocin/internal/domain/client"
)

func decodeClient(w http.ResponseWriter, r *http.Request) (*client.Client, error) {
	var c client.Client
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "cpf", "documentNumber":
			c.CPF, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func encodeClient(e *jx.Encoder, c *client.Client) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("cpf", func(e *jx.Encoder) { e.Str(c.CPF) })
		e.Field("createDate", func(e *jx.Encoder) { e.Int64(c.CreatedAt.Unix()) })
	})
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	c, err := decodeClient(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.clients.Create(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range clients {
				encodeClient(e, &clients[i])
			}
		})
	})
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) getClientByCPF(w http.ResponseWriter, r *http.Request) {
	c, err := h.clients.GetByCPF(r.Context(), r.PathValue("cpf"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := decodeClient(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = id
	if err := h.clients.Update(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) removeClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.clients.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
