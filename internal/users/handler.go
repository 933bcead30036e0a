package users

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-microshop/internal/httpx"
	"github.com/ariefcatur/go-microshop/internal/jsonfield"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Store Store
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/user/{id}", h.get)
	r.Post("/user", h.post)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteEmpty(w, http.StatusBadRequest)
		return
	}
	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.View())
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(r)
	if err != nil {
		httpx.WriteEmpty(w, http.StatusBadRequest)
		return
	}
	cmd, _ := jsonfield.Get(body, "command")
	id, err := jsonfield.Int(body, "id")
	if err != nil {
		httpx.WriteEmpty(w, http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch cmd {
	case "create":
		u, perr := ParseCreate(id, body)
		if perr != nil {
			// an existing id wins over a bad body
			if _, err := h.Store.Get(ctx, id); err == nil {
				perr = ErrDuplicate
			}
			h.fail(w, perr)
			return
		}
		if err := h.Store.Create(ctx, u); err != nil {
			h.fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, u.View())

	case "update":
		if _, err := h.Store.Get(ctx, id); err != nil {
			h.fail(w, err)
			return
		}
		p, err := ParseUpdate(body)
		if err != nil {
			h.fail(w, err)
			return
		}
		u, err := h.Store.Update(ctx, id, p)
		if err != nil {
			h.fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, u.View())

	case "delete":
		if _, err := h.Store.Get(ctx, id); err != nil {
			h.fail(w, err)
			return
		}
		u, err := ParseDelete(id, body)
		if err != nil {
			h.fail(w, err)
			return
		}
		if err := h.Store.Delete(ctx, u); err != nil {
			h.fail(w, err)
			return
		}
		httpx.WriteEmpty(w, http.StatusOK)

	default:
		httpx.WriteEmpty(w, http.StatusBadRequest)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalid):
		httpx.WriteEmpty(w, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		httpx.WriteEmpty(w, http.StatusNotFound)
	case errors.Is(err, ErrDuplicate):
		httpx.WriteEmpty(w, http.StatusConflict)
	default:
		log.Printf("users: %v", err)
		httpx.WriteEmpty(w, http.StatusInternalServerError)
	}
}
