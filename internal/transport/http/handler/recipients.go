package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/recipient"
	"github.com/go-notify-nosql/internal/domain"
)

// RecipientHandler handles recipient CRUD endpoints.
type RecipientHandler struct {
	svc recipient.Service
}

func NewRecipientHandler(svc recipient.Service) *RecipientHandler {
	return &RecipientHandler{svc: svc}
}

func (h *RecipientHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, err := h.svc.List(r.Context(), domain.RecipientFilter{
		Scope:  queryParam(r, "scope"),
		Search: queryParam(r, "search"),
		Page:   pageParam(r),
		Limit:  limit,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *RecipientHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecipientHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.RecipientInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), c.UserID, in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RecipientHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.RecipientInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	rec, err := h.svc.Update(r.Context(), c.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecipientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), c.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Recipient deleted."})
}
