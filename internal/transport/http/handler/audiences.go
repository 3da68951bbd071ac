package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/audience"
	"github.com/go-notify-nosql/internal/domain"
)

type AudienceHandler struct {
	svc audience.Service
}

func NewAudienceHandler(svc audience.Service) *AudienceHandler {
	return &AudienceHandler{svc: svc}
}

func (h *AudienceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), domain.AudienceFilter{
		Scope:  queryParam(r, "scope"),
		Search: queryParam(r, "search"),
		Page:   pageParam(r),
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get returns the audience with its current members.
func (h *AudienceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpError(w, r, err)
		return
	}
	members, err := h.svc.GetMembers(r.Context(), id)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"audience": a, "members": members})
}

func (h *AudienceHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.AudienceInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	a, err := h.svc.Create(r.Context(), c.UserID, in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AudienceHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.AudienceInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	a, err := h.svc.Update(r.Context(), c.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AudienceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), c.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Audience deleted."})
}
