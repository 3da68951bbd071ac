package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/template"
	"github.com/go-notify-nosql/internal/domain"
)

type TemplateHandler struct {
	svc template.Service
}

func NewTemplateHandler(svc template.Service) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), domain.TemplateFilter{
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

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	t, err := h.svc.Create(r.Context(), c.UserID, in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	t, err := h.svc.Update(r.Context(), c.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), c.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Template deleted."})
}
