package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/scope"
	"github.com/go-notify-nosql/internal/domain"
)

// ScopeHandler handles scope endpoints. Writes are mounted admin-only.
type ScopeHandler struct {
	svc scope.Service
}

func NewScopeHandler(svc scope.Service) *ScopeHandler { return &ScopeHandler{svc: svc} }

func (h *ScopeHandler) List(w http.ResponseWriter, r *http.Request) {
	scopes, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	if scopes == nil {
		scopes = []domain.Scope{}
	}
	writeJSON(w, http.StatusOK, scopes)
}

func (h *ScopeHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ScopeHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.ScopeInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	s, err := h.svc.Create(r.Context(), c.UserID, in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *ScopeHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var in domain.ScopeInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err)
		return
	}
	s, err := h.svc.Update(r.Context(), c.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ScopeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), c.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Scope deleted."})
}
