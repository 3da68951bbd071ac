package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/user"
	"github.com/go-notify-nosql/internal/domain"
	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

// UserPageEnvelope wraps a cursor page of users.
type UserPageEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var req domain.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	u, err := h.svc.Create(r.Context(), c.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, next, err := h.svc.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, UserPageEnvelope{Data: users, NextCursor: next})
}

// selfOrAdmin resolves the {id} param, where "me" names the caller, and
// lets through only the account owner or an admin.
func selfOrAdmin(w http.ResponseWriter, r *http.Request, denied string) (*jwtinfra.Claims, string, bool) {
	c, ok := claims(w, r)
	if !ok {
		return nil, "", false
	}
	targetID := chi.URLParam(r, "id")
	if targetID == "me" {
		targetID = c.UserID
	}
	if c.UserID != targetID && !isAdmin(c) {
		httpError(w, r, domain.Forbidden(denied))
		return nil, "", false
	}
	return c, targetID, true
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, targetID, ok := selfOrAdmin(w, r, "You can only view your own account.")
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), targetID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update lets a user edit their own profile; only admins change roles.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, targetID, ok := selfOrAdmin(w, r, "You can only update your own account.")
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if req.Role != nil && !isAdmin(c) {
		httpError(w, r, domain.Forbidden("Only admins can change roles."))
		return
	}
	u, err := h.svc.Update(r.Context(), c.UserID, targetID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), c.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "User deleted."})
}
