package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/session"
	"github.com/go-notify-nosql/internal/domain"
)

type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// writeTokens sends credentials; they must not land in any cache.
func writeTokens(w http.ResponseWriter, env AuthEnvelope) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, env)
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeTokens(w, AuthEnvelope{Bearer: res.Bearer, RefreshToken: res.RefreshToken, Session: res.Session})
}

// Refresh trades a refresh token for a new access token and a new refresh
// token. The old refresh token stops working.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, r, err)
		return
	}
	token := strings.TrimSpace(body.RefreshToken)
	if token == "" {
		httpError(w, r, domain.Validation("refresh_token is required."))
		return
	}
	bearer, next, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeTokens(w, AuthEnvelope{Bearer: bearer, RefreshToken: next})
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.GetCurrent(r.Context(), c.SessionID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: sess})
}

// List shows every session of the caller, the current one flagged.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	sessions, err := h.svc.List(r.Context(), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions, "current": c.SessionID})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Logout(r.Context(), c.SessionID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Logged out."})
}

// Revoke signs out another device of the caller.
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Revoke(r.Context(), c.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Session revoked."})
}
