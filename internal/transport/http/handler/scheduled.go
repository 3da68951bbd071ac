package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/notification"
	"github.com/go-notify-nosql/internal/domain"
)

// ScheduledHandler serves /scheduled-notifications.
type ScheduledHandler struct {
	svc notification.ScheduledService
}

func NewScheduledHandler(svc notification.ScheduledService) *ScheduledHandler {
	return &ScheduledHandler{svc: svc}
}

func (h *ScheduledHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), queryParam(r, "status"), pageParam(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ScheduledHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Action applies cancel, approve or reject. Any authenticated user may
// cancel; approve and reject are admin only.
func (h *ScheduledHandler) Action(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var req domain.ScheduledAction
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case domain.ActionApprove, domain.ActionReject:
		if !isAdmin(c) {
			httpError(w, r, domain.Forbidden("Only admins can approve or reject."))
			return
		}
	}
	res, err := h.svc.Action(r.Context(), chi.URLParam(r, "id"), c.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
