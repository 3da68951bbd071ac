package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/notification"
	"github.com/go-notify-nosql/internal/domain"
)

type sweeper interface {
	ProcessDue(ctx context.Context) (notification.SweepReport, error)
}

// NotificationHandler serves immediate notifications, creation of scheduled
// ones and the manual due-sweep trigger.
type NotificationHandler struct {
	svc       notification.Service
	scheduled notification.ScheduledService
	sweep     sweeper
}

func NewNotificationHandler(svc notification.Service, scheduled notification.ScheduledService, sweep sweeper) *NotificationHandler {
	return &NotificationHandler{svc: svc, scheduled: scheduled, sweep: sweep}
}

// SweepEnvelope is the response of a manual sweep.
type SweepEnvelope struct {
	notification.SweepReport
	Message string `json:"message"`
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var req domain.CreateNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if req.Schedule {
		res, err := h.scheduled.Create(r.Context(), c.UserID, req)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
		return
	}
	res, err := h.svc.Create(r.Context(), c.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	f := domain.NotificationFilter{
		Status:      queryParam(r, "status"),
		MessageType: queryParam(r, "messageType"),
		Page:        pageParam(r),
	}
	from, err := dateParam(r, "fromDate", false)
	if err != nil {
		httpError(w, r, err)
		return
	}
	to, err := dateParam(r, "toDate", true)
	if err != nil {
		httpError(w, r, err)
		return
	}
	f.From, f.To = from, to

	page, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *NotificationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Approve(r.Context(), chi.URLParam(r, "id"), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *NotificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	c, ok := claims(w, r)
	if !ok {
		return
	}
	var req domain.RejectRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, r, err)
			return
		}
	}
	res, err := h.svc.Reject(r.Context(), chi.URLParam(r, "id"), c.UserID, req.Reason)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ProcessScheduled runs one due-sweep synchronously and reports its counts.
func (h *NotificationHandler) ProcessScheduled(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sweep.ProcessDue(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SweepEnvelope{SweepReport: rep, Message: notification.MsgProcessed})
}

// dateParam parses a YYYY-MM-DD query value in UTC. endOfDay moves it to the
// last instant of that day so the bound is inclusive.
func dateParam(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	v := queryParam(r, name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, domain.Validation("Invalid " + name + ", expected YYYY-MM-DD.")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
