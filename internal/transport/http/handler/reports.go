package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/dispatch"
)

type presigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ReportHandler hands out short-lived download links for archived delivery reports.
type ReportHandler struct {
	store presigner
	ttl   time.Duration
}

func NewReportHandler(store presigner, ttl time.Duration) *ReportHandler {
	return &ReportHandler{store: store, ttl: ttl}
}

// For returns a handler serving the report of the entity type in the {id} route param.
func (h *ReportHandler) For(entityType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := h.store.PresignedURL(r.Context(), dispatch.ReportKey(entityType, chi.URLParam(r, "id")), h.ttl)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"url":       url,
			"expiresIn": int(h.ttl.Seconds()),
		})
	}
}
