package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Report is the archived record of who was sent what for one dispatch.
type Report struct {
	EntityType     string    `json:"entityType"`
	EntityID       string    `json:"entityId"`
	MessageType    string    `json:"messageType"`
	Status         string    `json:"status"`
	SentCount      int       `json:"sentCount"`
	RecipientCount int       `json:"recipientCount"`
	Attempts       []Attempt `json:"attempts"`
	DispatchedAt   time.Time `json:"dispatchedAt"`
}

type objectStore interface {
	PutJSON(ctx context.Context, key string, v interface{}) error
}

// Archiver writes reports to object storage. A nil store disables archiving.
// Errors are logged and dropped.
type Archiver struct {
	store objectStore
}

func NewArchiver(store objectStore) *Archiver {
	return &Archiver{store: store}
}

func (a *Archiver) Archive(ctx context.Context, entityType, entityID, messageType string, out Outcome) {
	if a == nil || a.store == nil {
		return
	}
	now := time.Now().UTC()
	rep := Report{
		EntityType:     entityType,
		EntityID:       entityID,
		MessageType:    messageType,
		Status:         out.Status(),
		SentCount:      out.SentCount,
		RecipientCount: len(out.Attempts),
		Attempts:       out.Attempts,
		DispatchedAt:   now,
	}
	key := ReportKey(entityType, entityID)
	if err := a.store.PutJSON(context.WithoutCancel(ctx), key, rep); err != nil {
		slog.Warn("could not archive delivery report", "key", key, "err", err)
	}
}

// ReportKey is the object key of the report for one entity.
func ReportKey(entityType, entityID string) string {
	return fmt.Sprintf("reports/%s/%s.json", entityType, entityID)
}
