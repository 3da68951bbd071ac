package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mock logs the message instead of sending it and always succeeds.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Send(_ context.Context, msg Message) Result {
	slog.Info("mock provider send", "type", strings.ToUpper(msg.MessageType), "to", msg.To, "body", preview(msg.Body, 80))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return Result{OK: true, ProviderID: fmt.Sprintf("mock-%d-%s", time.Now().UnixMilli(), suffix)}
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
