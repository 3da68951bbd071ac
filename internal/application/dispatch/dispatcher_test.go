package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/infrastructure/gateway"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway fails for the phones listed in fail and records every message.
type scriptedGateway struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []gateway.Message
}

func (g *scriptedGateway) Send(_ context.Context, msg gateway.Message) gateway.Result {
	g.mu.Lock()
	g.sent = append(g.sent, msg)
	g.mu.Unlock()
	if g.fail[msg.To] {
		return gateway.Result{Error: "rejected"}
	}
	return gateway.Result{OK: true, ProviderID: "pid-" + msg.To}
}

func recipients(n int) []domain.Recipient {
	out := make([]domain.Recipient, n)
	for i := range out {
		out[i] = domain.Recipient{
			RecipientID: fmt.Sprintf("r%d", i),
			Name:        fmt.Sprintf("Name %d", i),
			Phone:       fmt.Sprintf("+1555000%03d", i),
			Scope:       "customer",
		}
	}
	return out
}

func TestDispatch_PersonalizesPerRecipient(t *testing.T) {
	gw := &scriptedGateway{}
	out := New(gw, 1).Dispatch(context.Background(), Job{
		TemplateBody: "Hi {{name}}",
		Recipients:   recipients(2),
		Scope:        "customer",
		MessageType:  domain.MessageTypeSMS,
	})

	require.Len(t, gw.sent, 2)
	assert.Equal(t, "Hi Name 0", gw.sent[0].Body)
	assert.Equal(t, "Hi Name 1", gw.sent[1].Body)
	assert.Equal(t, domain.MessageTypeSMS, gw.sent[0].MessageType)
	assert.Equal(t, 2, out.SentCount)
	assert.Equal(t, "pid-+1555000001", out.LastProviderID)
	assert.Equal(t, domain.StatusSent, out.Status())
}

func TestDispatch_FailuresDoNotAbort(t *testing.T) {
	rs := recipients(3)
	gw := &scriptedGateway{fail: map[string]bool{rs[0].Phone: true, rs[2].Phone: true}}
	out := New(gw, 1).Dispatch(context.Background(), Job{TemplateBody: "x", Recipients: rs, MessageType: "sms"})

	assert.Len(t, gw.sent, 3)
	assert.Equal(t, 1, out.SentCount)
	assert.Equal(t, "pid-"+rs[1].Phone, out.LastProviderID)
	assert.Equal(t, domain.StatusSent, out.Status())
	assert.Equal(t, "Sent to 1 of 3.", out.Message("Notification sent to"))
}

func TestDispatch_AllFail(t *testing.T) {
	rs := recipients(2)
	gw := &scriptedGateway{fail: map[string]bool{rs[0].Phone: true, rs[1].Phone: true}}
	out := New(gw, 1).Dispatch(context.Background(), Job{TemplateBody: "x", Recipients: rs, MessageType: "sms"})

	assert.Equal(t, 0, out.SentCount)
	assert.Empty(t, out.LastProviderID)
	assert.Equal(t, domain.StatusFailed, out.Status())
	assert.Equal(t, "Sending failed.", out.Message("Notification sent to"))
}

func TestDispatch_ConcurrentMatchesSequential(t *testing.T) {
	rs := recipients(40)
	fail := map[string]bool{}
	for i := 0; i < len(rs); i += 3 {
		fail[rs[i].Phone] = true
	}
	job := Job{TemplateBody: "Hello {{name}}", Recipients: rs, MessageType: "sms"}

	seq := New(&scriptedGateway{fail: fail}, 1).Dispatch(context.Background(), job)
	par := New(&scriptedGateway{fail: fail}, 8).Dispatch(context.Background(), job)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("concurrent dispatch differs (-seq +par):\n%s", diff)
	}
	assert.Equal(t, "pid-"+rs[38].Phone, par.LastProviderID)
}

func TestDispatch_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gw := &scriptedGateway{}
	out := New(gw, 2).Dispatch(ctx, Job{TemplateBody: "x", Recipients: recipients(3), MessageType: "sms"})
	assert.Equal(t, 3, out.SentCount)
}

func TestOutcome_Message(t *testing.T) {
	all := Outcome{SentCount: 2, Attempts: make([]Attempt, 2)}
	assert.Equal(t, "Notification sent to 2 recipient(s).", all.Message("Notification sent to"))
	assert.Equal(t, "Approved and sent to 2 recipient(s).", all.Message("Approved and sent to"))
}

func TestOutcome_Apply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var d domain.Delivery
	Outcome{SentCount: 1, LastProviderID: "p1", Attempts: make([]Attempt, 2)}.Apply(&d, now)
	assert.Equal(t, domain.StatusSent, d.Status)
	assert.Equal(t, 1, d.SentCount)
	require.NotNil(t, d.ServiceProviderID)
	assert.Equal(t, "p1", *d.ServiceProviderID)
	require.NotNil(t, d.SentAt)
	assert.Equal(t, now, *d.SentAt)

	var f domain.Delivery
	Outcome{Attempts: make([]Attempt, 2)}.Apply(&f, now)
	assert.Equal(t, domain.StatusFailed, f.Status)
	assert.Nil(t, f.SentAt)
	assert.Nil(t, f.ServiceProviderID)
}

type fakeStore struct {
	key string
	v   interface{}
	err error
}

func (f *fakeStore) PutJSON(_ context.Context, key string, v interface{}) error {
	f.key, f.v = key, v
	return f.err
}

func TestArchiver(t *testing.T) {
	store := &fakeStore{}
	out := Outcome{SentCount: 1, Attempts: []Attempt{{RecipientID: "r1", OK: true}}}
	NewArchiver(store).Archive(context.Background(), "notification", "n1", "sms", out)

	assert.Equal(t, "reports/notification/n1.json", store.key)
	rep, ok := store.v.(Report)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSent, rep.Status)
	assert.Equal(t, 1, rep.RecipientCount)

	var nilArchiver *Archiver
	assert.NotPanics(t, func() { nilArchiver.Archive(context.Background(), "notification", "n1", "sms", out) })
	assert.NotPanics(t, func() { NewArchiver(nil).Archive(context.Background(), "notification", "n1", "sms", out) })
}
