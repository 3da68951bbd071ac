package gateway

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Send(ctx context.Context, msg Message) Result {
	return m.Called(ctx, msg).Get(0).(Result)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, message string) (string, error) {
	args := m.Called(ctx, to, message)
	return args.String(0), args.Error(1)
}

func TestPreview_CutsOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("مرحبا ", 30)
	got := preview(body, 80)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 81, utf8.RuneCountInString(got))
	assert.Equal(t, "short", preview("short", 80))
}

func TestMock_ProviderIDFormat(t *testing.T) {
	res := NewMock().Send(context.Background(), Message{To: "+1", Body: "hi", MessageType: domain.MessageTypeSMS})
	assert.True(t, res.OK)
	assert.Regexp(t, regexp.MustCompile(`^mock-\d+-[0-9a-f]{7}$`), res.ProviderID)
}

func TestRouter_PicksProviderByType(t *testing.T) {
	sms, wa := &mockProvider{}, &mockProvider{}
	wa.On("Send", mock.Anything, mock.MatchedBy(func(m Message) bool { return m.MessageType == "whatsapp" })).
		Return(Result{OK: true, ProviderID: "wa-1"})
	sms.On("Send", mock.Anything, mock.MatchedBy(func(m Message) bool { return m.MessageType == "sms" })).
		Return(Result{OK: true, ProviderID: "sms-1"})

	r := NewRouter(map[string]Provider{"sms": sms, "whatsapp": wa})
	assert.Equal(t, "wa-1", r.Send(context.Background(), Message{MessageType: "whatsapp"}).ProviderID)
	assert.Equal(t, "sms-1", r.Send(context.Background(), Message{MessageType: "sms"}).ProviderID)
	sms.AssertNumberOfCalls(t, "Send", 1)
	wa.AssertNumberOfCalls(t, "Send", 1)
}

func TestRouter_UnknownType(t *testing.T) {
	res := NewRouter(map[string]Provider{}).Send(context.Background(), Message{MessageType: "fax"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "fax")
}

func TestSNS_WrapsSender(t *testing.T) {
	s := &mockSMSSender{}
	s.On("SendSMS", mock.Anything, "+1", "body").Return("sns-id", nil).Once()
	s.On("SendSMS", mock.Anything, "+2", "body").Return("", errors.New("invalid number")).Once()

	p := NewSNS(s)
	assert.Equal(t, Result{OK: true, ProviderID: "sns-id"}, p.Send(context.Background(), Message{To: "+1", Body: "body"}))
	assert.Equal(t, Result{Error: "invalid number"}, p.Send(context.Background(), Message{To: "+2", Body: "body"}))
	assert.False(t, p.Send(context.Background(), Message{Body: "body"}).OK)
	s.AssertExpectations(t)
}

func TestBreaker_OpensAfterFailuresAndFailsFast(t *testing.T) {
	next := &mockProvider{}
	next.On("Send", mock.Anything, mock.Anything).Return(Result{Error: "boom"})

	b := NewBreaker("test-open", next, config.BreakerConfig{
		MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2,
	})
	for i := 0; i < 2; i++ {
		res := b.Send(context.Background(), Message{})
		assert.Equal(t, "boom", res.Error)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	res := b.Send(context.Background(), Message{})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "provider unavailable")
	next.AssertNumberOfCalls(t, "Send", 2)
}

func TestBreaker_PassesSuccessThrough(t *testing.T) {
	next := &mockProvider{}
	next.On("Send", mock.Anything, mock.Anything).Return(Result{OK: true, ProviderID: "p1"})
	b := NewBreaker("test-ok", next, config.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 1})
	assert.Equal(t, Result{OK: true, ProviderID: "p1"}, b.Send(context.Background(), Message{}))
}

func TestNew_FallsBackToMockWithoutSender(t *testing.T) {
	cfg := config.Load()
	cfg.DeliveryProvider = "sns"
	p := New(cfg, nil)
	res := p.Send(context.Background(), Message{To: "+1", Body: "x", MessageType: domain.MessageTypeSMS})
	assert.True(t, res.OK)
	assert.Regexp(t, `^mock-`, res.ProviderID)
}
