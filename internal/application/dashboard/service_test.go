package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(map[string]int)
	return c, args.Error(1)
}
func (m *mockNotifications) List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, error) {
	args := m.Called(ctx, f)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}

type mockScheduled struct{ mock.Mock }

func (m *mockScheduled) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(map[string]int)
	return c, args.Error(1)
}
func (m *mockScheduled) List(ctx context.Context, status string) ([]domain.ScheduledNotification, error) {
	args := m.Called(ctx, status)
	ss, _ := args.Get(0).([]domain.ScheduledNotification)
	return ss, args.Error(1)
}

type fixedCount int

func (c fixedCount) Count(context.Context) (int, error) { return int(c), nil }

var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func notif(status string, created time.Time) domain.Notification {
	return domain.Notification{Delivery: domain.Delivery{Status: status, CreatedAt: created}}
}

func TestStats(t *testing.T) {
	ns := &mockNotifications{}
	ss := &mockScheduled{}
	ns.On("CountByStatus", mock.Anything).Return(map[string]int{"sent": 4, "failed": 1, "processing": 2}, nil)
	ss.On("CountByStatus", mock.Anything).Return(map[string]int{"pending": 3}, nil)
	ns.On("List", mock.Anything, mock.Anything).Return([]domain.Notification{
		notif(domain.StatusSent, now.Add(-time.Hour)),
		notif(domain.StatusSent, now.Add(-2*time.Hour)),
		notif(domain.StatusFailed, now.AddDate(0, 0, -1)),
		notif(domain.StatusRejected, now.AddDate(0, 0, -1)),
		notif(domain.StatusSent, now.AddDate(0, 0, -30)),
	}, nil)
	sentAt := now.AddDate(0, 0, -6)
	old := now.AddDate(0, 0, -20)
	ss.On("List", mock.Anything, domain.StatusSent).Return([]domain.ScheduledNotification{
		{Delivery: domain.Delivery{Status: domain.StatusSent, SentAt: &sentAt}},
		{Delivery: domain.Delivery{Status: domain.StatusSent, SentAt: &old}},
		{Delivery: domain.Delivery{Status: domain.StatusSent}},
	}, nil)
	stuck, fresh := now.Add(-time.Hour), now.Add(-time.Minute)
	ss.On("List", mock.Anything, domain.StatusProcessing).Return([]domain.ScheduledNotification{
		{ClaimedAt: &stuck, Delivery: domain.Delivery{Status: domain.StatusProcessing}},
		{ClaimedAt: &fresh, Delivery: domain.Delivery{Status: domain.StatusProcessing}},
		{Delivery: domain.Delivery{Status: domain.StatusProcessing}},
	}, nil)
	svc := NewService(ServiceDeps{
		Notifications: ns, Scheduled: ss,
		Recipients: fixedCount(12), Audiences: fixedCount(3), Templates: fixedCount(5),
		Now: func() time.Time { return now },
	})

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sent": 4, "failed": 1, "awaiting_approval": 0, "rejected": 0}, st.NotificationsByStatus)
	assert.Equal(t, 3, st.ScheduledByStatus["pending"])
	assert.Equal(t, 0, st.ScheduledByStatus["cancelled"])
	assert.Equal(t, Totals{Recipients: 12, Audiences: 3, Templates: 5}, st.Totals)
	assert.Equal(t, 1, st.StaleProcessing)

	require.Len(t, st.OverTime, 7)
	assert.Equal(t, Day{Day: "2026-03-04", Sent: 1}, st.OverTime[0])
	assert.Equal(t, Day{Day: "2026-03-09", Failed: 1}, st.OverTime[5])
	assert.Equal(t, Day{Day: "2026-03-10", Sent: 2}, st.OverTime[6])
}

func TestStats_PropagatesErrors(t *testing.T) {
	ns := &mockNotifications{}
	ss := &mockScheduled{}
	ns.On("CountByStatus", mock.Anything).Return(nil, errors.New("boom"))
	ns.On("List", mock.Anything, mock.Anything).Return(nil, nil)
	ss.On("CountByStatus", mock.Anything).Return(map[string]int{}, nil)
	ss.On("List", mock.Anything, mock.Anything).Return(nil, nil)
	svc := NewService(ServiceDeps{
		Notifications: ns, Scheduled: ss,
		Recipients: fixedCount(0), Audiences: fixedCount(0), Templates: fixedCount(0),
	})

	_, err := svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestPendingApprovalCount(t *testing.T) {
	ns := &mockNotifications{}
	ss := &mockScheduled{}
	ns.On("CountByStatus", mock.Anything).Return(map[string]int{"awaiting_approval": 2, "sent": 9}, nil)
	ss.On("CountByStatus", mock.Anything).Return(map[string]int{"awaiting_approval": 1}, nil)
	svc := NewService(ServiceDeps{Notifications: ns, Scheduled: ss})

	n, err := svc.PendingApprovalCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
