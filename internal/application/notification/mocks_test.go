package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-notify-nosql/internal/application/dispatch"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockAudiences struct{ mock.Mock }

func (m *mockAudiences) Get(ctx context.Context, id string) (*domain.Audience, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*domain.Audience)
	return a, args.Error(1)
}
func (m *mockAudiences) GetMembers(ctx context.Context, id string) ([]domain.Recipient, error) {
	args := m.Called(ctx, id)
	rs, _ := args.Get(0).([]domain.Recipient)
	return rs, args.Error(1)
}
func (m *mockAudiences) GetByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error) {
	args := m.Called(ctx, ids)
	rs, _ := args.Get(0).([]domain.Recipient)
	return rs, args.Error(1)
}

type mockTemplates struct{ mock.Mock }

func (m *mockTemplates) Get(ctx context.Context, id string) (*domain.Template, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*domain.Template)
	return t, args.Error(1)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(ctx context.Context) (*domain.Settings, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*domain.Settings)
	return s, args.Error(1)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, userID, action, entityType, entityID string, details map[string]interface{}) {
	m.Called(ctx, userID, action, entityType, entityID, details)
}

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationStore) Get(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}
func (m *mockNotificationStore) Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error {
	return m.Called(ctx, id, from, d).Error(0)
}
func (m *mockNotificationStore) List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, error) {
	args := m.Called(ctx, f)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}

// fakeDispatcher records every job and returns a fixed outcome.
type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []dispatch.Job
	out  dispatch.Outcome
}

func (f *fakeDispatcher) Dispatch(_ context.Context, job dispatch.Job) dispatch.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return f.out
}

func (f *fakeDispatcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type fakeNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeNotifier) AwaitingApproval(_, id, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

// memScheduled is an in-memory scheduled store with the same conditional
// status semantics as the DynamoDB repository.
type memScheduled struct {
	mu    sync.Mutex
	items map[string]domain.ScheduledNotification
	fail  map[string]error // per-op injected errors, keyed by op name
}

func newMemScheduled(items ...domain.ScheduledNotification) *memScheduled {
	m := &memScheduled{items: map[string]domain.ScheduledNotification{}, fail: map[string]error{}}
	for _, it := range items {
		it.DueAt = it.ScheduledAt.UnixMilli()
		m.items[it.ScheduledID] = it
	}
	return m
}

func (m *memScheduled) Create(_ context.Context, s *domain.ScheduledNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Create"]; err != nil {
		return err
	}
	if _, ok := m.items[s.ScheduledID]; ok {
		return domain.ErrConflict
	}
	s.DueAt = s.ScheduledAt.UnixMilli()
	m.items[s.ScheduledID] = *s
	return nil
}

func (m *memScheduled) Get(_ context.Context, id string) (*domain.ScheduledNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (m *memScheduled) Transition(_ context.Context, id string, from []string, d *domain.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Transition"]; err != nil {
		return err
	}
	it, ok := m.items[id]
	if !ok || !contains(from, it.Status) {
		return domain.ErrClaimLost
	}
	it.Delivery = *d
	m.items[id] = it
	return nil
}

func (m *memScheduled) Claim(_ context.Context, id, worker string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["Claim"]; err != nil {
		return err
	}
	it, ok := m.items[id]
	if !ok || it.Status != domain.StatusPending {
		return domain.ErrClaimLost
	}
	it.Status = domain.StatusProcessing
	it.ClaimedBy = worker
	it.UpdatedAt = now
	m.items[id] = it
	return nil
}

func (m *memScheduled) QueryDue(_ context.Context, now time.Time) ([]domain.ScheduledNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["QueryDue"]; err != nil {
		return nil, err
	}
	var out []domain.ScheduledNotification
	for _, it := range m.items {
		if it.Status == domain.StatusPending && it.DueAt <= now.UnixMilli() {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt < out[j].DueAt })
	return out, nil
}

func (m *memScheduled) List(_ context.Context, status string) ([]domain.ScheduledNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScheduledNotification
	for _, it := range m.items {
		if status == "" || it.Status == status {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt < out[j].DueAt })
	return out, nil
}

func (m *memScheduled) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- fixtures ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func testAudience() *domain.Audience {
	return &domain.Audience{AudienceID: "a1", Name: "VIP", Scope: "customer", MemberIDs: []string{"r1", "r2"}}
}

func testTemplate() *domain.Template {
	return &domain.Template{TemplateID: "t1", ObjectType: "customer", TemplateBody: "Hi {{name}}"}
}

func testMembers() []domain.Recipient {
	return []domain.Recipient{
		{RecipientID: "r1", Name: "Ana", Phone: "+15550001", Scope: "customer"},
		{RecipientID: "r2", Name: "Ben", Phone: "+15550002", Scope: "customer"},
	}
}

func testRequest() domain.CreateNotificationRequest {
	return domain.CreateNotificationRequest{Title: "Promo", AudienceID: "a1", TemplateID: "t1", MessageType: "sms"}
}

type harness struct {
	aud  *mockAudiences
	tpl  *mockTemplates
	set  *mockSettings
	rec  *mockRecorder
	disp *fakeDispatcher
	ntf  *fakeNotifier
}

// newHarness wires the happy-path lookups; tests override with fresh mocks where needed.
func newHarness(approval bool) *harness {
	h := &harness{
		aud: &mockAudiences{},
		tpl: &mockTemplates{},
		set: &mockSettings{},
		rec: &mockRecorder{},
		disp: &fakeDispatcher{out: dispatch.Outcome{SentCount: 2, LastProviderID: "p2", Attempts: []dispatch.Attempt{
			{RecipientID: "r1", OK: true, ProviderID: "p1"},
			{RecipientID: "r2", OK: true, ProviderID: "p2"},
		}}},
		ntf: &fakeNotifier{},
	}
	h.aud.On("Get", mock.Anything, "a1").Return(testAudience(), nil)
	h.aud.On("GetMembers", mock.Anything, "a1").Return(testMembers(), nil)
	h.aud.On("GetByIDs", mock.Anything, mock.Anything).Return(testMembers(), nil)
	h.tpl.On("Get", mock.Anything, "t1").Return(testTemplate(), nil)
	h.set.On("Get", mock.Anything).Return(&domain.Settings{ApprovalEnabled: approval}, nil)
	h.rec.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	return h
}

func (h *harness) deps() Deps {
	return Deps{
		Audiences:  h.aud,
		Templates:  h.tpl,
		Settings:   h.set,
		Dispatcher: h.disp,
		Notifier:   h.ntf,
		Audit:      h.rec,
		Now:        fixedNow,
	}
}

func snapshotDelivery(status string) domain.Delivery {
	return domain.Delivery{
		Title:          "Promo",
		ObjectType:     "customer",
		TemplateID:     "t1",
		MessageType:    "sms",
		RecipientCount: 2,
		Status:         status,
		Metadata:       &domain.Snapshot{AudienceID: "a1", RecipientIDs: []string{"r1", "r2"}},
		CreatedBy:      "u1",
	}
}
