package dashboard

import (
	"context"
	"time"

	"github.com/go-notify-nosql/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	seriesDays = 7
	// staleClaim is how long a scheduled item may sit in processing before it
	// is reported as stuck. Sweeps never reclaim it on their own.
	staleClaim = 15 * time.Minute
)

// Day is one point of the sent/failed series. Day is YYYY-MM-DD in UTC.
type Day struct {
	Day    string `json:"day"`
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
}

type Totals struct {
	Recipients int `json:"recipients"`
	Audiences  int `json:"audiences"`
	Templates  int `json:"templates"`
}

type Stats struct {
	NotificationsByStatus map[string]int `json:"notificationsByStatus"`
	ScheduledByStatus     map[string]int `json:"scheduledByStatus"`
	OverTime              []Day          `json:"overTime"`
	Totals                Totals         `json:"totals"`
	// StaleProcessing counts scheduled items claimed by a sweep that never finished them.
	StaleProcessing int `json:"staleProcessing"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	PendingApprovalCount(ctx context.Context) (int, error)
}

type notificationStore interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, error)
}

type scheduledStore interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, status string) ([]domain.ScheduledNotification, error)
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

type ServiceDeps struct {
	Notifications notificationStore
	Scheduled     scheduledStore
	Recipients    counter
	Audiences     counter
	Templates     counter
	Now           func() time.Time
}

type service struct {
	ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{ServiceDeps: deps}
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	today := s.Now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -seriesDays)

	var (
		byStatus, schedByStatus map[string]int
		recent                  []domain.Notification
		scheduledSent, claimed  []domain.ScheduledNotification
		totals                  Totals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStatus, err = s.Notifications.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		schedByStatus, err = s.Scheduled.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.Notifications.List(gctx, domain.NotificationFilter{From: &since})
		return err
	})
	g.Go(func() (err error) {
		scheduledSent, err = s.Scheduled.List(gctx, domain.StatusSent)
		return err
	})
	g.Go(func() (err error) {
		claimed, err = s.Scheduled.List(gctx, domain.StatusProcessing)
		return err
	})
	g.Go(func() (err error) {
		totals.Recipients, err = s.Recipients.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		totals.Audiences, err = s.Audiences.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		totals.Templates, err = s.Templates.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Stats{
		NotificationsByStatus: pick(byStatus, domain.StatusSent, domain.StatusFailed, domain.StatusAwaitingApproval, domain.StatusRejected),
		ScheduledByStatus: pick(schedByStatus, domain.StatusPending, domain.StatusAwaitingApproval, domain.StatusSent,
			domain.StatusCancelled, domain.StatusRejected),
		OverTime:        series(today, since, recent, scheduledSent),
		Totals:          totals,
		StaleProcessing: stale(s.Now(), claimed),
	}, nil
}

func stale(now time.Time, claimed []domain.ScheduledNotification) int {
	n := 0
	for _, sn := range claimed {
		if sn.ClaimedAt != nil && now.Sub(*sn.ClaimedAt) > staleClaim {
			n++
		}
	}
	return n
}

// series buckets immediate notifications by creation day and scheduled ones
// by the day they were sent.
func series(today, since time.Time, recent []domain.Notification, scheduledSent []domain.ScheduledNotification) []Day {
	byDay := map[string]*Day{}
	bucket := func(t time.Time) *Day {
		key := t.UTC().Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &Day{Day: key}
			byDay[key] = d
		}
		return d
	}
	for _, n := range recent {
		if n.CreatedAt.Before(since) {
			continue
		}
		switch n.Status {
		case domain.StatusSent:
			bucket(n.CreatedAt).Sent++
		case domain.StatusFailed:
			bucket(n.CreatedAt).Failed++
		}
	}
	for _, sn := range scheduledSent {
		if sn.SentAt == nil || sn.SentAt.Before(since) {
			continue
		}
		bucket(*sn.SentAt).Sent++
	}

	out := make([]Day, 0, seriesDays)
	for i := seriesDays - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(time.DateOnly)
		if d, ok := byDay[key]; ok {
			out = append(out, *d)
			continue
		}
		out = append(out, Day{Day: key})
	}
	return out
}

func pick(counts map[string]int, statuses ...string) map[string]int {
	out := make(map[string]int, len(statuses))
	for _, st := range statuses {
		out[st] = counts[st]
	}
	return out
}

func (s *service) PendingApprovalCount(ctx context.Context) (int, error) {
	n, err := s.Notifications.CountByStatus(ctx)
	if err != nil {
		return 0, err
	}
	sn, err := s.Scheduled.CountByStatus(ctx)
	if err != nil {
		return 0, err
	}
	return n[domain.StatusAwaitingApproval] + sn[domain.StatusAwaitingApproval], nil
}
