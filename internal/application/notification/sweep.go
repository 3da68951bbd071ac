package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/metrics"
)

const MsgProcessed = "Processed due scheduled notifications."

// SweepReport counts what one ProcessDue run did with the items it found due.
type SweepReport struct {
	Due     int `json:"due"`
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type dueStore interface {
	QueryDue(ctx context.Context, now time.Time) ([]domain.ScheduledNotification, error)
	Claim(ctx context.Context, id, worker string, now time.Time) error
	Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error
}

// Locker guards a whole sweep tick across replicas. It is optional.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type Sweeper struct {
	core
	repo    dueStore
	worker  string
	lock    Locker
	timeout time.Duration
}

type SweeperOption func(*Sweeper)

func WithLock(l Locker) SweeperOption {
	return func(s *Sweeper) { s.lock = l }
}

func WithTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.timeout = d }
}

func NewSweeper(repo dueStore, deps Deps, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{core: newCore(deps), repo: repo, worker: uuid.NewString()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Worker is the identity written into claimed_by.
func (s *Sweeper) Worker() string { return s.worker }

// errStructural marks a due item whose audience, template or snapshot is gone.
var errStructural = errors.New("scheduled notification data is incomplete")

// ProcessDue dispatches every pending item whose scheduled time has passed.
// Each item is claimed with a conditional write first, so overlapping runs
// never send the same item twice. An error from one item never stops the others.
func (s *Sweeper) ProcessDue(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	var rep SweepReport

	due, err := s.repo.QueryDue(ctx, s.now())
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failure").Inc()
		return rep, fmt.Errorf("query due scheduled notifications: %w", err)
	}
	rep.Due = len(due)

	for i := range due {
		if ctx.Err() != nil {
			break
		}
		s.processOne(ctx, &due[i], &rep)
	}

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	metrics.SweepRuns.WithLabelValues("success").Inc()
	metrics.SweepLastSuccess.SetToCurrentTime()
	if rep.Due > 0 {
		slog.Info("due sweep finished", "worker", s.worker, "due", rep.Due, "claimed", rep.Claimed,
			"sent", rep.Sent, "failed", rep.Failed, "skipped", rep.Skipped, "errors", rep.Errors)
	}
	return rep, nil
}

func (s *Sweeper) processOne(ctx context.Context, sn *domain.ScheduledNotification, rep *SweepReport) {
	log := slog.With("scheduled_id", sn.ScheduledID, "worker", s.worker)

	claimedAt := s.now()
	if err := s.repo.Claim(ctx, sn.ScheduledID, s.worker, claimedAt); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			rep.Skipped++
			metrics.SweepItems.WithLabelValues("skipped").Inc()
			return
		}
		log.Error("could not claim scheduled notification", "err", err)
		rep.Errors++
		metrics.SweepItems.WithLabelValues("error").Inc()
		return
	}
	rep.Claimed++
	metrics.SweepItems.WithLabelValues("claimed").Inc()
	sn.Status = domain.StatusProcessing
	sn.ClaimedBy = s.worker
	sn.ClaimedAt = &claimedAt

	in, err := s.input(ctx, sn)
	switch {
	case errors.Is(err, errStructural):
		log.Warn("scheduled notification cannot be dispatched", "err", err)
		sn.Status = domain.StatusFailed
		sn.UpdatedAt = s.now()
		if finishScheduled(ctx, s.repo, sn) {
			rep.Failed++
			metrics.SweepItems.WithLabelValues("failed").Inc()
			s.Audit.Record(ctx, sn.CreatedBy, domain.AuditSend, domain.EntityScheduledNotification, sn.ScheduledID,
				map[string]interface{}{"title": sn.Title, "status": sn.Status, "reason": err.Error(), "trigger": "sweep"})
		} else {
			rep.Errors++
		}
		return
	case err != nil:
		// Nothing was sent yet, so hand the item back to the next run.
		log.Error("could not load scheduled notification, releasing claim", "err", err)
		rep.Errors++
		metrics.SweepItems.WithLabelValues("error").Inc()
		sn.Status = domain.StatusPending
		sn.UpdatedAt = s.now()
		if err := s.repo.Transition(context.WithoutCancel(ctx), sn.ScheduledID, []string{domain.StatusProcessing}, &sn.Delivery); err != nil {
			log.Error("could not release scheduled notification", "err", err)
		}
		return
	}

	out := s.send(ctx, domain.EntityScheduledNotification, sn.ScheduledID, &sn.Delivery, in.template, in.recipients, in.settings)
	if !finishScheduled(ctx, s.repo, sn) {
		rep.Errors++
		return
	}
	if out.SentCount > 0 {
		rep.Sent++
	} else {
		rep.Failed++
	}
	metrics.SweepItems.WithLabelValues(sn.Status).Inc()
	s.Audit.Record(ctx, sn.CreatedBy, domain.AuditSend, domain.EntityScheduledNotification, sn.ScheduledID,
		map[string]interface{}{"title": sn.Title, "status": sn.Status, "sentCount": sn.SentCount, "trigger": "sweep"})
}

// input loads the snapshot references. Missing data is reported as errStructural.
func (s *Sweeper) input(ctx context.Context, sn *domain.ScheduledNotification) (*approvalInput, error) {
	in, err := s.loadSnapshot(ctx, &sn.Delivery, "missing audience snapshot")
	if err == nil {
		return in, nil
	}
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", errStructural, err)
	}
	return nil, err
}

// Tick runs one sweep the way the schedulers call it: bounded by the
// configured timeout and, when a lock is set, only on the replica holding it.
func (s *Sweeper) Tick(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			slog.Warn("sweep lock unavailable, running unlocked", "err", err)
		} else if !ok {
			metrics.SweepRuns.WithLabelValues("skipped").Inc()
			return
		} else {
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
					slog.Warn("could not release sweep lock", "err", err)
				}
			}()
		}
	}
	if _, err := s.ProcessDue(ctx); err != nil {
		slog.Error("due sweep failed", "worker", s.worker, "err", err)
	}
}
