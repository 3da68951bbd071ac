package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
)

// ScheduledResult mirrors Result for scheduled notifications. Scheduled is always true.
type ScheduledResult struct {
	Scheduled    bool                          `json:"scheduled"`
	Notification *domain.ScheduledNotification `json:"notification"`
	Message      string                        `json:"message"`
}

type ScheduledView struct {
	domain.ScheduledNotification
	Template *domain.Template `json:"template,omitempty"`
}

type ScheduledDetail struct {
	Notification *domain.ScheduledNotification `json:"notification"`
	Template     *domain.Template              `json:"template"`
	Audience     *domain.Audience              `json:"audience"`
	Recipients   []domain.Recipient            `json:"recipients"`
}

type ScheduledService interface {
	Create(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*ScheduledResult, error)
	Cancel(ctx context.Context, scheduledID, userID string) (*ScheduledResult, error)
	Approve(ctx context.Context, scheduledID, adminID string) (*ScheduledResult, error)
	Reject(ctx context.Context, scheduledID, adminID string, reason *string) (*ScheduledResult, error)
	// Action routes cancel, approve and reject. Role checks belong to the caller.
	Action(ctx context.Context, scheduledID, userID string, a domain.ScheduledAction) (*ScheduledResult, error)
	List(ctx context.Context, status string, page int) (domain.Page[ScheduledView], error)
	Get(ctx context.Context, scheduledID string) (*ScheduledDetail, error)
}

type scheduledStore interface {
	Create(ctx context.Context, s *domain.ScheduledNotification) error
	Get(ctx context.Context, id string) (*domain.ScheduledNotification, error)
	Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error
	List(ctx context.Context, status string) ([]domain.ScheduledNotification, error)
}

type scheduledService struct {
	core
	repo scheduledStore
}

func NewScheduledService(repo scheduledStore, deps Deps) ScheduledService {
	return &scheduledService{core: newCore(deps), repo: repo}
}

const (
	msgScheduleInPast     = "Scheduled time must be in the future."
	msgScheduledNotFound  = "Scheduled notification not found"
	msgScheduledNoData    = "Scheduled notification has no audience data."
	msgCannotCancel       = "Only pending or awaiting-approval scheduled notifications can be cancelled."
	msgCannotApprove      = "Only awaiting-approval scheduled notifications can be approved."
	msgCannotReject       = "Only awaiting-approval scheduled notifications can be rejected."
	msgInvalidAction      = "Invalid action. Use cancel, approve, or reject."
	msgScheduledCreated   = "Scheduled notification created."
	msgScheduledAwaiting  = "Scheduled notification created and is awaiting approval."
	msgScheduledCancelled = "Scheduled notification cancelled."
	msgScheduledRejected  = "Scheduled notification rejected."
	kindScheduled         = "scheduled notification"
)

func (s *scheduledService) Create(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*ScheduledResult, error) {
	p, err := s.prepare(ctx, &req)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if req.ScheduledAt == nil || !req.ScheduledAt.After(now) {
		return nil, domain.Validation(msgScheduleInPast)
	}

	status, msg := domain.StatusPending, msgScheduledCreated
	if p.settings.ApprovalEnabled {
		status, msg = domain.StatusAwaitingApproval, msgScheduledAwaiting
	}
	sn := &domain.ScheduledNotification{
		ScheduledID: id.At(now),
		ScheduledAt: req.ScheduledAt.UTC(),
		Delivery:    newDelivery(&req, p, status, userID, now),
	}
	if err := s.repo.Create(ctx, sn); err != nil {
		return nil, err
	}
	transitioned(domain.EntityScheduledNotification, status)
	s.Audit.Record(ctx, userID, domain.AuditCreate, domain.EntityScheduledNotification, sn.ScheduledID,
		map[string]interface{}{"title": sn.Title, "status": status})
	if status == domain.StatusAwaitingApproval {
		s.notifyApproval(kindScheduled, sn.ScheduledID, sn.Title)
	}
	return &ScheduledResult{Scheduled: true, Notification: sn, Message: msg}, nil
}

func (s *scheduledService) load(ctx context.Context, scheduledID string) (*domain.ScheduledNotification, error) {
	sn, err := s.repo.Get(ctx, scheduledID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(msgScheduledNotFound)
	}
	return sn, err
}

func (s *scheduledService) Cancel(ctx context.Context, scheduledID, userID string) (*ScheduledResult, error) {
	sn, err := s.load(ctx, scheduledID)
	if err != nil {
		return nil, err
	}
	prev := sn.Status
	if prev != domain.StatusPending && prev != domain.StatusAwaitingApproval {
		return nil, domain.InvalidState(msgCannotCancel)
	}
	sn.Status = domain.StatusCancelled
	sn.UpdatedAt = s.now()
	if err := s.repo.Transition(ctx, scheduledID, []string{domain.StatusPending, domain.StatusAwaitingApproval}, &sn.Delivery); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			return nil, domain.InvalidState(msgCannotCancel)
		}
		return nil, err
	}
	transitioned(domain.EntityScheduledNotification, sn.Status)
	s.Audit.Record(ctx, userID, domain.AuditDelete, domain.EntityScheduledNotification, scheduledID,
		map[string]interface{}{"previousStatus": prev})
	return &ScheduledResult{Scheduled: true, Notification: sn, Message: msgScheduledCancelled}, nil
}

// Approve dispatches right away, even when ScheduledAt is still ahead.
func (s *scheduledService) Approve(ctx context.Context, scheduledID, adminID string) (*ScheduledResult, error) {
	sn, err := s.load(ctx, scheduledID)
	if err != nil {
		return nil, err
	}
	if sn.Status != domain.StatusAwaitingApproval {
		return nil, domain.InvalidState(msgCannotApprove)
	}
	in, err := s.loadSnapshot(ctx, &sn.Delivery, msgScheduledNoData)
	if err != nil {
		return nil, err
	}

	sn.Status = domain.StatusProcessing
	sn.ApprovedBy = ptr(adminID)
	sn.UpdatedAt = s.now()
	if err := s.repo.Transition(ctx, scheduledID, []string{domain.StatusAwaitingApproval}, &sn.Delivery); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			return nil, domain.InvalidState(msgCannotApprove)
		}
		return nil, fmt.Errorf("claim scheduled notification %s: %w", scheduledID, err)
	}

	out := s.send(ctx, domain.EntityScheduledNotification, scheduledID, &sn.Delivery, in.template, in.recipients, in.settings)
	finishScheduled(ctx, s.repo, sn)
	s.Audit.Record(ctx, adminID, domain.AuditApprove, domain.EntityScheduledNotification, scheduledID,
		map[string]interface{}{"title": sn.Title, "status": sn.Status, "sentCount": sn.SentCount})
	return &ScheduledResult{Scheduled: true, Notification: sn, Message: out.Message("Approved and sent to")}, nil
}

func (s *scheduledService) Reject(ctx context.Context, scheduledID, adminID string, reason *string) (*ScheduledResult, error) {
	sn, err := s.load(ctx, scheduledID)
	if err != nil {
		return nil, err
	}
	if sn.Status != domain.StatusAwaitingApproval {
		return nil, domain.InvalidState(msgCannotReject)
	}
	sn.Status = domain.StatusRejected
	sn.RejectedBy = ptr(adminID)
	sn.RejectionReason = cleanReason(reason)
	sn.UpdatedAt = s.now()
	if err := s.repo.Transition(ctx, scheduledID, []string{domain.StatusAwaitingApproval}, &sn.Delivery); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			return nil, domain.InvalidState(msgCannotReject)
		}
		return nil, err
	}
	transitioned(domain.EntityScheduledNotification, sn.Status)
	s.Audit.Record(ctx, adminID, domain.AuditReject, domain.EntityScheduledNotification, scheduledID,
		map[string]interface{}{"reason": sn.RejectionReason})
	return &ScheduledResult{Scheduled: true, Notification: sn, Message: msgScheduledRejected}, nil
}

func (s *scheduledService) Action(ctx context.Context, scheduledID, userID string, a domain.ScheduledAction) (*ScheduledResult, error) {
	switch strings.ToLower(strings.TrimSpace(a.Action)) {
	case domain.ActionCancel:
		return s.Cancel(ctx, scheduledID, userID)
	case domain.ActionApprove:
		return s.Approve(ctx, scheduledID, userID)
	case domain.ActionReject:
		return s.Reject(ctx, scheduledID, userID, a.Reason)
	default:
		return nil, domain.Validation(msgInvalidAction)
	}
}

func (s *scheduledService) List(ctx context.Context, status string, page int) (domain.Page[ScheduledView], error) {
	all, err := s.repo.List(ctx, status)
	if err != nil {
		return domain.Page[ScheduledView]{}, err
	}
	p := domain.Paginate(all, page, pageSize)
	views := make([]ScheduledView, len(p.Items))
	templates := map[string]*domain.Template{}
	for i, sn := range p.Items {
		views[i] = ScheduledView{ScheduledNotification: sn}
		tpl, ok := templates[sn.TemplateID]
		if !ok {
			tpl, err = s.Templates.Get(ctx, sn.TemplateID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return domain.Page[ScheduledView]{}, err
			}
			templates[sn.TemplateID] = tpl
		}
		views[i].Template = tpl
	}
	return domain.Page[ScheduledView]{
		Items:      views,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}, nil
}

func (s *scheduledService) Get(ctx context.Context, scheduledID string) (*ScheduledDetail, error) {
	sn, err := s.load(ctx, scheduledID)
	if err != nil {
		return nil, err
	}
	refs, err := s.references(ctx, &sn.Delivery)
	if err != nil {
		return nil, err
	}
	return &ScheduledDetail{Notification: sn, Template: refs.template, Audience: refs.audience, Recipients: refs.recipients}, nil
}

type scheduledTransitioner interface {
	Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error
}

// finishScheduled stores a dispatch outcome; failures are logged because the
// messages have already been handed to the gateway.
func finishScheduled(ctx context.Context, repo scheduledTransitioner, sn *domain.ScheduledNotification) bool {
	if err := repo.Transition(context.WithoutCancel(ctx), sn.ScheduledID, []string{domain.StatusProcessing}, &sn.Delivery); err != nil {
		slog.Error("could not record scheduled notification outcome", "scheduled_id", sn.ScheduledID, "status", sn.Status, "err", err)
		return false
	}
	transitioned(domain.EntityScheduledNotification, sn.Status)
	return true
}
