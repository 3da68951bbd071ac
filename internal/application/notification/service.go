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

// Result is returned by every lifecycle call: the entity as stored plus a message for the caller.
type Result struct {
	Notification *domain.Notification `json:"notification"`
	Message      string               `json:"message"`
}

// View is a list row with its template joined in.
type View struct {
	domain.Notification
	Template *domain.Template `json:"template,omitempty"`
}

// Detail is one notification with everything it refers to. Audience is nil
// when it was deleted after the notification was created.
type Detail struct {
	Notification *domain.Notification `json:"notification"`
	Template     *domain.Template     `json:"template"`
	Audience     *domain.Audience     `json:"audience"`
	Recipients   []domain.Recipient   `json:"recipients"`
}

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*Result, error)
	Approve(ctx context.Context, notificationID, adminID string) (*Result, error)
	Reject(ctx context.Context, notificationID, adminID string, reason *string) (*Result, error)
	List(ctx context.Context, f domain.NotificationFilter) (domain.Page[View], error)
	Get(ctx context.Context, notificationID string) (*Detail, error)
}

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, id string) (*domain.Notification, error)
	Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error
	List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, error)
}

type service struct {
	core
	repo notificationStore
}

func NewService(repo notificationStore, deps Deps) Service {
	return &service{core: newCore(deps), repo: repo}
}

const (
	msgAwaiting       = "Notification created and is awaiting approval before it will be sent."
	msgNotAwaiting    = "Notification is not awaiting approval."
	msgNoAudienceData = "Notification has no audience data."
)

func (s *service) Create(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*Result, error) {
	p, err := s.prepare(ctx, &req)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if p.settings.ApprovalEnabled {
		n := &domain.Notification{
			NotificationID: id.At(now),
			Delivery:       newDelivery(&req, p, domain.StatusAwaitingApproval, userID, now),
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return nil, err
		}
		transitioned(domain.EntityNotification, n.Status)
		s.Audit.Record(ctx, userID, domain.AuditCreate, domain.EntityNotification, n.NotificationID,
			map[string]interface{}{"title": n.Title, "status": n.Status})
		s.notifyApproval("notification", n.NotificationID, n.Title)
		return &Result{Notification: n, Message: msgAwaiting}, nil
	}

	n := &domain.Notification{
		NotificationID: id.At(now),
		Delivery:       newDelivery(&req, p, domain.StatusProcessing, userID, now),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	out := s.send(ctx, domain.EntityNotification, n.NotificationID, &n.Delivery, p.template, p.members, p.settings)
	s.finish(ctx, n)
	s.Audit.Record(ctx, userID, domain.AuditSend, domain.EntityNotification, n.NotificationID,
		map[string]interface{}{"title": n.Title, "status": n.Status, "sentCount": n.SentCount})
	return &Result{Notification: n, Message: out.Message("Notification sent to")}, nil
}

// finish stores the dispatch outcome. Messages have already gone out, so a
// failed write is logged rather than returned.
func (s *service) finish(ctx context.Context, n *domain.Notification) {
	if err := s.repo.Transition(context.WithoutCancel(ctx), n.NotificationID, []string{domain.StatusProcessing}, &n.Delivery); err != nil {
		slog.Error("could not record notification outcome", "notification_id", n.NotificationID, "status", n.Status, "err", err)
		return
	}
	transitioned(domain.EntityNotification, n.Status)
}

func (s *service) load(ctx context.Context, notificationID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Notification not found")
	}
	return n, err
}

func (s *service) Approve(ctx context.Context, notificationID, adminID string) (*Result, error) {
	n, err := s.load(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.Status != domain.StatusAwaitingApproval {
		return nil, domain.InvalidState(msgNotAwaiting)
	}
	in, err := s.loadSnapshot(ctx, &n.Delivery, msgNoAudienceData)
	if err != nil {
		return nil, err
	}

	n.Status = domain.StatusProcessing
	n.ApprovedBy = ptr(adminID)
	n.UpdatedAt = s.now()
	if err := s.repo.Transition(ctx, notificationID, []string{domain.StatusAwaitingApproval}, &n.Delivery); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			return nil, domain.InvalidState(msgNotAwaiting)
		}
		return nil, fmt.Errorf("claim notification %s: %w", notificationID, err)
	}

	out := s.send(ctx, domain.EntityNotification, notificationID, &n.Delivery, in.template, in.recipients, in.settings)
	s.finish(ctx, n)
	s.Audit.Record(ctx, adminID, domain.AuditApprove, domain.EntityNotification, notificationID,
		map[string]interface{}{"title": n.Title, "status": n.Status, "sentCount": n.SentCount})
	return &Result{Notification: n, Message: out.Message("Approved and sent to")}, nil
}

func (s *service) Reject(ctx context.Context, notificationID, adminID string, reason *string) (*Result, error) {
	n, err := s.load(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.Status != domain.StatusAwaitingApproval {
		return nil, domain.InvalidState(msgNotAwaiting)
	}
	n.Status = domain.StatusRejected
	n.RejectedBy = ptr(adminID)
	n.RejectionReason = cleanReason(reason)
	n.UpdatedAt = s.now()
	if err := s.repo.Transition(ctx, notificationID, []string{domain.StatusAwaitingApproval}, &n.Delivery); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			return nil, domain.InvalidState(msgNotAwaiting)
		}
		return nil, err
	}
	transitioned(domain.EntityNotification, n.Status)
	s.Audit.Record(ctx, adminID, domain.AuditReject, domain.EntityNotification, notificationID,
		map[string]interface{}{"reason": n.RejectionReason})
	return &Result{Notification: n, Message: "Notification rejected."}, nil
}

func (s *service) List(ctx context.Context, f domain.NotificationFilter) (domain.Page[View], error) {
	all, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.Page[View]{}, err
	}
	page := domain.Paginate(all, f.Page, pageSize)
	views := make([]View, len(page.Items))
	templates := map[string]*domain.Template{}
	for i, n := range page.Items {
		views[i] = View{Notification: n}
		tpl, ok := templates[n.TemplateID]
		if !ok {
			tpl, err = s.Templates.Get(ctx, n.TemplateID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return domain.Page[View]{}, err
			}
			templates[n.TemplateID] = tpl
		}
		views[i].Template = tpl
	}
	return domain.Page[View]{
		Items:      views,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, notificationID string) (*Detail, error) {
	n, err := s.load(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	refs, err := s.references(ctx, &n.Delivery)
	if err != nil {
		return nil, err
	}
	return &Detail{Notification: n, Template: refs.template, Audience: refs.audience, Recipients: refs.recipients}, nil
}

func cleanReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	r := strings.TrimSpace(*reason)
	if r == "" {
		return nil
	}
	return &r
}
