package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
)

const pageSize = 50

// Recorder is what other services depend on to leave an audit trail.
type Recorder interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, details map[string]interface{})
}

type Service interface {
	Recorder
	List(ctx context.Context, page int) (domain.Page[domain.AuditEntry], error)
}

type auditStore interface {
	Put(ctx context.Context, e *domain.AuditEntry) error
	List(ctx context.Context) ([]domain.AuditEntry, error)
}

type userStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

type service struct {
	repo  auditStore
	users userStore
}

type ServiceDeps struct {
	AuditRepo auditStore
	UserRepo  userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.AuditRepo, users: deps.UserRepo}
}

// Record never fails the caller: write errors are logged and dropped.
func (s *service) Record(ctx context.Context, userID, action, entityType, entityID string, details map[string]interface{}) {
	now := time.Now().UTC()
	e := &domain.AuditEntry{
		AuditID:    id.At(now),
		Action:     action,
		EntityType: entityType,
		Details:    details,
		CreatedAt:  now,
	}
	if userID != "" {
		e.UserID = &userID
	}
	if entityID != "" {
		e.EntityID = &entityID
	}
	if err := s.repo.Put(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("audit write failed", "action", action, "entity_type", entityType, "entity_id", entityID, "err", err)
	}
}

func (s *service) List(ctx context.Context, page int) (domain.Page[domain.AuditEntry], error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.Page[domain.AuditEntry]{}, err
	}
	p := domain.Paginate(all, page, pageSize)

	var ids []string
	for _, e := range p.Items {
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
	}
	if len(ids) == 0 {
		return p, nil
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		slog.Warn("audit list: could not load usernames", "err", err)
		return p, nil
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.UserID] = u.Username
	}
	for i := range p.Items {
		if uid := p.Items[i].UserID; uid != nil {
			if name, ok := names[*uid]; ok {
				p.Items[i].Username = &name
			}
		}
	}
	return p, nil
}
