package settings

import (
	"context"
	"time"

	"github.com/go-notify-nosql/internal/application/audit"
	"github.com/go-notify-nosql/internal/domain"
)

// Provider is the read side injected into the lifecycle services.
type Provider interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

type Service interface {
	Provider
	Update(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.Settings, error)
}

type settingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Put(ctx context.Context, s *domain.Settings) error
}

type service struct {
	repo  settingsStore
	audit audit.Recorder
}

type ServiceDeps struct {
	SettingsRepo settingsStore
	Audit        audit.Recorder
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.SettingsRepo, audit: deps.Audit}
}

func (s *service) Get(ctx context.Context) (*domain.Settings, error) {
	return s.repo.Get(ctx)
}

// Update merges the non-nil parts of req. Maps replace the stored maps wholesale.
func (s *service) Update(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.Settings, error) {
	cur, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	changed := map[string]interface{}{}
	if req.ApprovalEnabled != nil {
		cur.ApprovalEnabled = *req.ApprovalEnabled
		changed["approvalEnabled"] = *req.ApprovalEnabled
	}
	if req.ScopeMappings != nil {
		cur.ScopeMappings = req.ScopeMappings
		changed["scopeMappings"] = len(req.ScopeMappings)
	}
	if req.ObjectTypeIcons != nil {
		cur.ObjectTypeIcons = req.ObjectTypeIcons
		changed["objectTypeIcons"] = len(req.ObjectTypeIcons)
	}
	cur.UpdatedAt = time.Now().UTC()
	if err := s.repo.Put(ctx, cur); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.EntitySettings, domain.SettingsID, changed)
	return cur, nil
}
