package scope

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-notify-nosql/internal/application/audit"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
	"github.com/go-notify-nosql/internal/pkg/validate"
)

type Service interface {
	List(ctx context.Context) ([]domain.Scope, error)
	Get(ctx context.Context, scopeID string) (*domain.Scope, error)
	Create(ctx context.Context, userID string, input domain.ScopeInput) (*domain.Scope, error)
	Update(ctx context.Context, userID, scopeID string, input domain.ScopeInput) (*domain.Scope, error)
	Delete(ctx context.Context, userID, scopeID string) error // hard delete
}

type scopeStore interface {
	Scan(ctx context.Context) ([]domain.Scope, error)
	Get(ctx context.Context, scopeID string) (*domain.Scope, error)
	GetByCode(ctx context.Context, code string) (*domain.Scope, error)
	Put(ctx context.Context, s *domain.Scope) error
	HardDelete(ctx context.Context, scopeID string) error
}

type service struct {
	repo  scopeStore
	audit audit.Recorder
}

func NewService(repo scopeStore, rec audit.Recorder) Service {
	return &service{repo: repo, audit: rec}
}

func (s *service) List(ctx context.Context) ([]domain.Scope, error) {
	scopes, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Code < scopes[j].Code })
	return scopes, nil
}

func (s *service) Get(ctx context.Context, scopeID string) (*domain.Scope, error) {
	sc, err := s.repo.Get(ctx, scopeID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Scope not found")
	}
	return sc, err
}

// codeTaken reports whether another scope already uses code.
func (s *service) codeTaken(ctx context.Context, code, selfID string) (bool, error) {
	existing, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ScopeID != selfID, nil
}

func (s *service) Create(ctx context.Context, userID string, input domain.ScopeInput) (*domain.Scope, error) {
	input.Code = strings.ToLower(strings.TrimSpace(input.Code))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	taken, err := s.codeTaken(ctx, input.Code, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.Conflict("A scope with this code already exists.")
	}
	sc := &domain.Scope{
		ScopeID:     id.New(),
		Code:        input.Code,
		DisplayName: input.DisplayName,
		Icon:        input.Icon,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, sc); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditCreate, domain.EntityScope, sc.ScopeID, map[string]interface{}{"code": sc.Code})
	return sc, nil
}

func (s *service) Update(ctx context.Context, userID, scopeID string, input domain.ScopeInput) (*domain.Scope, error) {
	input.Code = strings.ToLower(strings.TrimSpace(input.Code))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	sc, err := s.Get(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	taken, err := s.codeTaken(ctx, input.Code, scopeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.Conflict("A scope with this code already exists.")
	}
	sc.Code = input.Code
	sc.DisplayName = input.DisplayName
	sc.Icon = input.Icon
	if err := s.repo.Put(ctx, sc); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.EntityScope, sc.ScopeID, map[string]interface{}{"code": sc.Code})
	return sc, nil
}

func (s *service) Delete(ctx context.Context, userID, scopeID string) error {
	if _, err := s.Get(ctx, scopeID); err != nil {
		return err
	}
	if err := s.repo.HardDelete(ctx, scopeID); err != nil {
		return err
	}
	s.audit.Record(ctx, userID, domain.AuditDelete, domain.EntityScope, scopeID, nil)
	return nil
}
