package audience

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

const pageSize = 20

// Materializer resolves audiences into recipients for the lifecycle services.
type Materializer interface {
	Get(ctx context.Context, audienceID string) (*domain.Audience, error)
	// GetMembers returns the current members, used when a notification is created.
	GetMembers(ctx context.Context, audienceID string) ([]domain.Recipient, error)
	// GetByIDs returns the recipients of a snapshot that still exist.
	GetByIDs(ctx context.Context, recipientIDs []string) ([]domain.Recipient, error)
}

type Service interface {
	Materializer
	Create(ctx context.Context, userID string, in domain.AudienceInput) (*domain.Audience, error)
	List(ctx context.Context, f domain.AudienceFilter) (domain.Page[domain.Audience], error)
	Update(ctx context.Context, userID, audienceID string, in domain.AudienceInput) (*domain.Audience, error)
	Delete(ctx context.Context, userID, audienceID string) error
}

type audienceStore interface {
	Put(ctx context.Context, a *domain.Audience) error
	Get(ctx context.Context, id string) (*domain.Audience, error)
	List(ctx context.Context, scope string) ([]domain.Audience, error)
	Delete(ctx context.Context, id string) error
}

type recipientStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error)
}

type service struct {
	repo       audienceStore
	recipients recipientStore
	audit      audit.Recorder
}

type ServiceDeps struct {
	AudienceRepo  audienceStore
	RecipientRepo recipientStore
	Audit         audit.Recorder
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.AudienceRepo, recipients: deps.RecipientRepo, audit: deps.Audit}
}

func (s *service) Get(ctx context.Context, audienceID string) (*domain.Audience, error) {
	a, err := s.repo.Get(ctx, audienceID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Audience not found")
	}
	return a, err
}

func (s *service) GetMembers(ctx context.Context, audienceID string) ([]domain.Recipient, error) {
	a, err := s.Get(ctx, audienceID)
	if err != nil {
		return nil, err
	}
	members, err := s.recipients.GetByIDs(ctx, a.MemberIDs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Recipient, 0, len(members))
	for _, r := range members {
		if r.Scope == a.Scope {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *service) GetByIDs(ctx context.Context, recipientIDs []string) ([]domain.Recipient, error) {
	return s.recipients.GetByIDs(ctx, recipientIDs)
}

func (s *service) Create(ctx context.Context, userID string, in domain.AudienceInput) (*domain.Audience, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	ids, err := s.checkMembers(ctx, in.Scope, in.RecipientIDs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Audience{
		AudienceID:  id.New(),
		Name:        in.Name,
		Scope:       in.Scope,
		MemberIDs:   ids,
		MemberCount: len(ids),
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditCreate, domain.EntityAudience, a.AudienceID,
		map[string]interface{}{"name": a.Name, "memberCount": a.MemberCount})
	return a, nil
}

func (s *service) List(ctx context.Context, f domain.AudienceFilter) (domain.Page[domain.Audience], error) {
	all, err := s.repo.List(ctx, f.Scope)
	if err != nil {
		return domain.Page[domain.Audience]{}, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Audience, 0, len(all))
	for _, a := range all {
		if search == "" || strings.Contains(strings.ToLower(a.Name), search) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return domain.Paginate(out, f.Page, pageSize), nil
}

func (s *service) Update(ctx context.Context, userID, audienceID string, in domain.AudienceInput) (*domain.Audience, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, audienceID)
	if err != nil {
		return nil, err
	}
	ids, err := s.checkMembers(ctx, in.Scope, in.RecipientIDs)
	if err != nil {
		return nil, err
	}
	a.Name = in.Name
	a.Scope = in.Scope
	a.MemberIDs = ids
	a.MemberCount = len(ids)
	a.UpdatedAt = time.Now().UTC()
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.EntityAudience, a.AudienceID,
		map[string]interface{}{"name": a.Name, "memberCount": a.MemberCount})
	return a, nil
}

// Delete removes the audience. Notifications keep their own snapshot of it.
func (s *service) Delete(ctx context.Context, userID, audienceID string) error {
	a, err := s.Get(ctx, audienceID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, audienceID); err != nil {
		return err
	}
	s.audit.Record(ctx, userID, domain.AuditDelete, domain.EntityAudience, audienceID,
		map[string]interface{}{"name": a.Name})
	return nil
}

// checkMembers dedupes ids and requires each to be an existing recipient of scope.
func (s *service) checkMembers(ctx context.Context, scope string, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, rid := range ids {
		if rid == "" || seen[rid] {
			continue
		}
		seen[rid] = true
		uniq = append(uniq, rid)
	}
	if len(uniq) == 0 {
		return uniq, nil
	}
	found, err := s.recipients.GetByIDs(ctx, uniq)
	if err != nil {
		return nil, err
	}
	if len(found) != len(uniq) {
		return nil, domain.Validation("Some recipients do not exist.")
	}
	for _, r := range found {
		if r.Scope != scope {
			return nil, domain.Validation("All recipients must belong to the audience scope.")
		}
	}
	return uniq, nil
}
