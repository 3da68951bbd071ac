package recipient

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-notify-nosql/internal/application/audit"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
	"github.com/go-notify-nosql/internal/pkg/validate"
)

const defaultPageSize = 20

const duplicateMsg = "A recipient with this phone and scope already exists."

type Service interface {
	Create(ctx context.Context, userID string, in domain.RecipientInput) (*domain.Recipient, error)
	Get(ctx context.Context, recipientID string) (*domain.Recipient, error)
	List(ctx context.Context, f domain.RecipientFilter) (domain.Page[domain.Recipient], error)
	Update(ctx context.Context, userID, recipientID string, in domain.RecipientInput) (*domain.Recipient, error)
	Delete(ctx context.Context, userID, recipientID string) error
}

type recipientStore interface {
	Put(ctx context.Context, r *domain.Recipient) error
	Get(ctx context.Context, id string) (*domain.Recipient, error)
	FindByPhoneScope(ctx context.Context, phone, scope string) (*domain.Recipient, error)
	List(ctx context.Context, scope string) ([]domain.Recipient, error)
	Delete(ctx context.Context, id string) error
}

type audienceStore interface {
	List(ctx context.Context, scope string) ([]domain.Audience, error)
	Put(ctx context.Context, a *domain.Audience) error
}

type service struct {
	repo      recipientStore
	audiences audienceStore
	audit     audit.Recorder
}

type ServiceDeps struct {
	RecipientRepo recipientStore
	AudienceRepo  audienceStore
	Audit         audit.Recorder
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.RecipientRepo, audiences: deps.AudienceRepo, audit: deps.Audit}
}

func normalize(in *domain.RecipientInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Scope = strings.TrimSpace(in.Scope)
	if in.Email != nil {
		e := strings.TrimSpace(*in.Email)
		if e == "" {
			in.Email = nil
		} else {
			in.Email = &e
		}
	}
}

// checkUnique fails with Conflict when another recipient holds (phone, scope).
func (s *service) checkUnique(ctx context.Context, phone, scope, selfID string) error {
	existing, err := s.repo.FindByPhoneScope(ctx, phone, scope)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.RecipientID != selfID {
		return domain.Conflict(duplicateMsg)
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID string, in domain.RecipientInput) (*domain.Recipient, error) {
	normalize(&in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.Phone, in.Scope, ""); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r := &domain.Recipient{
		RecipientID: id.New(),
		Name:        in.Name,
		Phone:       in.Phone,
		Email:       in.Email,
		Scope:       in.Scope,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditCreate, domain.EntityRecipient, r.RecipientID,
		map[string]interface{}{"name": r.Name, "scope": r.Scope})
	return r, nil
}

func (s *service) Get(ctx context.Context, recipientID string) (*domain.Recipient, error) {
	r, err := s.repo.Get(ctx, recipientID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Recipient not found")
	}
	return r, err
}

// List filters by scope and a case-insensitive search over name, phone and email.
func (s *service) List(ctx context.Context, f domain.RecipientFilter) (domain.Page[domain.Recipient], error) {
	all, err := s.repo.List(ctx, f.Scope)
	if err != nil {
		return domain.Page[domain.Recipient]{}, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Recipient, 0, len(all))
	for _, r := range all {
		if q == "" || matches(&r, q) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return domain.Paginate(out, f.Page, limit), nil
}

func matches(r *domain.Recipient, q string) bool {
	if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(r.Phone, q) {
		return true
	}
	return r.Email != nil && strings.Contains(strings.ToLower(*r.Email), q)
}

func (s *service) Update(ctx context.Context, userID, recipientID string, in domain.RecipientInput) (*domain.Recipient, error) {
	normalize(&in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	r, err := s.Get(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.Phone, in.Scope, recipientID); err != nil {
		return nil, err
	}
	r.Name = in.Name
	r.Phone = in.Phone
	r.Email = in.Email
	r.Scope = in.Scope
	r.Metadata = in.Metadata
	r.UpdatedAt = time.Now().UTC()
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.EntityRecipient, r.RecipientID,
		map[string]interface{}{"name": r.Name, "scope": r.Scope})
	return r, nil
}

// Delete removes the recipient and drops it from the audiences of its scope.
// Snapshots already taken keep the id; dispatch skips it.
func (s *service) Delete(ctx context.Context, userID, recipientID string) error {
	r, err := s.Get(ctx, recipientID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, recipientID); err != nil {
		return err
	}
	s.detach(ctx, r)
	s.audit.Record(ctx, userID, domain.AuditDelete, domain.EntityRecipient, recipientID,
		map[string]interface{}{"name": r.Name, "scope": r.Scope})
	return nil
}

func (s *service) detach(ctx context.Context, r *domain.Recipient) {
	auds, err := s.audiences.List(ctx, r.Scope)
	if err != nil {
		slog.Warn("could not list audiences to detach recipient", "recipient_id", r.RecipientID, "err", err)
		return
	}
	for i := range auds {
		a := &auds[i]
		kept := a.MemberIDs[:0]
		for _, mid := range a.MemberIDs {
			if mid != r.RecipientID {
				kept = append(kept, mid)
			}
		}
		if len(kept) == len(a.MemberIDs) {
			continue
		}
		a.MemberIDs = kept
		a.UpdatedAt = time.Now().UTC()
		if err := s.audiences.Put(ctx, a); err != nil {
			slog.Warn("could not detach recipient from audience", "recipient_id", r.RecipientID, "audience_id", a.AudienceID, "err", err)
		}
	}
}
