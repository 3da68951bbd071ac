package template

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

type Service interface {
	Create(ctx context.Context, userID string, in domain.TemplateInput) (*domain.Template, error)
	Get(ctx context.Context, templateID string) (*domain.Template, error)
	List(ctx context.Context, f domain.TemplateFilter) (domain.Page[domain.Template], error)
	Update(ctx context.Context, userID, templateID string, in domain.TemplateInput) (*domain.Template, error)
	Delete(ctx context.Context, userID, templateID string) error
}

type templateStore interface {
	Put(ctx context.Context, t *domain.Template) error
	Get(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context, objectType string) ([]domain.Template, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo  templateStore
	audit audit.Recorder
}

func NewService(repo templateStore, rec audit.Recorder) Service {
	return &service{repo: repo, audit: rec}
}

func prepare(in *domain.TemplateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ObjectType = strings.TrimSpace(in.ObjectType)
	if err := validate.Struct(*in); err != nil {
		return err
	}
	if len(in.TemplateFields) == 0 {
		in.TemplateFields = Placeholders(in.TemplateBody)
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID string, in domain.TemplateInput) (*domain.Template, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Template{
		TemplateID:     id.New(),
		Name:           in.Name,
		ObjectType:     in.ObjectType,
		TemplateBody:   in.TemplateBody,
		TemplateFields: in.TemplateFields,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditCreate, domain.EntityTemplate, t.TemplateID,
		map[string]interface{}{"name": t.Name, "objectType": t.ObjectType})
	return t, nil
}

func (s *service) Get(ctx context.Context, templateID string) (*domain.Template, error) {
	t, err := s.repo.Get(ctx, templateID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Template not found")
	}
	return t, err
}

func (s *service) List(ctx context.Context, f domain.TemplateFilter) (domain.Page[domain.Template], error) {
	all, err := s.repo.List(ctx, f.Scope)
	if err != nil {
		return domain.Page[domain.Template]{}, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Template, 0, len(all))
	for _, t := range all {
		if q == "" || strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return domain.Paginate(out, f.Page, pageSize), nil
}

func (s *service) Update(ctx context.Context, userID, templateID string, in domain.TemplateInput) (*domain.Template, error) {
	if err := prepare(&in); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	t.Name = in.Name
	t.ObjectType = in.ObjectType
	t.TemplateBody = in.TemplateBody
	t.TemplateFields = in.TemplateFields
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.EntityTemplate, t.TemplateID,
		map[string]interface{}{"name": t.Name, "objectType": t.ObjectType})
	return t, nil
}

// Delete removes the template. Notifications that used it keep their template id;
// pending ones will fail at dispatch with no delivery.
func (s *service) Delete(ctx context.Context, userID, templateID string) error {
	t, err := s.Get(ctx, templateID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, templateID); err != nil {
		return err
	}
	s.audit.Record(ctx, userID, domain.AuditDelete, domain.EntityTemplate, templateID,
		map[string]interface{}{"name": t.Name})
	return nil
}
