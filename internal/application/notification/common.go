package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-notify-nosql/internal/application/audience"
	"github.com/go-notify-nosql/internal/application/audit"
	"github.com/go-notify-nosql/internal/application/dispatch"
	"github.com/go-notify-nosql/internal/application/settings"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/metrics"
)

const pageSize = 20

const (
	msgScopeMismatch = "Template scope does not match audience scope. Choose a template for the same scope."
	msgNoRecipients  = "Audience has no recipients."
	msgAudienceGone  = "Audience not found"
	msgTemplateGone  = "Template not found"
)

type templateGetter interface {
	Get(ctx context.Context, templateID string) (*domain.Template, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, job dispatch.Job) dispatch.Outcome
}

type reportArchiver interface {
	Archive(ctx context.Context, entityType, entityID, messageType string, out dispatch.Outcome)
}

type approvalNotifier interface {
	AwaitingApproval(kind, id, title string)
}

// Deps are the collaborators shared by the immediate, scheduled and sweep services.
type Deps struct {
	Audiences  audience.Materializer
	Templates  templateGetter
	Settings   settings.Provider
	Dispatcher dispatcher
	Archiver   reportArchiver   // optional
	Notifier   approvalNotifier // optional
	Audit      audit.Recorder
	Now        func() time.Time // defaults to time.Now
}

type core struct {
	Deps
}

func newCore(d Deps) core {
	if d.Now == nil {
		d.Now = time.Now
	}
	return core{Deps: d}
}

func (c *core) now() time.Time { return c.Now().UTC() }

// validateCreate collects every field problem into one sentence list.
func validateCreate(req *domain.CreateNotificationRequest) error {
	req.Normalize()
	var msgs []string
	if req.Title == "" {
		msgs = append(msgs, "Title is required.")
	}
	if req.AudienceID == "" {
		msgs = append(msgs, "Audience is required.")
	}
	if req.TemplateID == "" {
		msgs = append(msgs, "Template is required.")
	}
	if !domain.ValidMessageType(req.MessageType) {
		msgs = append(msgs, "Message type must be sms or whatsapp.")
	}
	if len(msgs) > 0 {
		return domain.Validation(strings.Join(msgs, " "))
	}
	return nil
}

// prepared is what a create needs once the request has been checked.
type prepared struct {
	audience *domain.Audience
	template *domain.Template
	members  []domain.Recipient
	settings *domain.Settings
}

func (p *prepared) snapshot() *domain.Snapshot {
	ids := make([]string, len(p.members))
	for i, r := range p.members {
		ids[i] = r.RecipientID
	}
	return &domain.Snapshot{AudienceID: p.audience.AudienceID, RecipientIDs: ids}
}

func (c *core) prepare(ctx context.Context, req *domain.CreateNotificationRequest) (*prepared, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	aud, tpl, err := c.lookup(ctx, req.AudienceID, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl.ObjectType != aud.Scope {
		return nil, domain.Validation(msgScopeMismatch)
	}
	members, err := c.Audiences.GetMembers(ctx, aud.AudienceID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, domain.Validation(msgNoRecipients)
	}
	st, err := c.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &prepared{audience: aud, template: tpl, members: members, settings: st}, nil
}

// lookup loads the audience and template, mapping absence to NotFound.
func (c *core) lookup(ctx context.Context, audienceID, templateID string) (*domain.Audience, *domain.Template, error) {
	aud, err := c.Audiences.Get(ctx, audienceID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NotFound(msgAudienceGone)
	}
	if err != nil {
		return nil, nil, err
	}
	tpl, err := c.Templates.Get(ctx, templateID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NotFound(msgTemplateGone)
	}
	if err != nil {
		return nil, nil, err
	}
	return aud, tpl, nil
}

// approvalInput is everything an approval or a sweep dispatch reads before it claims the entity.
type approvalInput struct {
	template   *domain.Template
	recipients []domain.Recipient
	settings   *domain.Settings
}

// loadSnapshot validates the stored snapshot and loads what the dispatch needs.
// Recipients deleted since the snapshot are silently dropped.
func (c *core) loadSnapshot(ctx context.Context, d *domain.Delivery, missingMsg string) (*approvalInput, error) {
	if !d.Metadata.Usable() {
		return nil, domain.Validation(missingMsg)
	}
	_, tpl, err := c.lookup(ctx, d.Metadata.AudienceID, d.TemplateID)
	if err != nil {
		return nil, err
	}
	recipients, err := c.Audiences.GetByIDs(ctx, d.Metadata.RecipientIDs)
	if err != nil {
		return nil, err
	}
	st, err := c.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &approvalInput{template: tpl, recipients: recipients, settings: st}, nil
}

// send dispatches d and applies the outcome to it. The stored status is not touched.
func (c *core) send(ctx context.Context, entityType, entityID string, d *domain.Delivery, tpl *domain.Template,
	recipients []domain.Recipient, st *domain.Settings) dispatch.Outcome {
	out := c.Dispatcher.Dispatch(ctx, dispatch.Job{
		EntityType:    entityType,
		TemplateBody:  tpl.TemplateBody,
		Recipients:    recipients,
		Scope:         d.ObjectType,
		ScopeMappings: st.ScopeMappings,
		MessageType:   d.MessageType,
	})
	out.Apply(d, c.now())
	if c.Archiver != nil {
		c.Archiver.Archive(ctx, entityType, entityID, d.MessageType, out)
	}
	return out
}

func (c *core) notifyApproval(kind, id, title string) {
	if c.Notifier != nil {
		c.Notifier.AwaitingApproval(kind, id, title)
	}
}

func transitioned(entityType, status string) {
	metrics.LifecycleTransitions.WithLabelValues(entityType, status).Inc()
}

func newDelivery(req *domain.CreateNotificationRequest, p *prepared, status, userID string, now time.Time) domain.Delivery {
	return domain.Delivery{
		Title:          req.Title,
		ObjectType:     p.template.ObjectType,
		TemplateID:     p.template.TemplateID,
		MessageType:    req.MessageType,
		RecipientCount: len(p.members),
		Status:         status,
		Metadata:       p.snapshot(),
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type refs struct {
	template   *domain.Template
	audience   *domain.Audience
	recipients []domain.Recipient
}

// references loads what a stored delivery points to. Deleted entities come back nil.
func (c *core) references(ctx context.Context, d *domain.Delivery) (*refs, error) {
	r := &refs{recipients: []domain.Recipient{}}
	var err error
	if r.template, err = c.Templates.Get(ctx, d.TemplateID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if d.Metadata == nil {
		return r, nil
	}
	if r.audience, err = c.Audiences.Get(ctx, d.Metadata.AudienceID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if len(d.Metadata.RecipientIDs) > 0 {
		if r.recipients, err = c.Audiences.GetByIDs(ctx, d.Metadata.RecipientIDs); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func ptr(s string) *string { return &s }
