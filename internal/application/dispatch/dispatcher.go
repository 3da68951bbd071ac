package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-notify-nosql/internal/application/template"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/infrastructure/gateway"
	"github.com/go-notify-nosql/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type sender interface {
	Send(ctx context.Context, msg gateway.Message) gateway.Result
}

// Job is everything needed to send one notification to its recipients.
type Job struct {
	EntityType    string
	TemplateBody  string
	Recipients    []domain.Recipient
	Scope         string
	ScopeMappings map[string]domain.ScopeMapping
	MessageType   string
}

// Attempt is the outcome for a single recipient.
type Attempt struct {
	RecipientID string `json:"recipientId"`
	To          string `json:"to"`
	OK          bool   `json:"ok"`
	ProviderID  string `json:"providerId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Outcome aggregates a dispatch. Attempts are in recipient order.
type Outcome struct {
	SentCount      int
	LastProviderID string
	Attempts       []Attempt
}

// Status is sent when at least one message went out, failed otherwise.
func (o Outcome) Status() string {
	if o.SentCount > 0 {
		return domain.StatusSent
	}
	return domain.StatusFailed
}

// Apply copies the outcome onto the entity. SentAt is only set on success.
func (o Outcome) Apply(d *domain.Delivery, now time.Time) {
	d.Status = o.Status()
	d.SentCount = o.SentCount
	if o.LastProviderID != "" {
		id := o.LastProviderID
		d.ServiceProviderID = &id
	}
	if o.SentCount > 0 {
		at := now
		d.SentAt = &at
	}
	d.UpdatedAt = now
}

// Message is the caller-facing summary. sentPrefix is e.g. "Notification sent to".
func (o Outcome) Message(sentPrefix string) string {
	total := len(o.Attempts)
	switch {
	case o.SentCount > 0 && o.SentCount == total:
		return fmt.Sprintf("%s %d recipient(s).", sentPrefix, o.SentCount)
	case o.SentCount > 0:
		return fmt.Sprintf("Sent to %d of %d.", o.SentCount, total)
	default:
		return "Sending failed."
	}
}

// Dispatcher sends a Job through the gateway, one attempt per recipient.
type Dispatcher struct {
	gateway     sender
	concurrency int
}

func New(gw sender, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{gateway: gw, concurrency: concurrency}
}

// Dispatch attempts every recipient. Failures never stop the loop and the
// dispatch is not cancelled with ctx once it has started.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) Outcome {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	attempts := make([]Attempt, len(job.Recipients))

	if d.concurrency == 1 {
		for i := range job.Recipients {
			attempts[i] = d.attempt(ctx, job, &job.Recipients[i])
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.concurrency)
		for i := range job.Recipients {
			g.Go(func() error {
				attempts[i] = d.attempt(ctx, job, &job.Recipients[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	out := Outcome{Attempts: attempts}
	for _, a := range attempts {
		if !a.OK {
			continue
		}
		out.SentCount++
		if a.ProviderID != "" {
			out.LastProviderID = a.ProviderID
		}
	}
	metrics.DispatchDuration.WithLabelValues(job.EntityType).Observe(time.Since(start).Seconds())
	return out
}

func (d *Dispatcher) attempt(ctx context.Context, job Job, r *domain.Recipient) Attempt {
	body := template.Resolve(job.TemplateBody, r, job.Scope, job.ScopeMappings)
	res := d.gateway.Send(ctx, gateway.Message{To: r.Phone, Body: body, MessageType: job.MessageType})
	outcome := "ok"
	if !res.OK {
		outcome = "failed"
	}
	metrics.DeliveryAttempts.WithLabelValues(job.MessageType, outcome).Inc()
	return Attempt{RecipientID: r.RecipientID, To: r.Phone, OK: res.OK, ProviderID: res.ProviderID, Error: res.Error}
}
