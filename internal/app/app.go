// Package app assembles repositories, outbound infrastructure and the
// application services shared by the API and worker binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/application/audience"
	"github.com/go-notify-nosql/internal/application/audit"
	"github.com/go-notify-nosql/internal/application/dashboard"
	"github.com/go-notify-nosql/internal/application/dispatch"
	"github.com/go-notify-nosql/internal/application/notification"
	"github.com/go-notify-nosql/internal/application/recipient"
	"github.com/go-notify-nosql/internal/application/scope"
	"github.com/go-notify-nosql/internal/application/session"
	"github.com/go-notify-nosql/internal/application/settings"
	"github.com/go-notify-nosql/internal/application/template"
	"github.com/go-notify-nosql/internal/application/user"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/infrastructure/awscfg"
	"github.com/go-notify-nosql/internal/infrastructure/dynamo"
	"github.com/go-notify-nosql/internal/infrastructure/gateway"
	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
	redisinfra "github.com/go-notify-nosql/internal/infrastructure/redis"
	s3infra "github.com/go-notify-nosql/internal/infrastructure/s3"
	"github.com/go-notify-nosql/internal/infrastructure/smtp"
	"github.com/go-notify-nosql/internal/infrastructure/sns"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "notify:sweep:lock"

// Repos holds one repository per DynamoDB table.
type Repos struct {
	Users         *dynamo.UserRepo
	Sessions      *dynamo.SessionRepo
	Scopes        *dynamo.ScopeRepo
	Recipients    *dynamo.RecipientRepo
	Audiences     *dynamo.AudienceRepo
	Templates     *dynamo.TemplateRepo
	Notifications *dynamo.NotificationRepo
	Scheduled     *dynamo.ScheduledRepo
	Settings      *dynamo.SettingsRepo
	Audit         *dynamo.AuditRepo
}

func NewRepos(client *dynamodb.Client, t config.DynamoTables) *Repos {
	return &Repos{
		Users:         dynamo.NewUserRepo(client, t.Users),
		Sessions:      dynamo.NewSessionRepo(client, t.Sessions),
		Scopes:        dynamo.NewScopeRepo(client, t.Scopes),
		Recipients:    dynamo.NewRecipientRepo(client, t.Recipients),
		Audiences:     dynamo.NewAudienceRepo(client, t.Audiences),
		Templates:     dynamo.NewTemplateRepo(client, t.Templates),
		Notifications: dynamo.NewNotificationRepo(client, t.Notifications),
		Scheduled:     dynamo.NewScheduledRepo(client, t.ScheduledNotifications),
		Settings:      dynamo.NewSettingsRepo(client, t.Settings),
		Audit:         dynamo.NewAuditRepo(client, t.AuditLog),
	}
}

// Infra is the outbound side: delivery, report archive, approval e-mail,
// token signing and the sweep lock. Optional members are nil when disabled.
type Infra struct {
	Dispatcher *dispatch.Dispatcher
	Reports    *s3infra.Store
	Notifier   *smtp.ApprovalNotifier
	JWT        *jwtinfra.Provider
	Redis      *redis.Client
}

// NewInfra builds the delivery path and the optional collaborators selected in cfg.
// Failures of optional pieces are logged and the piece is left out.
func NewInfra(ctx context.Context, cfg *config.Config) Infra {
	var in Infra

	var awsCfg *aws.Config
	if cfg.DeliveryProvider == "sns" || cfg.ReportsEnabled {
		c, err := awscfg.Load(ctx, cfg)
		if err != nil {
			slog.Warn("AWS config unavailable, SNS and reports disabled", "err", err)
		} else {
			awsCfg = &c
		}
	}

	var smsSender sns.SMSSender
	if cfg.DeliveryProvider == "sns" && awsCfg != nil {
		smsSender = sns.NewSender(*awsCfg, sns.Options{
			Region:   cfg.SNSRegion,
			Endpoint: awscfg.Endpoint(cfg),
			SenderID: cfg.SNSSenderID,
		})
	}
	in.Dispatcher = dispatch.New(gateway.New(cfg, smsSender), cfg.DispatchConcurrency)

	if cfg.ReportsEnabled && awsCfg != nil {
		in.Reports = s3infra.NewStore(s3infra.NewClient(*awsCfg, awscfg.Endpoint(cfg)), cfg.S3BucketName)
	}

	if cfg.ApprovalNotifyEmail != "" {
		in.Notifier = smtp.NewApprovalNotifier(smtp.NewMailer(cfg), cfg.ApprovalNotifyEmail)
	}

	if rc := redisinfra.NewClient(cfg); rc != nil {
		if err := redisinfra.Ping(ctx, rc); err != nil {
			slog.Warn("redis unavailable, sweep runs without a lock", "err", err)
			_ = rc.Close()
		} else {
			in.Redis = rc
		}
	}
	return in
}

// Checks are the readiness probes served by the health endpoint.
func Checks(r *Repos, in Infra) map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"dynamodb": r.Settings.Ping,
	}
	if in.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, in.Redis) }
	}
	return checks
}

// Close releases connections held by in.
func (in Infra) Close() {
	if in.Redis != nil {
		_ = in.Redis.Close()
	}
}

// Services is the application layer.
type Services struct {
	Audit         audit.Service
	Settings      settings.Service
	Scopes        scope.Service
	Recipients    recipient.Service
	Audiences     audience.Service
	Templates     template.Service
	Notifications notification.Service
	Scheduled     notification.ScheduledService
	Sweeper       *notification.Sweeper
	Dashboard     dashboard.Service
	Sessions      session.Service
	Users         user.Service
}

func NewServices(cfg *config.Config, r *Repos, in Infra) *Services {
	auditSvc := audit.NewService(audit.ServiceDeps{AuditRepo: r.Audit, UserRepo: r.Users})
	settingsSvc := settings.NewService(settings.ServiceDeps{SettingsRepo: r.Settings, Audit: auditSvc})
	audienceSvc := audience.NewService(audience.ServiceDeps{
		AudienceRepo: r.Audiences, RecipientRepo: r.Recipients, Audit: auditSvc,
	})
	templateSvc := template.NewService(r.Templates, auditSvc)

	nd := notification.Deps{
		Audiences:  audienceSvc,
		Templates:  templateSvc,
		Settings:   settingsSvc,
		Dispatcher: in.Dispatcher,
		Audit:      auditSvc,
	}
	// Leave the interfaces nil rather than holding typed nil pointers.
	if in.Reports != nil {
		nd.Archiver = dispatch.NewArchiver(in.Reports)
	}
	if in.Notifier != nil {
		nd.Notifier = in.Notifier
	}

	sd := session.ServiceDeps{
		UserRepo:        r.Users,
		SessionRepo:     r.Sessions,
		RefreshTokenDur: time.Duration(cfg.RefreshTokenExpiryDays) * 24 * time.Hour,
	}
	if in.JWT != nil {
		sd.JWTProvider = in.JWT
	}

	opts := []notification.SweeperOption{notification.WithTimeout(cfg.SweepTimeout)}
	if in.Redis != nil {
		opts = append(opts, notification.WithLock(
			redisinfra.NewLock(in.Redis, sweepLockKey, uuid.NewString(), cfg.SweepLockTTL)))
	}

	return &Services{
		Audit:      auditSvc,
		Settings:   settingsSvc,
		Scopes:     scope.NewService(r.Scopes, auditSvc),
		Recipients: recipient.NewService(recipient.ServiceDeps{RecipientRepo: r.Recipients, AudienceRepo: r.Audiences, Audit: auditSvc}),
		Audiences:  audienceSvc,
		Templates:  templateSvc,

		Notifications: notification.NewService(r.Notifications, nd),
		Scheduled:     notification.NewScheduledService(r.Scheduled, nd),
		Sweeper:       notification.NewSweeper(r.Scheduled, nd, opts...),

		Dashboard: dashboard.NewService(dashboard.ServiceDeps{
			Notifications: r.Notifications,
			Scheduled:     r.Scheduled,
			Recipients:    r.Recipients,
			Audiences:     r.Audiences,
			Templates:     r.Templates,
		}),
		Sessions: session.NewService(sd),
		Users:    user.NewService(user.ServiceDeps{UserRepo: r.Users, SessionRepo: r.Sessions, Audit: auditSvc}),
	}
}

// Open connects to DynamoDB, creates missing tables and returns the repositories.
func Open(ctx context.Context, cfg *config.Config) (*Repos, error) {
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: %w", err)
	}
	client := dynamo.NewClient(awsCfg, awscfg.Endpoint(cfg))
	if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTables); err != nil {
		return nil, fmt.Errorf("dynamodb bootstrap: %w", err)
	}
	return NewRepos(client, cfg.DynamoTables), nil
}
