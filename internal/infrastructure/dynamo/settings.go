package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// SettingsRepo stores the singleton system settings item.
type SettingsRepo struct {
	t table[domain.Settings]
}

func NewSettingsRepo(client *dynamodb.Client, tableName string) *SettingsRepo {
	return &SettingsRepo{t: table[domain.Settings]{
		client: client, name: tableName, key: "setting_id", entity: "settings",
	}}
}

// Get returns the stored settings or the defaults when none were saved yet.
func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	s, err := r.t.get(ctx, domain.SettingsID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	if s.ScopeMappings == nil {
		s.ScopeMappings = map[string]domain.ScopeMapping{}
	}
	if s.ObjectTypeIcons == nil {
		s.ObjectTypeIcons = map[string]string{}
	}
	return s, nil
}

func (r *SettingsRepo) Put(ctx context.Context, s *domain.Settings) error {
	s.SettingID = domain.SettingsID
	return r.t.put(ctx, s)
}

// Ping reports whether the settings table, and with it DynamoDB, is usable.
func (r *SettingsRepo) Ping(ctx context.Context) error {
	return r.t.ping(ctx)
}
