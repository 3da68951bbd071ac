package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// ScopeRepo provides typed DynamoDB operations for the scopes table.
type ScopeRepo struct {
	t table[domain.Scope]
}

func NewScopeRepo(client *dynamodb.Client, tableName string) *ScopeRepo {
	return &ScopeRepo{t: table[domain.Scope]{
		client: client, name: tableName, key: "scope_id", entity: "scope",
	}}
}

func (r *ScopeRepo) Put(ctx context.Context, s *domain.Scope) error {
	return r.t.put(ctx, s)
}

func (r *ScopeRepo) Get(ctx context.Context, id string) (*domain.Scope, error) {
	return r.t.get(ctx, id)
}

func (r *ScopeRepo) GetByCode(ctx context.Context, code string) (*domain.Scope, error) {
	return r.t.first(ctx, "code-index", "code", code)
}

func (r *ScopeRepo) Scan(ctx context.Context) ([]domain.Scope, error) {
	return r.t.scan(ctx, nil)
}

// HardDelete permanently removes a scope item.
func (r *ScopeRepo) HardDelete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}
