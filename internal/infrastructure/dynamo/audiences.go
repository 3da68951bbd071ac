package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// AudienceRepo provides typed DynamoDB operations for the audiences table.
type AudienceRepo struct {
	t table[domain.Audience]
}

func NewAudienceRepo(client *dynamodb.Client, tableName string) *AudienceRepo {
	return &AudienceRepo{t: table[domain.Audience]{
		client: client, name: tableName, key: "audience_id", entity: "audience",
	}}
}

func (r *AudienceRepo) Put(ctx context.Context, a *domain.Audience) error {
	return r.t.put(ctx, a)
}

func (r *AudienceRepo) Get(ctx context.Context, id string) (*domain.Audience, error) {
	a, err := r.t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.MemberCount = len(a.MemberIDs)
	return a, nil
}

func (r *AudienceRepo) List(ctx context.Context, scope string) ([]domain.Audience, error) {
	var (
		items []domain.Audience
		err   error
	)
	if scope != "" {
		items, err = r.t.queryIndex(ctx, "scope-index", "scope", scope)
	} else {
		items, err = r.t.scan(ctx, nil)
	}
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].MemberCount = len(items[i].MemberIDs)
	}
	return items, nil
}

func (r *AudienceRepo) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}

func (r *AudienceRepo) Count(ctx context.Context) (int, error) {
	return r.t.count(ctx)
}
