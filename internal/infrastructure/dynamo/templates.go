package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// TemplateRepo provides typed DynamoDB operations for the templates table.
type TemplateRepo struct {
	t table[domain.Template]
}

func NewTemplateRepo(client *dynamodb.Client, tableName string) *TemplateRepo {
	return &TemplateRepo{t: table[domain.Template]{
		client: client, name: tableName, key: "template_id", entity: "template",
	}}
}

func (r *TemplateRepo) Put(ctx context.Context, t *domain.Template) error {
	return r.t.put(ctx, t)
}

func (r *TemplateRepo) Get(ctx context.Context, id string) (*domain.Template, error) {
	return r.t.get(ctx, id)
}

// List returns every template, or only those for objectType when it is set.
func (r *TemplateRepo) List(ctx context.Context, objectType string) ([]domain.Template, error) {
	if objectType != "" {
		return r.t.queryIndex(ctx, "object_type-index", "object_type", objectType)
	}
	return r.t.scan(ctx, nil)
}

func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}

func (r *TemplateRepo) Count(ctx context.Context) (int, error) {
	return r.t.count(ctx)
}
