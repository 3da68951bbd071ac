package dynamo

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// AuditRepo appends to and reads the audit_log table.
type AuditRepo struct {
	t table[domain.AuditEntry]
}

func NewAuditRepo(client *dynamodb.Client, tableName string) *AuditRepo {
	return &AuditRepo{t: table[domain.AuditEntry]{
		client: client, name: tableName, key: "audit_id", entity: "audit entry",
	}}
}

func (r *AuditRepo) Put(ctx context.Context, e *domain.AuditEntry) error {
	return r.t.putNew(ctx, e)
}

// List returns every entry, newest first. Audit ids are ULIDs so they sort by time.
func (r *AuditRepo) List(ctx context.Context) ([]domain.AuditEntry, error) {
	items, err := r.t.scan(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AuditID > items[j].AuditID })
	return items, nil
}
