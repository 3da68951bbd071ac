package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// RecipientRepo provides typed DynamoDB operations for the recipients table.
type RecipientRepo struct {
	t table[domain.Recipient]
}

func NewRecipientRepo(client *dynamodb.Client, tableName string) *RecipientRepo {
	return &RecipientRepo{t: table[domain.Recipient]{
		client: client, name: tableName, key: "recipient_id", entity: "recipient",
	}}
}

// Put creates or replaces a recipient, keeping phone_scope in sync.
func (r *RecipientRepo) Put(ctx context.Context, rc *domain.Recipient) error {
	rc.PhoneScope = domain.PhoneScopeKey(rc.Phone, rc.Scope)
	return r.t.put(ctx, rc)
}

func (r *RecipientRepo) Get(ctx context.Context, id string) (*domain.Recipient, error) {
	return r.t.get(ctx, id)
}

// GetByIDs returns the recipients that still exist, in the order of ids.
func (r *RecipientRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error) {
	found, err := r.t.byIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Recipient, len(found))
	for _, rc := range found {
		byID[rc.RecipientID] = rc
	}
	out := make([]domain.Recipient, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		rc, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, rc)
	}
	return out, nil
}

// FindByPhoneScope returns the recipient holding (phone, scope), or ErrNotFound.
func (r *RecipientRepo) FindByPhoneScope(ctx context.Context, phone, scope string) (*domain.Recipient, error) {
	return r.t.first(ctx, "phone_scope-index", "phone_scope", domain.PhoneScopeKey(phone, scope))
}

// List returns every recipient, or only those of scope when it is set.
func (r *RecipientRepo) List(ctx context.Context, scope string) ([]domain.Recipient, error) {
	if scope != "" {
		return r.t.queryIndex(ctx, "scope-index", "scope", scope)
	}
	return r.t.scan(ctx, nil)
}

func (r *RecipientRepo) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}

func (r *RecipientRepo) Count(ctx context.Context) (int, error) {
	return r.t.count(ctx)
}
