package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
)

// UserRepo stores operator accounts. Deletes are soft: the row stays so audit
// entries keep resolving to a username.
type UserRepo struct {
	t table[domain.User]
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{t: table[domain.User]{
		client: client, name: tableName, key: "user_id", entity: "user",
	}}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	return r.t.putNew(ctx, u)
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.t.get(ctx, userID)
}

// GetByIDs resolves audit actors in one batch.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	return r.t.byIDs(ctx, ids)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.t.first(ctx, "username-index", "username", username)
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return r.t.update(ctx, userID, updates)
}

func (r *UserRepo) SoftDelete(ctx context.Context, userID string) error {
	return r.Update(ctx, userID, map[string]interface{}{fieldEnable: false})
}

// ScanPage returns up to limit enabled users after cursor.
func (r *UserRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	return r.t.scanPage(ctx, &dynamodb.ScanInput{
		FilterExpression:         aws.String("#e = :on"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEnable},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":on": &types.AttributeValueMemberBOOL{Value: true},
		},
	}, limit, cursor)
}
