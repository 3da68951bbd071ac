package dynamo

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
)

// ScheduledRepo provides typed DynamoDB operations for the scheduled_notifications table.
type ScheduledRepo struct {
	t table[domain.ScheduledNotification]
}

func NewScheduledRepo(client *dynamodb.Client, tableName string) *ScheduledRepo {
	return &ScheduledRepo{t: table[domain.ScheduledNotification]{
		client: client, name: tableName, key: "scheduled_id", entity: "scheduled notification",
	}}
}

// Create stores s, deriving due_at from ScheduledAt.
func (r *ScheduledRepo) Create(ctx context.Context, s *domain.ScheduledNotification) error {
	s.DueAt = s.ScheduledAt.UnixMilli()
	return r.t.putNew(ctx, s)
}

func (r *ScheduledRepo) Get(ctx context.Context, id string) (*domain.ScheduledNotification, error) {
	return r.t.get(ctx, id)
}

func (r *ScheduledRepo) Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error {
	return r.t.transition(ctx, id, from, deliveryUpdates(d))
}

// Claim moves a pending item to processing on behalf of worker. Only one
// caller can win; the others get domain.ErrClaimLost.
func (r *ScheduledRepo) Claim(ctx context.Context, id, worker string, now time.Time) error {
	return r.t.transition(ctx, id, []string{domain.StatusPending}, map[string]interface{}{
		fieldStatus:    domain.StatusProcessing,
		fieldClaimedBy: worker,
		fieldClaimedAt: now.UTC(),
	})
}

// QueryDue returns pending items with due_at <= now, oldest first.
func (r *ScheduledRepo) QueryDue(ctx context.Context, now time.Time) ([]domain.ScheduledNotification, error) {
	var out []domain.ScheduledNotification
	err := queryAll(ctx, r.t.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.t.name),
		IndexName:                aws.String("status-due_at-index"),
		KeyConditionExpression:   aws.String("#status = :pending AND due_at <= :now"),
		ExpressionAttributeNames: map[string]string{"#status": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPending},
			":now":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
		ScanIndexForward: aws.Bool(true),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns scheduled notifications ordered by scheduledAt, optionally by status.
func (r *ScheduledRepo) List(ctx context.Context, status string) ([]domain.ScheduledNotification, error) {
	var items []domain.ScheduledNotification
	if status != "" {
		err := queryAll(ctx, r.t.client, &dynamodb.QueryInput{
			TableName:                aws.String(r.t.name),
			IndexName:                aws.String("status-due_at-index"),
			KeyConditionExpression:   aws.String("#status = :status"),
			ExpressionAttributeNames: map[string]string{"#status": fieldStatus},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: status},
			},
		}, &items)
		if err != nil {
			return nil, err
		}
		return items, nil
	}
	items, err := r.t.scan(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DueAt < items[j].DueAt })
	return items, nil
}

func (r *ScheduledRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.t.client, r.t.name)
}
