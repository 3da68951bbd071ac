package dynamo

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	t table[domain.Notification]
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{t: table[domain.Notification]{
		client: client, name: tableName, key: "notification_id", entity: "notification",
	}}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return r.t.putNew(ctx, n)
}

func (r *NotificationRepo) Get(ctx context.Context, id string) (*domain.Notification, error) {
	return r.t.get(ctx, id)
}

// Transition writes the status and outcome fields of d while the stored status
// is one of from. Returns domain.ErrClaimLost otherwise.
func (r *NotificationRepo) Transition(ctx context.Context, id string, from []string, d *domain.Delivery) error {
	return r.t.transition(ctx, id, from, deliveryUpdates(d))
}

// List returns matching notifications, newest first. A status filter is served
// from status-created_at-index; everything else is a filtered scan.
func (r *NotificationRepo) List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, error) {
	var items []domain.Notification
	if f.Status != "" {
		in := &dynamodb.QueryInput{
			TableName:                aws.String(r.t.name),
			IndexName:                aws.String("status-created_at-index"),
			KeyConditionExpression:   aws.String("#status = :status"),
			ExpressionAttributeNames: map[string]string{"#status": fieldStatus},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: f.Status},
			},
			ScanIndexForward: aws.Bool(false),
		}
		if f.MessageType != "" {
			in.FilterExpression = aws.String("#mt = :mt")
			in.ExpressionAttributeNames["#mt"] = "message_type"
			in.ExpressionAttributeValues[":mt"] = &types.AttributeValueMemberS{Value: f.MessageType}
		}
		if err := queryAll(ctx, r.t.client, in, &items); err != nil {
			return nil, err
		}
	} else {
		in := &dynamodb.ScanInput{}
		if f.MessageType != "" {
			in.FilterExpression = aws.String("#mt = :mt")
			in.ExpressionAttributeNames = map[string]string{"#mt": "message_type"}
			in.ExpressionAttributeValues = map[string]types.AttributeValue{
				":mt": &types.AttributeValueMemberS{Value: f.MessageType},
			}
		}
		var err error
		if items, err = r.t.scan(ctx, in); err != nil {
			return nil, err
		}
	}

	out := items[:0]
	for _, n := range items {
		if f.From != nil && n.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && n.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountByStatus counts notifications per status with a projected scan.
func (r *NotificationRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.t.client, r.t.name)
}

func countByStatus(ctx context.Context, client *dynamodb.Client, name string) (map[string]int, error) {
	var rows []struct {
		Status string `dynamodbav:"status"`
	}
	err := scanAll(ctx, client, &dynamodb.ScanInput{
		TableName:                aws.String(name),
		ProjectionExpression:     aws.String("#status"),
		ExpressionAttributeNames: map[string]string{"#status": fieldStatus},
	}, &rows)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Status]++
	}
	return counts, nil
}

func deliveryUpdates(d *domain.Delivery) map[string]interface{} {
	return map[string]interface{}{
		fieldStatus:          d.Status,
		fieldSentCount:       d.SentCount,
		fieldProviderID:      d.ServiceProviderID,
		fieldSentAt:          d.SentAt,
		fieldApprovedBy:      d.ApprovedBy,
		fieldRejectedBy:      d.RejectedBy,
		fieldRejectionReason: d.RejectionReason,
	}
}
