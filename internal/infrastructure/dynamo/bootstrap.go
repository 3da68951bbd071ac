package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/config"
)

const tableActiveWait = 2 * time.Minute

// tableSpec describes one table keyed by a single string attribute.
type tableSpec struct {
	name    string
	key     string
	attrs   []types.AttributeDefinition
	indexes []types.GlobalSecondaryIndex
	ttlAttr string
}

func tableSpecs(t config.DynamoTables) []tableSpec {
	return []tableSpec{
		{name: t.Users, key: "user_id",
			attrs:   []types.AttributeDefinition{strAttr("username")},
			indexes: []types.GlobalSecondaryIndex{gsi("username-index", "username", "")}},
		{name: t.Sessions, key: "session_id",
			attrs: []types.AttributeDefinition{strAttr("user_id"), strAttr(fieldRefreshDigest)},
			indexes: []types.GlobalSecondaryIndex{
				gsi("user_id-index", "user_id", ""),
				gsi(refreshDigestIndex, fieldRefreshDigest, ""),
			},
			ttlAttr: fieldRefreshExpiresAt},
		{name: t.Scopes, key: "scope_id",
			attrs:   []types.AttributeDefinition{strAttr("code")},
			indexes: []types.GlobalSecondaryIndex{gsi("code-index", "code", "")}},
		{name: t.Recipients, key: "recipient_id",
			attrs: []types.AttributeDefinition{strAttr("scope"), strAttr("phone_scope")},
			indexes: []types.GlobalSecondaryIndex{
				gsi("scope-index", "scope", ""),
				gsi("phone_scope-index", "phone_scope", ""),
			}},
		{name: t.Audiences, key: "audience_id",
			attrs:   []types.AttributeDefinition{strAttr("scope")},
			indexes: []types.GlobalSecondaryIndex{gsi("scope-index", "scope", "")}},
		{name: t.Templates, key: "template_id",
			attrs:   []types.AttributeDefinition{strAttr("object_type")},
			indexes: []types.GlobalSecondaryIndex{gsi("object_type-index", "object_type", "")}},
		{name: t.Notifications, key: "notification_id",
			attrs:   []types.AttributeDefinition{strAttr(fieldStatus), strAttr("created_at")},
			indexes: []types.GlobalSecondaryIndex{gsi("status-created_at-index", fieldStatus, "created_at")}},
		{name: t.ScheduledNotifications, key: "scheduled_id",
			attrs: []types.AttributeDefinition{
				strAttr(fieldStatus),
				{AttributeName: aws.String("due_at"), AttributeType: types.ScalarAttributeTypeN},
			},
			indexes: []types.GlobalSecondaryIndex{gsi("status-due_at-index", fieldStatus, "due_at")}},
		{name: t.Settings, key: "setting_id"},
		{name: t.AuditLog, key: "audit_id"},
	}
}

func (s tableSpec) createInput() *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName:            aws.String(s.name),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: append([]types.AttributeDefinition{strAttr(s.key)}, s.attrs...),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(s.key), KeyType: types.KeyTypeHash},
		},
	}
	if len(s.indexes) > 0 {
		in.GlobalSecondaryIndexes = s.indexes
	}
	return in
}

// Bootstrap creates missing tables and turns on session expiry. It runs on
// every start; tables that already exist are left alone. Only a failure to
// reach DynamoDB at all is returned.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) error {
	for _, spec := range tableSpecs(tables) {
		created, err := createTable(ctx, client, spec.createInput())
		if err != nil {
			return err
		}
		if spec.ttlAttr == "" || !created {
			continue
		}
		if err := dynamodb.NewTableExistsWaiter(client).Wait(ctx,
			&dynamodb.DescribeTableInput{TableName: aws.String(spec.name)}, tableActiveWait); err != nil {
			slog.Warn("table not active, TTL left off", "table", spec.name, "err", err)
			continue
		}
		_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
			TableName: aws.String(spec.name),
			TimeToLiveSpecification: &types.TimeToLiveSpecification{
				AttributeName: aws.String(spec.ttlAttr),
				Enabled:       aws.Bool(true),
			},
		})
		if err != nil {
			slog.Warn("could not enable TTL", "table", spec.name, "attr", spec.ttlAttr, "err", err)
		}
	}
	return nil
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

// gsi builds an all-attributes index; sortKey may be empty.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

// createTable reports whether the table was created by this call. An existing
// table is not an error; a transport or auth failure is.
func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) (bool, error) {
	_, err := client.CreateTable(ctx, input)
	var inUse *types.ResourceInUseException
	switch {
	case err == nil:
		slog.Info("created table", "table", aws.ToString(input.TableName))
		return true, nil
	case errors.As(err, &inUse):
		return false, nil
	default:
		return false, fmt.Errorf("create table %s: %w", aws.ToString(input.TableName), err)
	}
}
