package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
)

// table holds the operations every repo shares for a table keyed by one string attribute.
type table[T any] struct {
	client *dynamodb.Client
	name   string
	key    string
	entity string
}

func (t table[T]) put(ctx context.Context, v *T) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", t.entity, err)
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	return err
}

// putNew writes v only when no item with the same key exists.
func (t table[T]) putNew(ctx context.Context, v *T) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", t.entity, err)
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": t.key},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%s already exists: %w", t.entity, domain.ErrConflict)
	}
	return err
}

func (t table[T]) get(ctx context.Context, id string) (*T, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       strKey(t.key, id),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("%s not found: %w", t.entity, domain.ErrNotFound)
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (t table[T]) delete(ctx context.Context, id string) error {
	_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       strKey(t.key, id),
	})
	return err
}

func (t table[T]) scan(ctx context.Context, input *dynamodb.ScanInput) ([]T, error) {
	if input == nil {
		input = &dynamodb.ScanInput{}
	}
	input.TableName = aws.String(t.name)
	var out []T
	if err := scanAll(ctx, t.client, input, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ping checks the table is reachable and ACTIVE.
func (t table[T]) ping(ctx context.Context) error {
	out, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)})
	if err != nil {
		return err
	}
	if out.Table.TableStatus != types.TableStatusActive {
		return fmt.Errorf("table %s is %s", t.name, out.Table.TableStatus)
	}
	return nil
}

func (t table[T]) count(ctx context.Context) (int, error) {
	return countAll(ctx, t.client, &dynamodb.ScanInput{TableName: aws.String(t.name)})
}

// queryIndex returns every item whose attr equals value on a hash-only GSI.
func (t table[T]) queryIndex(ctx context.Context, index, attr, value string) ([]T, error) {
	var out []T
	err := queryAll(ctx, t.client, &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// first returns the single item holding value on a unique-by-convention GSI.
func (t table[T]) first(ctx context.Context, index, attr, value string) (*T, error) {
	items, err := t.queryIndex(ctx, index, attr, value)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s with %s %q: %w", t.entity, attr, value, domain.ErrNotFound)
	}
	return &items[0], nil
}

// scanPage reads one page of a filtered scan. The cursor is the last key of
// the previous page, base64url encoded; an empty next cursor means done.
// DynamoDB applies Limit before the filter, so a page may come back short.
func (t table[T]) scanPage(ctx context.Context, in *dynamodb.ScanInput, limit int32, cursor string) ([]T, string, error) {
	in.TableName = aws.String(t.name)
	in.Limit = aws.Int32(limit)
	if cursor != "" {
		id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", domain.Validation("Invalid cursor.")
		}
		in.ExclusiveStartKey = strKey(t.key, id)
	}
	out, err := t.client.Scan(ctx, in)
	if err != nil {
		return nil, "", err
	}
	var items []T
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, "", err
	}
	next := ""
	if v, ok := out.LastEvaluatedKey[t.key].(*types.AttributeValueMemberS); ok {
		next = encodeCursor(v.Value)
	}
	return items, next, nil
}

func (t table[T]) byIDs(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := batchGet(ctx, t.client, t.name, t.key, ids)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t table[T]) update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.name),
		Key:                       strKey(t.key, id),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// transition applies updates only while the item's status is one of from.
// A failed condition is reported as domain.ErrClaimLost.
func (t table[T]) transition(ctx context.Context, id string, from []string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	cond := ue.statusCondition(from...)
	_, err = t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.name),
		Key:                       strKey(t.key, id),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%s %s: %w", t.entity, id, domain.ErrClaimLost)
	}
	return err
}
