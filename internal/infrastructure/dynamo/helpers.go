package dynamo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
// Fields are numbered in sorted key order so the expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (updateExpr, error) {
	if len(updates) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := updateExpr{
		Expr:   "SET ",
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += nameKey + " = " + valueKey
	}
	return ue, nil
}

// statusCondition adds "#status IN (...)" to ue and returns the condition expression.
func (ue *updateExpr) statusCondition(from ...string) string {
	ue.Names["#status"] = fieldStatus
	cond := "#status IN ("
	for i, s := range from {
		k := fmt.Sprintf(":from%d", i)
		ue.Values[k] = &types.AttributeValueMemberS{Value: s}
		if i > 0 {
			cond += ", "
		}
		cond += k
	}
	return cond + ")"
}

// isConditionFailed reports whether err is a failed conditional write.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// scanAll pages through the whole table (or index) and unmarshals into out.
func scanAll(ctx context.Context, client *dynamodb.Client, input *dynamodb.ScanInput, out interface{}) error {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

// queryAll pages through a query and unmarshals into out.
func queryAll(ctx context.Context, client *dynamodb.Client, input *dynamodb.QueryInput, out interface{}) error {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewQueryPaginator(client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

// countAll counts the items matching input without fetching them.
func countAll(ctx context.Context, client *dynamodb.Client, input *dynamodb.ScanInput) (int, error) {
	input.Select = types.SelectCount
	total := 0
	p := dynamodb.NewScanPaginator(client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(page.Count)
	}
	return total, nil
}

// batchGet fetches items by a single string key in chunks of 100, the BatchGetItem limit.
// Missing keys are simply absent from the result; order is not preserved.
func batchGet(ctx context.Context, client *dynamodb.Client, table, keyName string, ids []string) ([]map[string]types.AttributeValue, error) {
	const chunk = 100
	var items []map[string]types.AttributeValue
	for start := 0; start < len(ids); start += chunk {
		end := start + chunk
		if end > len(ids) {
			end = len(ids)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		seen := make(map[string]bool, end-start)
		for _, id := range ids[start:end] {
			if seen[id] {
				continue
			}
			seen[id] = true
			keys = append(keys, strKey(keyName, id))
		}
		req := map[string]types.KeysAndAttributes{table: {Keys: keys}}
		for len(req) > 0 {
			out, err := client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: req})
			if err != nil {
				return nil, err
			}
			items = append(items, out.Responses[table]...)
			req = out.UnprocessedKeys
		}
	}
	return items, nil
}

func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
