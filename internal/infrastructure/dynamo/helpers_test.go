package dynamo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SortedPlaceholders(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:    "sent",
		fieldSentCount: 3,
		fieldClaimedBy: "worker-a",
	})
	require.NoError(t, err)

	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": fieldClaimedBy, "#f1": fieldSentCount, "#f2": fieldStatus}, ue.Names)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "worker-a"}, ue.Values[":v0"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, ue.Values[":v1"])
}

func TestBuildUpdateExpr_NilPointerClearsToNull(t *testing.T) {
	var reason *string
	ue, err := buildUpdateExpr(map[string]interface{}{fieldRejectionReason: reason, fieldEnable: false})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, ue.Values[":v0"])
	assert.Equal(t, &types.AttributeValueMemberNULL{Value: true}, ue.Values[":v1"])
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestStatusCondition_AddsPlaceholders(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"status": "cancelled"})
	require.NoError(t, err)

	cond := ue.statusCondition("pending", "awaiting_approval")
	assert.Equal(t, "#status IN (:from0, :from1)", cond)
	assert.Equal(t, "status", ue.Names["#status"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "pending"}, ue.Values[":from0"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "awaiting_approval"}, ue.Values[":from1"])
	// the SET part is untouched
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
}

func TestIsConditionFailed(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", &types.ConditionalCheckFailedException{})
	assert.True(t, isConditionFailed(wrapped))
	assert.False(t, isConditionFailed(errors.New("throttled")))
	assert.False(t, isConditionFailed(nil))
}

func TestCursor_RoundTrip(t *testing.T) {
	c := encodeCursor("01HZX")
	id, err := decodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", id)

	_, err = decodeCursor("%%%")
	assert.Error(t, err)
}

func TestDeliveryUpdates_CoversOutcomeFields(t *testing.T) {
	pid := "mock-1"
	u := deliveryUpdates(&domain.Delivery{Status: "sent", SentCount: 2, ServiceProviderID: &pid})
	assert.Equal(t, "sent", u[fieldStatus])
	assert.Equal(t, 2, u[fieldSentCount])
	assert.Equal(t, &pid, u[fieldProviderID])
	for _, k := range []string{fieldSentAt, fieldApprovedBy, fieldRejectedBy, fieldRejectionReason} {
		assert.Contains(t, u, k)
	}
}
