package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
)

const refreshDigestIndex = "refresh_digest-index"

// SessionRepo stores login sessions. Refresh tokens are kept as digests and
// refresh_expires_at doubles as the table's TTL attribute.
type SessionRepo struct {
	t table[domain.Session]
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{t: table[domain.Session]{
		client: client, name: tableName, key: "session_id", entity: "session",
	}}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	return r.t.putNew(ctx, s)
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return r.t.get(ctx, sessionID)
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.t.queryIndex(ctx, "user_id-index", "user_id", userID)
}

func (r *SessionRepo) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return r.t.update(ctx, sessionID, updates)
}

// DisableByUser signs a user out everywhere. Used when the account is
// deleted or disabled; it keeps going past failures and returns the first.
func (r *SessionRepo) DisableByUser(ctx context.Context, userID string) error {
	sessions, err := r.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	var firstErr error
	for _, s := range sessions {
		if !s.Enable {
			continue
		}
		if err := r.Update(ctx, s.SessionID, map[string]interface{}{fieldEnable: false}); err != nil {
			slog.Warn("could not disable session", "session_id", s.SessionID, "user_id", userID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// GetByRefreshDigest finds the session holding a refresh token digest.
// A disabled session reports ErrUnauthorized.
func (r *SessionRepo) GetByRefreshDigest(ctx context.Context, digest string) (*domain.Session, error) {
	s, err := r.t.first(ctx, refreshDigestIndex, fieldRefreshDigest, digest)
	if err != nil {
		return nil, err
	}
	if !s.Enable {
		return nil, fmt.Errorf("session %s disabled: %w", s.SessionID, domain.ErrUnauthorized)
	}
	return s, nil
}

// RotateRefreshDigest swaps oldDigest for newDigest on an enabled session.
// Presenting the same refresh token twice loses the race on the second call
// and gets domain.ErrClaimLost.
func (r *SessionRepo) RotateRefreshDigest(ctx context.Context, sessionID, oldDigest, newDigest string, expiresAt int64) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldRefreshDigest:    newDigest,
		fieldRefreshExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}
	ue.Names["#old"] = fieldRefreshDigest
	ue.Names["#en"] = fieldEnable
	ue.Values[":old"] = &types.AttributeValueMemberS{Value: oldDigest}
	ue.Values[":on"] = &types.AttributeValueMemberBOOL{Value: true}
	_, err = r.t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.t.name),
		Key:                       strKey(r.t.key, sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#old = :old AND #en = :on"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("rotate session %s: %w", sessionID, domain.ErrClaimLost)
	}
	return err
}
