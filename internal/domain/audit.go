package domain

import "time"

const (
	AuditCreate  = "create"
	AuditUpdate  = "update"
	AuditDelete  = "delete"
	AuditSend    = "send"
	AuditApprove = "approve"
	AuditReject  = "reject"
)

const (
	EntityAudience              = "audience"
	EntityTemplate              = "template"
	EntityNotification          = "notification"
	EntityScheduledNotification = "scheduled_notification"
	EntityRecipient             = "recipient"
	EntityScope                 = "scope"
	EntityUser                  = "user"
	EntitySettings              = "settings"
)

// AuditEntry is append-only.
type AuditEntry struct {
	AuditID    string                 `json:"id" dynamodbav:"audit_id"`
	UserID     *string                `json:"userId" dynamodbav:"user_id"`
	Username   *string                `json:"username" dynamodbav:"-"`
	Action     string                 `json:"action" dynamodbav:"action"`
	EntityType string                 `json:"entityType" dynamodbav:"entity_type"`
	EntityID   *string                `json:"entityId" dynamodbav:"entity_id"`
	Details    map[string]interface{} `json:"details" dynamodbav:"details,omitempty"`
	CreatedAt  time.Time              `json:"createdAt" dynamodbav:"created_at"`
}
