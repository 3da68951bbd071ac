package domain

import (
	"strings"
	"time"
)

const (
	MessageTypeSMS      = "sms"
	MessageTypeWhatsApp = "whatsapp"
)

// Lifecycle statuses. Processing is held only while a dispatch is in flight.
const (
	StatusAwaitingApproval = "awaiting_approval"
	StatusPending          = "pending"
	StatusProcessing       = "processing"
	StatusSent             = "sent"
	StatusFailed           = "failed"
	StatusRejected         = "rejected"
	StatusCancelled        = "cancelled"
)

func ValidMessageType(t string) bool {
	return t == MessageTypeSMS || t == MessageTypeWhatsApp
}

// Snapshot is the audience membership captured when the notification was created.
type Snapshot struct {
	AudienceID   string   `json:"audienceId" dynamodbav:"audience_id"`
	RecipientIDs []string `json:"recipientIds" dynamodbav:"recipient_ids"`
}

// Usable reports whether the snapshot still identifies something to dispatch to.
func (s *Snapshot) Usable() bool {
	return s != nil && s.AudienceID != "" && len(s.RecipientIDs) > 0
}

// Delivery holds the fields shared by immediate and scheduled notifications.
type Delivery struct {
	Title             string     `json:"title" dynamodbav:"title"`
	ObjectType        string     `json:"objectType" dynamodbav:"object_type"`
	TemplateID        string     `json:"templateId" dynamodbav:"template_id"`
	MessageType       string     `json:"messageType" dynamodbav:"message_type"`
	RecipientCount    int        `json:"recipientCount" dynamodbav:"recipient_count"`
	SentCount         int        `json:"sentCount" dynamodbav:"sent_count"`
	Status            string     `json:"status" dynamodbav:"status"`
	Metadata          *Snapshot  `json:"metadata" dynamodbav:"metadata"`
	ServiceProviderID *string    `json:"serviceProviderId" dynamodbav:"service_provider_id"`
	ApprovedBy        *string    `json:"approvedBy" dynamodbav:"approved_by"`
	RejectedBy        *string    `json:"rejectedBy" dynamodbav:"rejected_by"`
	RejectionReason   *string    `json:"rejectionReason" dynamodbav:"rejection_reason"`
	CreatedBy         string     `json:"createdBy" dynamodbav:"created_by"`
	CreatedAt         time.Time  `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" dynamodbav:"updated_at"`
	SentAt            *time.Time `json:"sentAt" dynamodbav:"sent_at"`
}

// Notification is sent immediately or after approval.
type Notification struct {
	NotificationID string `json:"id" dynamodbav:"notification_id"`
	Delivery
}

// ScheduledNotification waits for ScheduledAt before the sweep dispatches it.
type ScheduledNotification struct {
	ScheduledID string     `json:"id" dynamodbav:"scheduled_id"`
	ScheduledAt time.Time  `json:"scheduledAt" dynamodbav:"scheduled_at"`
	DueAt       int64      `json:"-" dynamodbav:"due_at"` // ScheduledAt in unix millis, sortable
	ClaimedBy   string     `json:"-" dynamodbav:"claimed_by,omitempty"`
	ClaimedAt   *time.Time `json:"claimedAt,omitempty" dynamodbav:"claimed_at,omitempty"`
	Delivery
}

// CreateNotificationRequest is shared by the send-now and scheduling forms.
type CreateNotificationRequest struct {
	Title       string     `json:"title"`
	AudienceID  string     `json:"audienceId"`
	TemplateID  string     `json:"templateId"`
	MessageType string     `json:"messageType"`
	Schedule    bool       `json:"schedule"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// Normalize trims the free-text fields and lower-cases the message type.
func (r *CreateNotificationRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.AudienceID = strings.TrimSpace(r.AudienceID)
	r.TemplateID = strings.TrimSpace(r.TemplateID)
	r.MessageType = strings.ToLower(strings.TrimSpace(r.MessageType))
}

type NotificationFilter struct {
	Status      string
	MessageType string
	From        *time.Time
	To          *time.Time
	Page        int
}

// ScheduledAction is the body of POST/PATCH on a scheduled notification.
type ScheduledAction struct {
	Action string  `json:"action"`
	Reason *string `json:"reason"`
}

const (
	ActionCancel  = "cancel"
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type RejectRequest struct {
	Reason *string `json:"reason"`
}
