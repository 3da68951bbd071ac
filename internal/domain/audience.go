package domain

import "time"

// Audience is a named, mutable set of recipients sharing one scope.
type Audience struct {
	AudienceID  string    `json:"id" dynamodbav:"audience_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Scope       string    `json:"scope" dynamodbav:"scope"`
	MemberIDs   []string  `json:"recipientIds" dynamodbav:"member_ids"`
	MemberCount int       `json:"memberCount" dynamodbav:"-"`
	CreatedBy   string    `json:"createdBy" dynamodbav:"created_by"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type AudienceInput struct {
	Name         string   `json:"name" validate:"required"`
	Scope        string   `json:"scope" validate:"required"`
	RecipientIDs []string `json:"recipientIds"`
}

type AudienceFilter struct {
	Scope  string
	Search string
	Page   int
}
