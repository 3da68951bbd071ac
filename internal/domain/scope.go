package domain

import "time"

type Scope struct {
	ScopeID     string    `json:"id" dynamodbav:"scope_id"`
	Code        string    `json:"code" dynamodbav:"code"`
	DisplayName string    `json:"displayName" dynamodbav:"display_name"`
	Icon        *string   `json:"icon" dynamodbav:"icon"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
}

type ScopeInput struct {
	Code        string  `json:"code" validate:"required,code"`
	DisplayName string  `json:"displayName" validate:"required"`
	Icon        *string `json:"icon"`
}
