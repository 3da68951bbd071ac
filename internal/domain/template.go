package domain

import "time"

// Template is a message body with {{field}} placeholders. ObjectType is the scope.
type Template struct {
	TemplateID     string    `json:"id" dynamodbav:"template_id"`
	Name           string    `json:"name" dynamodbav:"name"`
	ObjectType     string    `json:"objectType" dynamodbav:"object_type"`
	TemplateBody   string    `json:"templateBody" dynamodbav:"template_body"`
	TemplateFields []string  `json:"templateFields,omitempty" dynamodbav:"template_fields,omitempty"`
	CreatedBy      string    `json:"createdBy" dynamodbav:"created_by"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type TemplateInput struct {
	Name           string   `json:"name" validate:"required"`
	ObjectType     string   `json:"objectType" validate:"required"`
	TemplateBody   string   `json:"templateBody" validate:"required"`
	TemplateFields []string `json:"templateFields"`
}

type TemplateFilter struct {
	Scope  string
	Search string
	Page   int
}
