package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Recipient is a message target. (phone, scope) is unique.
type Recipient struct {
	RecipientID string                 `json:"id" dynamodbav:"recipient_id"`
	Name        string                 `json:"name" dynamodbav:"name"`
	Phone       string                 `json:"phone" dynamodbav:"phone"`
	Email       *string                `json:"email" dynamodbav:"email"`
	Scope       string                 `json:"scope" dynamodbav:"scope"`
	PhoneScope  string                 `json:"-" dynamodbav:"phone_scope"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt   time.Time              `json:"updatedAt" dynamodbav:"updated_at"`
}

// PhoneScopeKey is the value stored in phone_scope for uniqueness lookups.
func PhoneScopeKey(phone, scope string) string {
	return phone + "#" + scope
}

// Fields flattens the recipient into the string values exposed to templates.
// Core fields win over metadata entries with the same key; metadata values that
// are objects or arrays are skipped.
func (r *Recipient) Fields() map[string]string {
	out := make(map[string]string, len(r.Metadata)+5)
	for k, v := range r.Metadata {
		if s, ok := scalarString(v); ok {
			out[k] = s
		}
	}
	out["id"] = r.RecipientID
	out["name"] = r.Name
	out["phone"] = r.Phone
	out["scope"] = r.Scope
	out["email"] = ""
	if r.Email != nil {
		out["email"] = *r.Email
	}
	return out
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

type RecipientInput struct {
	Name     string                 `json:"name" validate:"required"`
	Phone    string                 `json:"phone" validate:"required,phone"`
	Email    *string                `json:"email" validate:"omitempty,email"`
	Scope    string                 `json:"scope" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type RecipientFilter struct {
	Scope  string
	Search string
	Page   int
	Limit  int
}
