package domain

import "time"

// SettingsID is the partition key of the singleton settings item.
const SettingsID = "system"

// ScopeMapping names the recipient fields used for {{name}} and {{phone}} in one scope.
type ScopeMapping struct {
	Phone string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Name  string `json:"name,omitempty" dynamodbav:"name,omitempty"`
}

type Settings struct {
	SettingID       string                  `json:"-" dynamodbav:"setting_id"`
	ApprovalEnabled bool                    `json:"approvalEnabled" dynamodbav:"approval_enabled"`
	ScopeMappings   map[string]ScopeMapping `json:"scopeMappings" dynamodbav:"scope_mappings"`
	ObjectTypeIcons map[string]string       `json:"objectTypeIcons" dynamodbav:"object_type_icons"`
	UpdatedAt       time.Time               `json:"updatedAt" dynamodbav:"updated_at"`
}

// DefaultSettings is used until an admin saves settings for the first time.
func DefaultSettings() *Settings {
	return &Settings{
		SettingID:       SettingsID,
		ScopeMappings:   map[string]ScopeMapping{},
		ObjectTypeIcons: map[string]string{},
	}
}

type UpdateSettingsRequest struct {
	ApprovalEnabled *bool                   `json:"approvalEnabled"`
	ScopeMappings   map[string]ScopeMapping `json:"scopeMappings"`
	ObjectTypeIcons map[string]string       `json:"objectTypeIcons"`
}
