package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	Email        *string   `json:"email" dynamodbav:"email,omitempty"`
	DisplayName  *string   `json:"displayName" dynamodbav:"display_name"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Role         string    `json:"role" dynamodbav:"role"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Username    string  `json:"username" validate:"required,min=2"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"displayName"`
	Role        string  `json:"role" validate:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"displayName"`
	Role        *string `json:"role" validate:"omitempty,oneof=admin user"`
	NewPassword *string `json:"newPassword" validate:"omitempty,min=6,max=72"`
}
