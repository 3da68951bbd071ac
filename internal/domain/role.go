package domain

// Dashboard roles. Only admins may approve, reject, manage users or change settings.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
