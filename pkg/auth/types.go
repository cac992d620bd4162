// Package auth implements the authentication core: password hashing, the
// dual-token codec, the role cache, and the session service.
package auth

import (
	"time"

	"github.com/edupilot/edupilot/pkg/storage"
)

// Role values. admin and teacher are privileged.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleUser    = "user"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleUser:
		return true
	}
	return false
}

// Account status values. Only active accounts may authenticate.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User is the API-surface user record. It never carries the password hash.
type User struct {
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	LastLogin string `json:"last_login"`
}

// UserFromRecord sanitizes a persistence record into the API-surface type.
func UserFromRecord(rec *storage.UserRecord) User {
	return User{
		UUID:      rec.UUID,
		Username:  rec.Username,
		Email:     rec.Email,
		Role:      rec.Role,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		LastLogin: rec.LastLogin.UTC().Format(time.RFC3339),
	}
}
