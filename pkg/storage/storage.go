// Package storage defines the persistence contracts the core depends on.
// Implementations live in subpackages; the core speaks only these interfaces
// and record types.
package storage

import (
	"context"
	"time"
)

// UserRecord is the persistence-layer user row. PasswordHash never leaves
// the server boundary; the API surface uses auth.User instead.
type UserRecord struct {
	UUID         string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	LastLogin    time.Time
}

// NewUser carries the fields needed to insert a user.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// UserStore is the narrow contract the auth core consumes from the
// persistence layer. Implementations return *apperrors.Error values:
// NotFound for misses, AlreadyExists for unique violations, Internal for
// store unavailability.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByUUID(ctx context.Context, uuid string) (*UserRecord, error)
	ReadRole(ctx context.Context, uuid string) (string, error)
	TouchLastLogin(ctx context.Context, uuid string) error
	Insert(ctx context.Context, user NewUser) (*UserRecord, error)
	Delete(ctx context.Context, uuid string) error
}

// ClassRecord is the persistence-layer class row.
type ClassRecord struct {
	ClassUUID   string
	ClassName   string
	Description string
	TeacherUUID string
	InviteCode  string
}

// NewClass carries the fields needed to create a class.
type NewClass struct {
	ClassName   string
	Description string
	TeacherUUID string
}

// AssignmentRecord is the persistence-layer assignment row.
type AssignmentRecord struct {
	UUID                string
	ClassUUID           string
	Title               string
	Description         string
	Content             string
	Status              string
	Deadline            time.Time
	MaxScore            int
	AllowLateSubmission bool
	Attachments         []string
	SubmissionCount     int
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewAssignment carries the fields needed to create an assignment.
type NewAssignment struct {
	ClassUUID           string
	Title               string
	Description         string
	Content             string
	Status              string
	Deadline            time.Time
	MaxScore            int
	AllowLateSubmission bool
	Attachments         []string
	CreatedBy           string
}

// ClassStore is the contract for class and assignment persistence.
type ClassStore interface {
	CreateClass(ctx context.Context, class NewClass) (*ClassRecord, error)
	FindClassByUUID(ctx context.Context, classUUID string) (*ClassRecord, error)
	FindClassByInviteCode(ctx context.Context, inviteCode string) (*ClassRecord, error)
	AddMember(ctx context.Context, classUUID, userUUID, role string) error
	IsMember(ctx context.Context, classUUID, userUUID string) (bool, error)
	CreateAssignment(ctx context.Context, assignment NewAssignment) (*AssignmentRecord, error)
	FindAssignment(ctx context.Context, classUUID, assignmentUUID string) (*AssignmentRecord, error)
}
