package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/storage"
)

// ClassStore implements storage.ClassStore over PostgreSQL.
type ClassStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewClassStore creates a class store with a per-operation deadline.
func NewClassStore(db *sql.DB, timeout time.Duration) *ClassStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ClassStore{db: db, timeout: timeout}
}

func (s *ClassStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// inviteCodeLength is the total invite code length: two digits plus
// uppercase letters, shuffled.
const inviteCodeLength = 6

// generateInviteCode produces a random code of digits and uppercase letters
// with at least two digits.
func generateInviteCode() string {
	const digits = "0123456789"
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	code := make([]byte, 0, inviteCodeLength)
	for i := 0; i < 2; i++ {
		code = append(code, digits[rand.Intn(len(digits))])
	}
	for i := 2; i < inviteCodeLength; i++ {
		code = append(code, letters[rand.Intn(len(letters))])
	}
	rand.Shuffle(len(code), func(i, j int) {
		code[i], code[j] = code[j], code[i]
	})
	return string(code)
}

// CreateClass inserts a class with a generated UUID and invite code.
// Duplicate class names surface as AlreadyExists.
func (s *ClassStore) CreateClass(ctx context.Context, class storage.NewClass) (*storage.ClassRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rec := &storage.ClassRecord{
		ClassUUID:   uuid.NewString(),
		ClassName:   class.ClassName,
		Description: class.Description,
		TeacherUUID: class.TeacherUUID,
		InviteCode:  generateInviteCode(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classes (class_uuid, class_name, description, teacher_uuid, invite_code)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ClassUUID, rec.ClassName, rec.Description, rec.TeacherUUID, rec.InviteCode)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.KindAlreadyExists)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}

	return rec, nil
}

func (s *ClassStore) findClass(ctx context.Context, where string, arg interface{}) (*storage.ClassRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var rec storage.ClassRecord
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT class_uuid, class_name, description, teacher_uuid, invite_code
		FROM classes WHERE `+where+` = $1
	`, arg).Scan(&rec.ClassUUID, &rec.ClassName, &description, &rec.TeacherUUID, &rec.InviteCode)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}
	rec.Description = description.String
	return &rec, nil
}

// FindClassByUUID looks a class up by id.
func (s *ClassStore) FindClassByUUID(ctx context.Context, classUUID string) (*storage.ClassRecord, error) {
	return s.findClass(ctx, "class_uuid", classUUID)
}

// FindClassByInviteCode looks a class up by invite code.
func (s *ClassStore) FindClassByInviteCode(ctx context.Context, inviteCode string) (*storage.ClassRecord, error) {
	return s.findClass(ctx, "invite_code", inviteCode)
}

// AddMember records class membership. Duplicate membership surfaces as
// AlreadyExists.
func (s *ClassStore) AddMember(ctx context.Context, classUUID, userUUID, role string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO class_members (class_uuid, user_uuid, role, created_at)
		VALUES ($1, $2, $3, NOW())
	`, classUUID, userUUID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.KindAlreadyExists)
		}
		return apperrors.Wrap(apperrors.KindInternal, err)
	}
	return nil
}

// IsMember reports whether a user belongs to a class.
func (s *ClassStore) IsMember(ctx context.Context, classUUID, userUUID string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM class_members WHERE class_uuid = $1 AND user_uuid = $2
		)
	`, classUUID, userUUID).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindInternal, err)
	}
	return exists, nil
}

// CreateAssignment inserts an assignment for a class. Attachments are stored
// as a JSON array.
func (s *ClassStore) CreateAssignment(ctx context.Context, assignment storage.NewAssignment) (*storage.AssignmentRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	attachments, err := json.Marshal(assignment.Attachments)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}

	now := time.Now().UTC()
	rec := &storage.AssignmentRecord{
		UUID:                uuid.NewString(),
		ClassUUID:           assignment.ClassUUID,
		Title:               assignment.Title,
		Description:         assignment.Description,
		Content:             assignment.Content,
		Status:              assignment.Status,
		Deadline:            assignment.Deadline,
		MaxScore:            assignment.MaxScore,
		AllowLateSubmission: assignment.AllowLateSubmission,
		Attachments:         assignment.Attachments,
		CreatedBy:           assignment.CreatedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assignments (uuid, class_uuid, title, description, content, status,
			deadline, max_score, allow_late_submission, attachments, submission_count,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $12)
	`, rec.UUID, rec.ClassUUID, rec.Title, rec.Description, rec.Content, rec.Status,
		rec.Deadline, rec.MaxScore, rec.AllowLateSubmission, attachments, rec.CreatedBy, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.KindAlreadyExists)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}

	return rec, nil
}

// FindAssignment fetches an assignment scoped to its class.
func (s *ClassStore) FindAssignment(ctx context.Context, classUUID, assignmentUUID string) (*storage.AssignmentRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var rec storage.AssignmentRecord
	var attachments []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT uuid, class_uuid, title, description, content, status, deadline,
			max_score, allow_late_submission, attachments, submission_count,
			created_by, created_at, updated_at
		FROM assignments WHERE uuid = $1 AND class_uuid = $2
	`, assignmentUUID, classUUID).Scan(&rec.UUID, &rec.ClassUUID, &rec.Title,
		&rec.Description, &rec.Content, &rec.Status, &rec.Deadline, &rec.MaxScore,
		&rec.AllowLateSubmission, &attachments, &rec.SubmissionCount,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}

	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &rec.Attachments); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err)
		}
	}
	return &rec, nil
}
