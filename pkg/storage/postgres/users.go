package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/storage"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// UserStore implements storage.UserStore over PostgreSQL.
type UserStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewUserStore creates a user store with a per-operation deadline.
func NewUserStore(db *sql.DB, timeout time.Duration) *UserStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &UserStore{db: db, timeout: timeout}
}

func (s *UserStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

const userColumns = `uuid, username, email, password_hash, role, status, created_at, last_login`

func scanUser(row *sql.Row) (*storage.UserRecord, error) {
	var rec storage.UserRecord
	var lastLogin sql.NullTime
	err := row.Scan(&rec.UUID, &rec.Username, &rec.Email, &rec.PasswordHash,
		&rec.Role, &rec.Status, &rec.CreatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}
	if lastLogin.Valid {
		rec.LastLogin = lastLogin.Time
	}
	return &rec, nil
}

// FindByUsername looks a user up by exact username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*storage.UserRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username)
	return scanUser(row)
}

// FindByUUID looks a user up by id.
func (s *UserStore) FindByUUID(ctx context.Context, userUUID string) (*storage.UserRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE uuid = $1
	`, userUUID)
	return scanUser(row)
}

// ReadRole reads only the role column for a user.
func (s *UserStore) ReadRole(ctx context.Context, userUUID string) (string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT role FROM users WHERE uuid = $1
	`, userUUID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", apperrors.New(apperrors.KindNotFound)
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err)
	}
	return role, nil
}

// TouchLastLogin sets last_login to now. Concurrent logins race here; the
// database serializes them and the later write wins.
func (s *UserStore) TouchLastLogin(ctx context.Context, userUUID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_login = NOW() WHERE uuid = $1
	`, userUUID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err)
	}
	return nil
}

// Insert creates a user with a fresh UUID. Username or email collisions
// surface as AlreadyExists.
func (s *UserStore) Insert(ctx context.Context, user storage.NewUser) (*storage.UserRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	userUUID := uuid.NewString()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (uuid, username, email, password_hash, role, status, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, 'active', NOW(), NOW())
		RETURNING `+userColumns+`
	`, userUUID, user.Username, user.Email, user.PasswordHash, user.Role)

	rec, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.KindAlreadyExists)
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes a user by id.
func (s *UserStore) Delete(ctx context.Context, userUUID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE uuid = $1`, userUUID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.KindNotFound)
	}
	return nil
}

// isUniqueViolation unwraps the driver error behind an application error and
// checks for the unique constraint code.
func isUniqueViolation(err error) bool {
	appErr := apperrors.FromError(err)
	if pqErr, ok := appErr.Err.(*pq.Error); ok {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
