package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/storage"
)

// memUserStore is an in-memory storage.UserStore for handler tests.
type memUserStore struct {
	mu     sync.Mutex
	byName map[string]*storage.UserRecord
	byUUID map[string]*storage.UserRecord
	err    error // if set, all operations fail with it
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byName: make(map[string]*storage.UserRecord),
		byUUID: make(map[string]*storage.UserRecord),
	}
}

func (s *memUserStore) add(rec *storage.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[rec.Username] = rec
	s.byUUID[rec.UUID] = rec
}

func (s *memUserStore) FindByUsername(ctx context.Context, username string) (*storage.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.byName[username]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	return rec, nil
}

func (s *memUserStore) FindByUUID(ctx context.Context, userUUID string) (*storage.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.byUUID[userUUID]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	return rec, nil
}

func (s *memUserStore) ReadRole(ctx context.Context, userUUID string) (string, error) {
	rec, err := s.FindByUUID(ctx, userUUID)
	if err != nil {
		return "", err
	}
	return rec.Role, nil
}

func (s *memUserStore) TouchLastLogin(ctx context.Context, userUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if rec, ok := s.byUUID[userUUID]; ok {
		rec.LastLogin = time.Now().UTC()
	}
	return nil
}

func (s *memUserStore) Insert(ctx context.Context, user storage.NewUser) (*storage.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if _, exists := s.byName[user.Username]; exists {
		return nil, apperrors.New(apperrors.KindAlreadyExists)
	}
	rec := &storage.UserRecord{
		UUID:         uuid.NewString(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Status:       "active",
		CreatedAt:    time.Now().UTC(),
		LastLogin:    time.Now().UTC(),
	}
	s.byName[rec.Username] = rec
	s.byUUID[rec.UUID] = rec
	return rec, nil
}

func (s *memUserStore) Delete(ctx context.Context, userUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	rec, ok := s.byUUID[userUUID]
	if !ok {
		return apperrors.New(apperrors.KindNotFound)
	}
	delete(s.byName, rec.Username)
	delete(s.byUUID, userUUID)
	return nil
}

// memClassStore is an in-memory storage.ClassStore for handler tests.
type memClassStore struct {
	mu          sync.Mutex
	byUUID      map[string]*storage.ClassRecord
	byInvite    map[string]*storage.ClassRecord
	members     map[string]map[string]string // class uuid -> user uuid -> role
	assignments map[string]*storage.AssignmentRecord
}

func newMemClassStore() *memClassStore {
	return &memClassStore{
		byUUID:      make(map[string]*storage.ClassRecord),
		byInvite:    make(map[string]*storage.ClassRecord),
		members:     make(map[string]map[string]string),
		assignments: make(map[string]*storage.AssignmentRecord),
	}
}

func (s *memClassStore) CreateClass(ctx context.Context, class storage.NewClass) (*storage.ClassRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byUUID {
		if existing.ClassName == class.ClassName {
			return nil, apperrors.New(apperrors.KindAlreadyExists)
		}
	}
	rec := &storage.ClassRecord{
		ClassUUID:   uuid.NewString(),
		ClassName:   class.ClassName,
		Description: class.Description,
		TeacherUUID: class.TeacherUUID,
		InviteCode:  "12ABCD",
	}
	s.byUUID[rec.ClassUUID] = rec
	s.byInvite[rec.InviteCode] = rec
	return rec, nil
}

func (s *memClassStore) FindClassByUUID(ctx context.Context, classUUID string) (*storage.ClassRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byUUID[classUUID]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	return rec, nil
}

func (s *memClassStore) FindClassByInviteCode(ctx context.Context, inviteCode string) (*storage.ClassRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byInvite[inviteCode]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	return rec, nil
}

func (s *memClassStore) AddMember(ctx context.Context, classUUID, userUUID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[classUUID] == nil {
		s.members[classUUID] = make(map[string]string)
	}
	if _, exists := s.members[classUUID][userUUID]; exists {
		return apperrors.New(apperrors.KindAlreadyExists)
	}
	s.members[classUUID][userUUID] = role
	return nil
}

func (s *memClassStore) IsMember(ctx context.Context, classUUID, userUUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[classUUID][userUUID]
	return ok, nil
}

func (s *memClassStore) CreateAssignment(ctx context.Context, assignment storage.NewAssignment) (*storage.AssignmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	s.assignments[rec.UUID] = rec
	return rec, nil
}

func (s *memClassStore) FindAssignment(ctx context.Context, classUUID, assignmentUUID string) (*storage.AssignmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.assignments[assignmentUUID]
	if !ok || rec.ClassUUID != classUUID {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	return rec, nil
}
