package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/auth"
	"github.com/edupilot/edupilot/pkg/observability"
	"github.com/edupilot/edupilot/pkg/storage"
)

type stubUserStore struct {
	byUUID map[string]*storage.UserRecord
}

func (s *stubUserStore) FindByUsername(ctx context.Context, username string) (*storage.UserRecord, error) {
	for _, u := range s.byUUID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound)
}

func (s *stubUserStore) FindByUUID(ctx context.Context, uuid string) (*storage.UserRecord, error) {
	u, ok := s.byUUID[uuid]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound)
	}
	return u, nil
}

func (s *stubUserStore) ReadRole(ctx context.Context, uuid string) (string, error) {
	u, ok := s.byUUID[uuid]
	if !ok {
		return "", apperrors.New(apperrors.KindNotFound)
	}
	return u.Role, nil
}

func (s *stubUserStore) TouchLastLogin(ctx context.Context, uuid string) error { return nil }

func (s *stubUserStore) Insert(ctx context.Context, user storage.NewUser) (*storage.UserRecord, error) {
	return nil, apperrors.New(apperrors.KindInternal)
}

func (s *stubUserStore) Delete(ctx context.Context, uuid string) error { return nil }

type authFixture struct {
	authn *Authenticator
	codec *auth.TokenCodec
	store *stubUserStore
}

func newAuthFixture(t *testing.T, users ...*storage.UserRecord) *authFixture {
	t.Helper()

	store := &stubUserStore{byUUID: make(map[string]*storage.UserRecord)}
	for _, u := range users {
		store.byUUID[u.UUID] = u
	}

	codec, err := auth.NewTokenCodec("test-secret", "HS256", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	kv := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { kv.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	roles := auth.NewRoleCache(kv, store, 500*time.Millisecond, logger)

	return &authFixture{
		authn: NewAuthenticator(codec, store, roles),
		codec: codec,
		store: store,
	}
}

func userRecord(uuid, username, role string) *storage.UserRecord {
	return &storage.UserRecord{
		UUID:     uuid,
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Status:   "active",
	}
}

func (f *authFixture) token(t *testing.T, uuid string) string {
	t.Helper()
	token, _, err := f.codec.IssueAccess(uuid)
	require.NoError(t, err)
	return token
}

// echoUser writes the context user's uuid so tests can assert propagation.
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(user.UUID))
	})
}

func getWithBearer(handler http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireUser(t *testing.T) {
	f := newAuthFixture(t, userRecord("u-1", "alice", auth.RoleStudent))
	handler := f.authn.RequireUser(echoUser())

	rec := getWithBearer(handler, "/api/v1/auth/profile", f.token(t, "u-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
}

func TestRequireUserMissingHeader(t *testing.T) {
	f := newAuthFixture(t)
	handler := f.authn.RequireUser(echoUser())

	rec := getWithBearer(handler, "/api/v1/auth/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":1002`)
}

func TestRequireUserMalformedHeader(t *testing.T) {
	f := newAuthFixture(t, userRecord("u-1", "alice", auth.RoleStudent))
	handler := f.authn.RequireUser(echoUser())

	req := httptest.NewRequest("GET", "/api/v1/auth/profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserBadToken(t *testing.T) {
	f := newAuthFixture(t, userRecord("u-1", "alice", auth.RoleStudent))
	handler := f.authn.RequireUser(echoUser())

	rec := getWithBearer(handler, "/api/v1/auth/profile", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserDeletedSubject(t *testing.T) {
	f := newAuthFixture(t)
	handler := f.authn.RequireUser(echoUser())

	// Valid signature, but the subject no longer exists.
	rec := getWithBearer(handler, "/api/v1/auth/profile", f.token(t, "u-gone"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":1002`)
}

func TestRequireAdmin(t *testing.T) {
	f := newAuthFixture(t,
		userRecord("u-admin", "root", auth.RoleAdmin),
		userRecord("u-student", "alice", auth.RoleStudent),
	)
	handler := f.authn.RequireAdmin(echoUser())

	rec := getWithBearer(handler, "/api/v1/users", f.token(t, "u-admin"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = getWithBearer(handler, "/api/v1/users", f.token(t, "u-student"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":1003`)
}

func TestRequireTeacherOrAdmin(t *testing.T) {
	f := newAuthFixture(t,
		userRecord("u-admin", "root", auth.RoleAdmin),
		userRecord("u-teacher", "tina", auth.RoleTeacher),
		userRecord("u-student", "alice", auth.RoleStudent),
	)
	handler := f.authn.RequireTeacherOrAdmin(echoUser())

	assert.Equal(t, http.StatusOK, getWithBearer(handler, "/x", f.token(t, "u-admin")).Code)
	assert.Equal(t, http.StatusOK, getWithBearer(handler, "/x", f.token(t, "u-teacher")).Code)
	assert.Equal(t, http.StatusForbidden, getWithBearer(handler, "/x", f.token(t, "u-student")).Code)
}

func TestRequireSelfOrAdmin(t *testing.T) {
	f := newAuthFixture(t,
		userRecord("u-admin", "root", auth.RoleAdmin),
		userRecord("u-1", "alice", auth.RoleStudent),
		userRecord("u-2", "bob", auth.RoleStudent),
	)

	router := mux.NewRouter()
	router.Handle("/api/v1/users/{uuid}", f.authn.RequireSelfOrAdmin("uuid")(echoUser())).Methods("GET")

	// Self access allowed.
	rec := getWithBearer(router, "/api/v1/users/u-1", f.token(t, "u-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Admin may access anyone.
	rec = getWithBearer(router, "/api/v1/users/u-1", f.token(t, "u-admin"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another student may not.
	rec = getWithBearer(router, "/api/v1/users/u-1", f.token(t, "u-2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
