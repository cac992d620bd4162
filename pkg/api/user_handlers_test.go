package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupilot/edupilot/pkg/auth"
)

func (f *serverFixture) postJSONAuth(t *testing.T, path, body, userUUID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.accessToken(t, userUUID))
	req.RemoteAddr = "10.0.0.1:40000"
	return f.do(req)
}

func TestRegisterUser(t *testing.T) {
	f := newServerFixture(t)
	f.addUser(t, "root", "hunter2", auth.RoleAdmin, auth.StatusActive)

	rec := f.postJSONAuth(t, "/api/v1/users",
		`{"username":"carol","email":"carol@example.com","password":"s3cret","role":"teacher"}`, "u-root")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := envelope(t, rec)
	assert.Equal(t, "User registered successfully", body["message"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "carol", data["username"])
	assert.Equal(t, "teacher", data["role"])
	assert.NotContains(t, data, "password_hash")

	// The stored hash verifies against the submitted password.
	stored, err := f.users.FindByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.True(t, f.hasher.Verify("s3cret", stored.PasswordHash))
}

func TestRegisterUserDuplicate(t *testing.T) {
	f := newServerFixture(t)
	f.addUser(t, "root", "hunter2", auth.RoleAdmin, auth.StatusActive)
	f.addUser(t, "carol", "s3cret", auth.RoleTeacher, auth.StatusActive)

	rec := f.postJSONAuth(t, "/api/v1/users",
		`{"username":"carol","email":"carol@example.com","password":"s3cret"}`, "u-root")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(1001), envelope(t, rec)["status"])
}

func TestRegisterUserUnknownRole(t *testing.T) {
	f := newServerFixture(t)
	f.addUser(t, "root", "hunter2", auth.RoleAdmin, auth.StatusActive)

	rec := f.postJSONAuth(t, "/api/v1/users",
		`{"username":"carol","email":"carol@example.com","password":"s3cret","role":"superuser"}`, "u-root")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown role")
}

func TestRegisterUserForbiddenForNonAdmin(t *testing.T) {
	f := newServerFixture(t)
	f.addUser(t, "alice", "hunter2", auth.RoleStudent, auth.StatusActive)

	rec := f.postJSONAuth(t, "/api/v1/users",
		`{"username":"carol","email":"carol@example.com","password":"s3cret"}`, "u-alice")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, float64(1003), envelope(t, rec)["status"])
}

func TestDeleteUser(t *testing.T) {
	f := newServerFixture(t)
	f.addUser(t, "root", "hunter2", auth.RoleAdmin, auth.StatusActive)
	f.addUser(t, "alice", "hunter2", auth.RoleStudent, auth.StatusActive)

	req := httptest.NewRequest("DELETE", "/api/v1/users/u-alice", nil)
	req.Header.Set("Authorization", "Bearer "+f.accessToken(t, "u-root"))
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", envelope(t, rec)["message"])

	_, err := f.users.FindByUsername(req.Context(), "alice")
	assert.Error(t, err)
}

func TestDeleteUserMiss(t *testing.T) {
	f := newServerFixture(t)
	f.addUser(t, "root", "hunter2", auth.RoleAdmin, auth.StatusActive)

	req := httptest.NewRequest("DELETE", "/api/v1/users/u-ghost", nil)
	req.Header.Set("Authorization", "Bearer "+f.accessToken(t, "u-root"))
	rec := f.do(req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(1004), envelope(t, rec)["status"])
}
