package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupilot/edupilot/pkg/apperrors"
)

func TestParseJSON(t *testing.T) {
	var dest struct {
		Username string `json:"username"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"username":"alice"}`))
	require.NoError(t, ParseJSON(req, &dest))
	assert.Equal(t, "alice", dest.Username)
}

func TestParseJSONInvalid(t *testing.T) {
	var dest struct{}
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))

	err := ParseJSON(req, &dest)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidParameter))
}

func TestParsePathString(t *testing.T) {
	req := httptest.NewRequest("GET", "/users/u-1", nil)
	req = mux.SetURLVars(req, map[string]string{"uuid": "u-1"})

	val, err := ParsePathString(req, "uuid")
	require.NoError(t, err)
	assert.Equal(t, "u-1", val)

	_, err = ParsePathString(req, "missing")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidParameter))
}

func TestRequireNonEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", nil)
	assert.True(t, RequireNonEmpty(rec, req, "alice", "username"))

	rec = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(rec, req, "  ", "username"))
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is required")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:52311"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 ")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
