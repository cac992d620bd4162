package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindRenderingTriples(t *testing.T) {
	tests := []struct {
		kind         Kind
		envelopeCode int
		httpStatus   int
		message      string
	}{
		{KindInvalidParameter, 1001, http.StatusBadRequest, "Invalid parameter"},
		{KindAuthenticationFailed, 1002, http.StatusBadRequest, "Invalid username or password"},
		{KindInvalidToken, 1002, http.StatusUnauthorized, "Authentication failed"},
		{KindPermissionDenied, 1003, http.StatusForbidden, "Permission denied"},
		{KindNotFound, 1004, http.StatusNotFound, "Resource not found"},
		{KindAlreadyExists, 1001, http.StatusBadRequest, "Resource already exists"},
		{KindRateLimited, http.StatusTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
		{KindInternal, 1005, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.envelopeCode, tt.kind.EnvelopeCode())
			assert.Equal(t, tt.httpStatus, tt.kind.HTTPStatus())
			assert.Equal(t, tt.message, tt.kind.Message())
			assert.NotEmpty(t, tt.kind.DefaultDetail())
		})
	}
}

func TestErrorDetails(t *testing.T) {
	assert.Equal(t, KindNotFound.DefaultDetail(), New(KindNotFound).Details())
	assert.Equal(t, "user missing", WithDetail(KindNotFound, "user missing").Details())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindInternal, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromError(t *testing.T) {
	appErr := New(KindAuthenticationFailed)
	assert.Equal(t, appErr, FromError(appErr))

	wrapped := fmt.Errorf("handler: %w", New(KindPermissionDenied))
	assert.Equal(t, KindPermissionDenied, FromError(wrapped).Kind)

	unknown := FromError(errors.New("boom"))
	require.NotNil(t, unknown)
	assert.Equal(t, KindInternal, unknown.Kind)
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("store: %w", New(KindNotFound))

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindInternal))
	assert.False(t, IsKind(errors.New("boom"), KindInternal))
	assert.False(t, IsKind(nil, KindInternal))
}
