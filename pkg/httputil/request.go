package httputil

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/edupilot/edupilot/pkg/apperrors"
)

// ParseJSON decodes JSON from the request body into the destination.
// Decode failures map to InvalidParameter.
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.WithDetail(apperrors.KindInvalidParameter, "invalid JSON body")
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes the error envelope on failure.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteAppError(w, r, err)
		return false
	}
	return true
}

// ParsePathString extracts a string path parameter.
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", apperrors.WithDetail(apperrors.KindInvalidParameter,
			fmt.Sprintf("missing path parameter: %s", key))
	}
	return str, nil
}

// ParsePathStringOrError extracts a string path parameter and writes the
// error envelope on failure.
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathString(r, key)
	if err != nil {
		WriteAppError(w, r, err)
		return "", false
	}
	return val, true
}

// GetPathVars returns all path variables from the request.
func GetPathVars(r *http.Request) map[string]string {
	return mux.Vars(r)
}

// RequireNonEmpty validates that a string field is present, writing an
// InvalidParameter envelope otherwise.
func RequireNonEmpty(w http.ResponseWriter, r *http.Request, value, fieldName string) bool {
	if strings.TrimSpace(value) == "" {
		WriteAppError(w, r, apperrors.WithDetail(apperrors.KindInvalidParameter,
			fmt.Sprintf("%s is required", fieldName)))
		return false
	}
	return true
}

// ClientIP selects the client address for rate limiting and access logs:
// the leftmost X-Forwarded-For entry when present, else the transport peer.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.SplitN(forwarded, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
