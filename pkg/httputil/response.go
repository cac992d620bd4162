// Package httputil provides the uniform response envelope emitted by every
// endpoint, JSON request parsing helpers, and base HTTP middleware.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/observability"
)

// Meta carries response metadata.
type Meta struct {
	Timestamp string `json:"timestamp"`
}

// ErrorBody is the error object attached to failure envelopes.
type ErrorBody struct {
	Code    int    `json:"code"`
	Details string `json:"details"`
}

// Envelope is the single success/error JSON shape for all endpoints.
// Status is 0 on success or a taxonomy code on failure; the transport status
// code is carried separately on the response.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    Meta        `json:"meta"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func newMeta() Meta {
	return Meta{Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func writeEnvelope(w http.ResponseWriter, httpStatus int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(env)
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, message string, data interface{}) {
	WriteSuccessStatus(w, http.StatusOK, message, data)
}

// WriteCreated writes a 201 success envelope.
func WriteCreated(w http.ResponseWriter, message string, data interface{}) {
	WriteSuccessStatus(w, http.StatusCreated, message, data)
}

// WriteSuccessStatus writes a success envelope with an explicit HTTP status.
func WriteSuccessStatus(w http.ResponseWriter, httpStatus int, message string, data interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	writeEnvelope(w, httpStatus, Envelope{
		Status:  0,
		Message: message,
		Data:    data,
		Meta:    newMeta(),
	})
}

// WriteAppError renders any error through the taxonomy. Typed application
// errors map to their kind; everything else is logged with request metadata
// and rendered as Internal with no details leaked.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.FromError(err)

	if appErr.Kind == apperrors.KindInternal {
		observability.FromContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"client_ip": ClientIP(r),
		}).Error("internal error")
	}

	kind := appErr.Kind
	writeEnvelope(w, kind.HTTPStatus(), Envelope{
		Status:  kind.EnvelopeCode(),
		Message: kind.Message(),
		Meta:    newMeta(),
		Error: &ErrorBody{
			Code:    kind.HTTPStatus(),
			Details: safeDetails(appErr),
		},
	})
}

// safeDetails returns the details text for the envelope. Internal errors get
// the generic default regardless of the wrapped cause.
func safeDetails(appErr *apperrors.Error) string {
	if appErr.Kind == apperrors.KindInternal {
		return appErr.Kind.DefaultDetail()
	}
	return appErr.Details()
}
