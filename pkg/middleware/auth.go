// Package middleware provides the HTTP guards applied ahead of handlers:
// bearer-token authentication, role checks, and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/auth"
	"github.com/edupilot/edupilot/pkg/contextkeys"
	"github.com/edupilot/edupilot/pkg/httputil"
	"github.com/edupilot/edupilot/pkg/storage"
)

// Authenticator resolves bearer tokens into users and enforces role
// requirements. Role checks read through the role cache so hot paths avoid
// a store round trip.
type Authenticator struct {
	codec *auth.TokenCodec
	store storage.UserStore
	roles *auth.RoleCache
}

// NewAuthenticator wires the token codec, user store, and role cache.
func NewAuthenticator(codec *auth.TokenCodec, store storage.UserStore, roles *auth.RoleCache) *Authenticator {
	return &Authenticator{codec: codec, store: store, roles: roles}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// authenticate decodes the bearer token and loads the user record. Every
// failure mode collapses to an invalid-token error so callers learn nothing
// about which check failed.
func (a *Authenticator) authenticate(r *http.Request) (*storage.UserRecord, error) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, apperrors.New(apperrors.KindInvalidToken)
	}

	claims, err := a.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	user, err := a.store.FindByUUID(r.Context(), claims.Subject)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.New(apperrors.KindInvalidToken)
		}
		return nil, err
	}
	return user, nil
}

// RequireUser authenticates the request and stores the user record in the
// request context for downstream handlers.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			httputil.WriteAppError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextkeys.WithUser(r.Context(), user)))
	})
}

// requireRoles authenticates, then admits only users whose cached role is in
// the allowed set.
func (a *Authenticator) requireRoles(next http.Handler, allowed ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			httputil.WriteAppError(w, r, err)
			return
		}

		role, err := a.roles.Get(r.Context(), user.UUID)
		if err != nil {
			httputil.WriteAppError(w, r, err)
			return
		}
		for _, want := range allowed {
			if role == want {
				next.ServeHTTP(w, r.WithContext(contextkeys.WithUser(r.Context(), user)))
				return
			}
		}
		httputil.WriteAppError(w, r, apperrors.New(apperrors.KindPermissionDenied))
	})
}

// RequireAdmin admits only admins.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.requireRoles(next, auth.RoleAdmin)
}

// RequireTeacher admits only teachers.
func (a *Authenticator) RequireTeacher(next http.Handler) http.Handler {
	return a.requireRoles(next, auth.RoleTeacher)
}

// RequireTeacherOrAdmin admits teachers and admins.
func (a *Authenticator) RequireTeacherOrAdmin(next http.Handler) http.Handler {
	return a.requireRoles(next, auth.RoleTeacher, auth.RoleAdmin)
}

// RequireSelfOrAdmin admits the user whose UUID matches the named path
// variable, or any admin.
func (a *Authenticator) RequireSelfOrAdmin(pathParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.authenticate(r)
			if err != nil {
				httputil.WriteAppError(w, r, err)
				return
			}

			if mux.Vars(r)[pathParam] != user.UUID {
				role, err := a.roles.Get(r.Context(), user.UUID)
				if err != nil {
					httputil.WriteAppError(w, r, err)
					return
				}
				if role != auth.RoleAdmin {
					httputil.WriteAppError(w, r, apperrors.New(apperrors.KindPermissionDenied))
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(contextkeys.WithUser(r.Context(), user)))
		})
	}
}

// CurrentUser pulls the authenticated user record set by the guards. The
// second return is false when the handler runs unguarded.
func CurrentUser(r *http.Request) (*storage.UserRecord, bool) {
	user, ok := contextkeys.User(r.Context()).(*storage.UserRecord)
	return user, ok
}
