package api

import (
	"net/http"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/auth"
	"github.com/edupilot/edupilot/pkg/httputil"
	"github.com/edupilot/edupilot/pkg/storage"
)

type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// registerUser creates a user account. Admin only; the password is hashed
// before it reaches the store.
func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.Username, "username") {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.Password, "password") {
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	if !auth.ValidRole(req.Role) {
		httputil.WriteAppError(w, r,
			apperrors.WithDetail(apperrors.KindInvalidParameter, "unknown role"))
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		httputil.WriteAppError(w, r, apperrors.Wrap(apperrors.KindInternal, err))
		return
	}

	rec, err := s.users.Insert(r.Context(), storage.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteCreated(w, "User registered successfully", auth.UserFromRecord(rec))
}

// deleteUser removes a user account. Admin only.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	uuid, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), uuid); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, "User deleted successfully", nil)
}
