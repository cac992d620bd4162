package api

import (
	"net/http"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/auth"
	"github.com/edupilot/edupilot/pkg/httputil"
	"github.com/edupilot/edupilot/pkg/middleware"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth/refresh"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int       `json:"expires_in"`
	User        auth.User `json:"user"`
}

// login authenticates credentials and issues the token pair. The access
// token travels in the body; the refresh token only in a scoped cookie.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.Username, "username") {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.Password, "password") {
		return
	}

	result, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    result.RefreshToken,
		Path:     refreshCookiePath,
		MaxAge:   result.RefreshExpiresIn,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.WriteSuccess(w, "Login successful", loginData{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		User:        result.User,
	})
}

// refresh exchanges the refresh cookie for a new access token. The cookie
// itself is not rotated.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		httputil.WriteAppError(w, r, apperrors.New(apperrors.KindInvalidToken))
		return
	}

	result, err := s.sessions.Refresh(r.Context(), cookie.Value)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, "Token refreshed successfully", loginData{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		User:        result.User,
	})
}

// profile returns the authenticated user's sanitized record.
func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		httputil.WriteAppError(w, r, apperrors.New(apperrors.KindInvalidToken))
		return
	}
	httputil.WriteSuccess(w, "User profile retrieved successfully", auth.UserFromRecord(user))
}

// verifyToken succeeds iff the guard admitted the request.
func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, "Token is valid", nil)
}
