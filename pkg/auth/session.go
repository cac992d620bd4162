package auth

import (
	"context"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/observability"
	"github.com/edupilot/edupilot/pkg/storage"
)

// SessionService orchestrates the login, refresh, and verify flows over the
// password hasher, token codec, and user store.
type SessionService struct {
	store   storage.UserStore
	hasher  *PasswordHasher
	codec   *TokenCodec
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewSessionService wires the session flows.
func NewSessionService(store storage.UserStore, hasher *PasswordHasher, codec *TokenCodec, logger *observability.Logger) *SessionService {
	return &SessionService{
		store:  store,
		hasher: hasher,
		codec:  codec,
		logger: logger,
	}
}

// WithMetrics attaches login outcome counters.
func (s *SessionService) WithMetrics(m *observability.Metrics) *SessionService {
	s.metrics = m
	return s
}

// LoginResult carries the tokens and sanitized user produced by Login and
// Refresh. RefreshToken is set only by Login; it travels to the client in a
// scoped HttpOnly cookie, never in the response body.
type LoginResult struct {
	AccessToken      string
	ExpiresIn        int
	RefreshToken     string
	RefreshExpiresIn int
	User             User
}

// Login verifies credentials and issues both tokens. Unknown usernames and
// wrong passwords produce the identical AuthenticationFailed error so the
// response cannot be used for username enumeration. Accounts that are not
// active fail the same way even with correct credentials.
func (s *SessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	rec, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			s.countLogin("failure")
			return nil, apperrors.New(apperrors.KindAuthenticationFailed)
		}
		return nil, err
	}

	if !s.hasher.Verify(password, rec.PasswordHash) {
		s.countLogin("failure")
		return nil, apperrors.New(apperrors.KindAuthenticationFailed)
	}

	if rec.Status != StatusActive {
		s.countLogin("failure")
		return nil, apperrors.New(apperrors.KindAuthenticationFailed)
	}

	if err := s.store.TouchLastLogin(ctx, rec.UUID); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.codec.IssueAccess(rec.UUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}
	refreshToken, refreshExpiresIn, err := s.codec.IssueRefresh(rec.UUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}

	s.countLogin("success")
	s.logger.WithFields(map[string]interface{}{
		"username": rec.Username,
		"uuid":     rec.UUID,
	}).Info("login successful")

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        expiresIn,
		RefreshToken:     refreshToken,
		RefreshExpiresIn: refreshExpiresIn,
		User:             UserFromRecord(rec),
	}, nil
}

// Refresh validates a refresh token and reissues the access token only.
// The refresh token is not rotated. A valid token whose subject no longer
// resolves to a user fails as InvalidToken, not NotFound.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.FindByUUID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.New(apperrors.KindInvalidToken)
		}
		return nil, err
	}

	accessToken, expiresIn, err := s.codec.IssueAccess(rec.UUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"username": rec.Username,
		"uuid":     rec.UUID,
	}).Info("token refreshed")

	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		User:        UserFromRecord(rec),
	}, nil
}

func (s *SessionService) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.AuthLoginsTotal.WithLabelValues(outcome).Inc()
	}
}
