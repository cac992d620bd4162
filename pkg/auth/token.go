package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/edupilot/edupilot/pkg/apperrors"
)

// decodeLeeway is the clock skew tolerated when validating expiry.
const decodeLeeway = 30 * time.Second

// Claims is the decoded token payload.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenCodec issues and validates the two signed bearer tokens. Tokens are
// self-contained HMAC-signed JWTs carrying {sub, exp}; there is no
// server-side token state.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec creates a codec signing under the process secret with the
// configured HMAC algorithm.
func NewTokenCodec(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
	return &TokenCodec{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccess issues a short-lived access token for the subject and returns
// the token with its lifetime in seconds.
func (c *TokenCodec) IssueAccess(subject string) (string, int, error) {
	return c.issue(subject, c.accessTTL)
}

// IssueRefresh issues a long-lived refresh token for the subject and returns
// the token with its lifetime in seconds.
func (c *TokenCodec) IssueRefresh(subject string) (string, int, error) {
	return c.issue(subject, c.refreshTTL)
}

func (c *TokenCodec) issue(subject string, ttl time.Duration) (string, int, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return token, int(ttl.Seconds()), nil
}

// Decode verifies a token's signature and expiry and returns its claims.
// Malformed structure, bad signature, and expiry all collapse to a single
// InvalidToken error so callers cannot distinguish them.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithLeeway(decodeLeeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.New(apperrors.KindInvalidToken)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, apperrors.New(apperrors.KindInvalidToken)
	}

	return &Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
