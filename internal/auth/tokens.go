// Package auth hashes passwords and issues the two kinds of signed claims the
// API hands out: session tokens returned by login, and password-reset tokens
// embedded in emailed links.
//
// Reset tokens are never stored. They are signed with the global secret
// concatenated with the user's current password hash, so changing the
// password invalidates every reset token issued before the change.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ResetTokenTTL is the lifetime of a password-reset token.
const ResetTokenTTL = 5 * time.Minute

var (
	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotVerified is returned for any reset token failure: bad signature,
	// expiry, stale password hash or malformed claims all look the same.
	ErrNotVerified = errors.New("reset token not verified")
)

type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ResetClaims struct {
	Email  string `json:"email"`
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. A sessionTTL of zero
// issues session tokens without an exp claim.
func NewTokenIssuer(secret string, sessionTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

func (t *TokenIssuer) IssueSession(email string) (string, error) {
	now := t.now().UTC().Truncate(time.Second)
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.sessionTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.sessionTTL))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySession checks the signature, and the expiry when the token has one.
func (t *TokenIssuer) VerifySession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, err := t.parse(token, claims, t.secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}
	return claims, nil
}

// ResetSecret derives the per-user signing key for reset tokens.
func (t *TokenIssuer) ResetSecret(passwordHash string) []byte {
	key := make([]byte, 0, len(t.secret)+len(passwordHash))
	key = append(key, t.secret...)
	return append(key, passwordHash...)
}

func (t *TokenIssuer) IssueReset(userID, email, passwordHash string) (string, error) {
	now := t.now().UTC().Truncate(time.Second)
	claims := ResetClaims{
		Email:  email,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.ResetSecret(passwordHash))
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// VerifyReset validates token against the secret derived from the user's
// current password hash. Every failure is reported as ErrNotVerified; the
// wrapped cause is for logs only.
func (t *TokenIssuer) VerifyReset(token, userID, passwordHash string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if _, err := t.parse(token, claims, t.ResetSecret(passwordHash), jwt.WithExpirationRequired()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotVerified, err)
	}
	if claims.UserID != userID {
		return nil, fmt.Errorf("%w: token issued for another user", ErrNotVerified)
	}
	return claims, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims, key []byte, opts ...jwt.ParserOption) (*jwt.Token, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return parsed, nil
}
