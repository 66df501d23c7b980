// Package auth holds the credential capability handed to the engine and its
// collaborator clients. Token issuance (the password + OTP exchange) is an
// external service; this package only carries and verifies tokens it minted.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSessionExpired is returned when a collaborator rejects the bearer token
// (a 401-equivalent response) or the token fails local verification. It is
// fatal to the session: the engine halts and the user must re-authenticate.
// In-memory answers are not lost.
var ErrSessionExpired = errors.New("authentication session expired")

// TokenProvider supplies the bearer token attached to collaborator calls.
// It replaces ambient browser-style token storage with an explicit capability.
type TokenProvider interface {
	// Token returns the current bearer token, or ErrSessionExpired when no
	// valid token is available.
	Token() (string, error)
}

// StaticToken is a TokenProvider wrapping a fixed token string, used when the
// token arrives with the request and lives only as long as the call.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrSessionExpired
	}
	return string(t), nil
}

// Claims are the registered claims plus the student identity carried in
// tokens minted by the credential service.
type Claims struct {
	jwt.RegisteredClaims
	StudentID string `json:"student_id"`
}

// Verifier validates bearer tokens against the shared signing secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning its claims. Expired or
// malformed tokens map to ErrSessionExpired.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrSessionExpired
	}
	return claims, nil
}

// Sign mints a token for the given student, valid for the supplied duration.
// Exposed for tests and local development; production tokens come from the
// external credential service.
func (v *Verifier) Sign(studentID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		StudentID: studentID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
