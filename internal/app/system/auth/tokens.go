// internal/app/system/auth/tokens.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry matches the original service's 7-day tokens.
const DefaultTokenExpiry = 7 * 24 * time.Hour

var (
	// ErrTokenExpired is returned when a token's signature is valid but
	// its expiry has passed. Callers report this distinctly from
	// ErrTokenInvalid.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid covers malformed tokens, bad signatures, and wrong
	// signing methods.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims carries the authenticated user's identity.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies HS256-signed bearer tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenIssuer builds an issuer with the given symmetric secret. A
// non-positive expiry falls back to DefaultTokenExpiry.
func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry}
}

// Issue signs a token embedding userID.
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiry)),
		},
	})
	return tok.SignedString(ti.secret)
}

// Verify parses and validates a token, returning the embedded user ID.
// Expired tokens return ErrTokenExpired; everything else that fails
// verification returns ErrTokenInvalid.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return ti.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}
