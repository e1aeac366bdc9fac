package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: malformed token, wrong
// signing algorithm, bad signature, expired claims. Callers that need to
// distinguish "no credential presented" from "bad credential" must do so
// before calling Verify.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity payload embedded in portal access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sign issues an HS256 token carrying the email claim, expiring after ttl.
func Sign(email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify parses and validates token against secret. Only HMAC-signed tokens
// are accepted; anything else fails with ErrInvalidToken.
func Verify(token, secret string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
