package krypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySigningKey is returned when an HS256 key is missing.
var ErrEmptySigningKey = errors.New("krypto: empty HS256 signing key")

// IdentityClaims carries a normalized social identity inside an HS256 token.
type IdentityClaims struct {
	Provider string `json:"type"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// NewIdentityToken signs claims with key. When ttl is positive the token gets
// iat/exp claims relative to now.
func NewIdentityToken(key []byte, claims IdentityClaims, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptySigningKey
	}
	if ttl > 0 {
		now := time.Now()
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseIdentityToken verifies an HS256 token produced by NewIdentityToken.
func ParseIdentityToken(key []byte, tokenString string) (*IdentityClaims, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*IdentityClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("krypto: invalid identity token")
	}
	return claims, nil
}
