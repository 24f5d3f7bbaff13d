// Package utils provides helpers for session token creation and hashing.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionToken is a signed HS256 JWT carried in the session cookie. The
// payload names the user (sub) and their email; Exp records the UTC expiry.
type SessionToken struct {
	Token string
	Exp   time.Time
}

// SessionClaims is the decoded payload of a valid session token.
type SessionClaims struct {
	UserID uint64
	Email  string
}

var ErrInvalidToken = errors.New("invalid session token")

// NewSessionToken builds and signs a session JWT for a user. ttlDays
// controls the expiry; the standard exp and iat claims are set in UTC.
func NewSessionToken(secret string, userID uint64, email string, ttlDays int) (SessionToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken validates a raw session JWT and extracts its claims.
// Tokens signed with an unexpected method, expired tokens and tokens
// without a numeric subject are all rejected with ErrInvalidToken.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64) // numeric claims decode as float64
	if !ok || sub <= 0 {
		return SessionClaims{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return SessionClaims{UserID: uint64(sub), Email: email}, nil
}
