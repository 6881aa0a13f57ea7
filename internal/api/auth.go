package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
)

// tokenIssuer выпускает и проверяет HS256-токены администратора.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *tokenIssuer {
	if ttl <= 0 {
		ttl = constants.DefaultAdminTokenTTL
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue возвращает подписанный токен и момент его истечения.
func (t *tokenIssuer) Issue(subject string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify возвращает subject токена. Принимается только subject администратора.
func (t *tokenIssuer) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return "", apierr.New(apierr.ErrUnauthorized, "invalid or expired token", err)
	}
	if claims.Subject != constants.AdminSubject {
		return "", apierr.Unauthorized("token subject is not allowed")
	}
	return claims.Subject, nil
}

// passwordMatches сравнивает пароли за постоянное время, независимо от длины.
func passwordMatches(given, expected string) bool {
	if expected == "" {
		return false
	}
	g := sha256.Sum256([]byte(given))
	e := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(g[:], e[:]) == 1
}
