// Package auth issues and checks the bearer tokens handed to clients after
// login, and hashes user passwords.
//
// Tokens are stateless HS256 JWTs carrying the username as subject. There is
// no server-side revocation: a token stays usable until its embedded expiry
// passes on the verifying host's clock.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrMalformed = errors.New("auth: malformed token")

type TokenService struct {
	secret   []byte
	lifetime time.Duration
	parser   *jwt.Parser
	now      func() time.Time
}

func NewTokenService(secret []byte, lifetime time.Duration) *TokenService {
	return &TokenService{
		secret:   secret,
		lifetime: lifetime,
		// Expiry is checked against s.now rather than the library clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		now: time.Now,
	}
}

func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue returns a signed token for username valid for the configured lifetime.
func (s *TokenService) Issue(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) ParseSubject(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	return claims.Subject, nil
}

func (s *TokenService) ParseExpiry(token string) (time.Time, error) {
	claims, err := s.parse(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing expiry", ErrMalformed)
	}
	return claims.ExpiresAt.Time, nil
}

// IsValid reports whether token verifies, has not expired and was issued for
// username.
func (s *TokenService) IsValid(token, username string) bool {
	claims, err := s.parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == username && s.usable(claims)
}

// IsStructurallyValid is IsValid without the subject comparison.
func (s *TokenService) IsStructurallyValid(token string) bool {
	claims, err := s.parse(token)
	if err != nil {
		return false
	}
	return s.usable(claims)
}

// RemainingLifetime is never negative; unparseable tokens have none left.
func (s *TokenService) RemainingLifetime(token string) time.Duration {
	exp, err := s.ParseExpiry(token)
	if err != nil {
		return 0
	}
	if d := exp.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

// usable applies the same missing-subject rule as ParseSubject, then checks
// expiry.
func (s *TokenService) usable(claims *jwt.RegisteredClaims) bool {
	if claims.Subject == "" {
		return false
	}
	return claims.ExpiresAt != nil && s.now().Before(claims.ExpiresAt.Time)
}

func (s *TokenService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
