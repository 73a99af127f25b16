// Package token signs identity claims into self-contained JWTs and verifies
// them. Signing material is injected at construction; nothing in this package
// reaches for globals.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "kauth"

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = errors.New("token: invalid token")

// Issuer signs claims mappings into HS256 JWTs with a fixed secret.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures Issuer behavior.
type Option func(*Issuer)

// WithIssuer overrides the iss claim value.
func WithIssuer(issuer string) Option {
	return func(i *Issuer) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			i.issuer = issuer
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer around the given signing secret.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token: signing secret is not configured")
	}
	i := &Issuer{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Generate signs the claims into a JWT expiring at now+ttl. The input map is
// not mutated; registered claims (iss, iat, exp, jti) are added on a copy.
func (i *Issuer) Generate(claims map[string]any, ttl time.Duration) (string, error) {
	if len(claims) == 0 {
		return "", errors.New("token: claims are required")
	}
	if ttl <= 0 {
		return "", errors.New("token: ttl must be greater than zero")
	}

	now := i.now().UTC()
	payload := make(jwt.MapClaims, len(claims)+4)
	for k, v := range claims {
		payload[k] = v
	}
	payload["iss"] = i.issuer
	payload["iat"] = jwt.NewNumericDate(now)
	payload["exp"] = jwt.NewNumericDate(now.Add(ttl))
	payload["jti"] = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies the signature, expiry and issuer of a token and
// returns its claims. Tampered, expired or foreign-issued tokens are rejected
// with ErrInvalidToken.
func (i *Issuer) ParseAndValidate(tokenString string) (map[string]any, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return map[string]any(claims), nil
}

// Subject extracts the member email from parsed claims.
func Subject(claims map[string]any) (string, bool) {
	email, ok := claims["email"].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", false
	}
	return email, true
}

// Roles extracts the role list from parsed claims. JSON round-tripping turns
// the slice into []any, so both shapes are accepted.
func Roles(claims map[string]any) []string {
	switch v := claims["roles"].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
