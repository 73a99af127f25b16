// Package social composes identity resolution, member reconciliation and
// token issuance into the end-to-end social-login flow.
package social

import (
	"context"
	"time"

	"kauth.org/internal/member"
	"kauth.org/internal/token"
)

// Fixed token lifetimes for the login flow. Policy constants, not tunable
// per call.
const (
	AccessTokenTTL  = 10 * time.Minute
	RefreshTokenTTL = 1440 * time.Minute
)

// IdentityResolver resolves a provider access token into a member email.
type IdentityResolver interface {
	ResolveEmail(ctx context.Context, accessToken string) (string, error)
}

// Service runs the social-login flow.
type Service struct {
	resolver IdentityResolver
	members  *member.Service
	issuer   *token.Issuer
}

// NewService wires the flow's collaborators together.
func NewService(resolver IdentityResolver, members *member.Service, issuer *token.Issuer) *Service {
	return &Service{
		resolver: resolver,
		members:  members,
		issuer:   issuer,
	}
}

// Login exchanges a provider access token for the member's claims plus a
// freshly signed access/refresh token pair. Both tokens are signed over the
// same claims snapshot and then appended to the returned mapping under
// accessToken and refreshToken; clients read their session tokens straight
// out of the claims body. Any resolution or reconciliation failure aborts the
// flow with the originating error; no partial claims are returned.
func (s *Service) Login(ctx context.Context, providerAccessToken string) (map[string]any, error) {
	email, err := s.resolver.ResolveEmail(ctx, providerAccessToken)
	if err != nil {
		return nil, err
	}

	m, err := s.members.Reconcile(ctx, email)
	if err != nil {
		return nil, err
	}

	claims := m.Claims()
	accessToken, err := s.issuer.Generate(claims, AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.Generate(claims, RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	claims["accessToken"] = accessToken
	claims["refreshToken"] = refreshToken
	return claims, nil
}
