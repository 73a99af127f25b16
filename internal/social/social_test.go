package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"kauth.org/internal/member"
	"kauth.org/internal/token"
)

type resolverFunc func(ctx context.Context, accessToken string) (string, error)

func (f resolverFunc) ResolveEmail(ctx context.Context, accessToken string) (string, error) {
	return f(ctx, accessToken)
}

func staticResolver(email string) resolverFunc {
	return func(ctx context.Context, accessToken string) (string, error) {
		return email, nil
	}
}

func newTestService(t *testing.T, resolver IdentityResolver, clock func() time.Time) (*Service, *member.MemStore, *token.Issuer) {
	t.Helper()
	store := member.NewMemStore()
	issuerOpts := []token.Option{}
	memberOpts := []member.ServiceOption{}
	if clock != nil {
		issuerOpts = append(issuerOpts, token.WithClock(clock))
		memberOpts = append(memberOpts, member.WithClock(clock))
	}
	issuer, err := token.NewIssuer("test-secret", issuerOpts...)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	members := member.NewService(store, memberOpts...)
	return NewService(resolver, members, issuer), store, issuer
}

func TestLoginProvisionsAndIssuesTokenPair(t *testing.T) {
	svc, store, issuer := newTestService(t, staticResolver("first@example.com"), nil)

	claims, err := svc.Login(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if claims["email"] != "first@example.com" {
		t.Fatalf("email claim = %v", claims["email"])
	}
	if claims["social"] != true {
		t.Fatalf("social claim = %v", claims["social"])
	}
	if claims["nickname"] != member.DefaultNickname {
		t.Fatalf("nickname claim = %v", claims["nickname"])
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members, want 1", store.Len())
	}

	access, _ := claims["accessToken"].(string)
	refresh, _ := claims["refreshToken"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("token pair missing from claims: %v", claims)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens are identical")
	}

	// Both tokens carry the same identity snapshot, minus the pair itself.
	for _, signed := range []string{access, refresh} {
		parsed, err := issuer.ParseAndValidate(signed)
		if err != nil {
			t.Fatalf("ParseAndValidate: %v", err)
		}
		if parsed["email"] != "first@example.com" || parsed["social"] != true {
			t.Fatalf("token claims diverge: %v", parsed)
		}
		if _, ok := parsed["accessToken"]; ok {
			t.Fatal("signed token must not embed the token pair")
		}
	}
}

func TestLoginExistingMemberReusesRow(t *testing.T) {
	svc, store, _ := newTestService(t, staticResolver("repeat@example.com"), nil)

	if _, err := svc.Login(context.Background(), "provider-token"); err != nil {
		t.Fatalf("first Login: %v", err)
	}
	first, err := store.FindByEmail(context.Background(), "repeat@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}

	if _, err := svc.Login(context.Background(), "provider-token"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members after repeat login, want 1", store.Len())
	}
	second, err := store.FindByEmail(context.Background(), "repeat@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if second.PasswordHash != first.PasswordHash {
		t.Fatal("repeat login replaced the stored credentials")
	}
}

func TestLoginTokenLifetimes(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return issued }
	svc, _, issuer := newTestService(t, staticResolver("ttl@example.com"), clock)

	claims, err := svc.Login(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	expOf := func(signed string) int64 {
		t.Helper()
		parsed, err := issuer.ParseAndValidate(signed)
		if err != nil {
			t.Fatalf("ParseAndValidate: %v", err)
		}
		exp, ok := parsed["exp"].(float64)
		if !ok {
			t.Fatalf("exp claim missing: %v", parsed["exp"])
		}
		return int64(exp)
	}

	if got, want := expOf(claims["accessToken"].(string)), issued.Add(AccessTokenTTL).Unix(); got != want {
		t.Fatalf("access token exp = %d, want %d", got, want)
	}
	if got, want := expOf(claims["refreshToken"].(string)), issued.Add(RefreshTokenTTL).Unix(); got != want {
		t.Fatalf("refresh token exp = %d, want %d", got, want)
	}
}

func TestLoginResolverErrorAbortsFlow(t *testing.T) {
	resolverErr := errors.New("provider unreachable")
	svc, store, _ := newTestService(t, resolverFunc(func(ctx context.Context, accessToken string) (string, error) {
		return "", resolverErr
	}), nil)

	claims, err := svc.Login(context.Background(), "provider-token")
	if !errors.Is(err, resolverErr) {
		t.Fatalf("expected resolver error, got %v", err)
	}
	if claims != nil {
		t.Fatalf("partial claims returned on failure: %v", claims)
	}
	if store.Len() != 0 {
		t.Fatalf("store holds %d members after failed login, want 0", store.Len())
	}
}

func TestLoginInvalidEmailFromResolver(t *testing.T) {
	svc, _, _ := newTestService(t, staticResolver("  "), nil)
	if _, err := svc.Login(context.Background(), "provider-token"); !errors.Is(err, member.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
