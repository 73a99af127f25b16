// Package kakao resolves a Kakao OAuth access token into the account email
// via the provider's user-info endpoint. The authorization-code exchange is
// the client's job; this package only consumes the resulting access token.
package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kauth.org/internal/member"
)

const defaultBaseURL = "https://kapi.kakao.com"

const userInfoPath = "/v2/user/me"

// ErrUpstream indicates the provider call failed, timed out, or returned a
// body without the expected structure.
var ErrUpstream = errors.New("kakao: upstream failure")

// Resolver calls the Kakao user-info endpoint. It owns a single pooled HTTP
// client shared across requests; construct one at startup and reuse it.
type Resolver struct {
	baseURL string
	client  *http.Client
}

// Option configures Resolver.
type Option func(*Resolver)

// WithBaseURL overrides the provider endpoint (useful for tests).
func WithBaseURL(u string) Option {
	return func(r *Resolver) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			r.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout sets the client timeout. An unbounded provider call is a
// resource-exhaustion risk under load, so the default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

// NewResolver constructs a Resolver with a pooled client.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// userInfo mirrors the subset of the provider response this service reads.
type userInfo struct {
	KakaoAccount *struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

// ResolveEmail exchanges a provider access token for the account email. An
// empty token fails before any network call. A single upstream request is
// made per invocation; no retries. The raw token is never logged.
func (r *Resolver) ResolveEmail(ctx context.Context, accessToken string) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", fmt.Errorf("access token is required: %w", member.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+userInfoPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: user-info request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: user-info endpoint returned %d", ErrUpstream, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("%w: decode user-info body: %v", ErrUpstream, err)
	}
	if info.KakaoAccount == nil {
		return "", fmt.Errorf("%w: response missing kakao_account", ErrUpstream)
	}
	email := strings.TrimSpace(info.KakaoAccount.Email)
	if email == "" {
		return "", fmt.Errorf("%w: kakao_account has no email", ErrUpstream)
	}
	return email, nil
}
