package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kauth.org/internal/audit"
	"kauth.org/internal/obs"
)

// Service provides member reconciliation and profile modification on top of a
// Store. All collaborators are supplied at construction; there is no hidden
// wiring or package-level state.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Reconcile maps a resolved provider identity to a local member. An existing
// member is returned unchanged; an unknown email is provisioned as a social
// member with a random placeholder password and the user role.
//
// Provisioning rides on the store's uniqueness constraint: when a concurrent
// login wins the insert, the losing writer re-reads the winner's row instead
// of surfacing a conflict, so the flow is idempotent under races.
func (s *Service) Reconcile(ctx context.Context, email string) (*Member, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidInput)
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find member: %w", err)
	}

	fresh, err := s.provision(email)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, fresh); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost the provisioning race; the winner's row is authoritative.
			return s.store.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create member: %w", err)
	}
	obs.CountMemberProvisioned()
	_ = audit.LogEvent(ctx, "member.provisioned", map[string]any{
		"email":  fresh.Email,
		"social": true,
	})
	return fresh, nil
}

// Modify updates an existing member's password and nickname and clears the
// social flag: once the member holds an explicit password the account is no
// longer purely social. Roles are left untouched.
func (s *Service) Modify(ctx context.Context, email, newPassword, newNickname string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || newPassword == "" || newNickname == "" {
		return fmt.Errorf("email, password and nickname are required: %w", ErrInvalidInput)
	}

	m, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	m.PasswordHash = hash
	m.Nickname = newNickname
	m.Social = false
	m.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, m); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

func (s *Service) provision(email string) (*Member, error) {
	plain, err := tempPassword()
	if err != nil {
		return nil, fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := HashPassword(plain)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	now := s.now().UTC()
	return &Member{
		Email:        email,
		PasswordHash: hash,
		Nickname:     DefaultNickname,
		Roles:        []string{RoleUser},
		Social:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
