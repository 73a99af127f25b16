package member

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReconcileProvisionsUnknownEmail(t *testing.T) {
	store := NewMemStore()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, WithClock(func() time.Time { return fixed }))

	m, err := svc.Reconcile(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if m.Email != "new@example.com" {
		t.Fatalf("email = %q", m.Email)
	}
	if !m.Social {
		t.Fatal("provisioned member should be social")
	}
	if m.Nickname != DefaultNickname {
		t.Fatalf("nickname = %q, want %q", m.Nickname, DefaultNickname)
	}
	if len(m.Roles) != 1 || m.Roles[0] != RoleUser {
		t.Fatalf("roles = %v", m.Roles)
	}
	if !strings.HasPrefix(m.PasswordHash, "$2") {
		t.Fatalf("password hash does not look like bcrypt: %q", m.PasswordHash)
	}
	if !m.CreatedAt.Equal(fixed) || !m.UpdatedAt.Equal(fixed) {
		t.Fatalf("timestamps = %v / %v, want %v", m.CreatedAt, m.UpdatedAt, fixed)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members, want 1", store.Len())
	}
}

func TestReconcileReturnsExistingUnchanged(t *testing.T) {
	store := NewMemStore()
	existing := &Member{
		Email:        "user@example.com",
		PasswordHash: "$2a$10$existinghash",
		Nickname:     "longtime",
		Roles:        []string{RoleUser, RoleAdmin},
		Social:       false,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := store.Create(context.Background(), existing); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewService(store)

	m, err := svc.Reconcile(context.Background(), "USER@example.com ")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if m.Nickname != "longtime" {
		t.Fatalf("nickname = %q, want existing profile untouched", m.Nickname)
	}
	if m.Social {
		t.Fatal("existing non-social member must stay non-social")
	}
	if m.PasswordHash != "$2a$10$existinghash" {
		t.Fatal("existing password hash must not be replaced")
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members, want 1", store.Len())
	}
}

func TestReconcileRejectsEmptyEmail(t *testing.T) {
	svc := NewService(NewMemStore())
	if _, err := svc.Reconcile(context.Background(), "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReconcileConcurrentSameEmail(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := svc.Reconcile(context.Background(), "racer@example.com")
			if err != nil {
				errs <- err
				return
			}
			if m.Email != "racer@example.com" {
				errs <- errors.New("unexpected email: " + m.Email)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Reconcile: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members after racing logins, want exactly 1", store.Len())
	}
}

// raceStore forces the lost-insert path: the first lookup misses, the insert
// conflicts, and the retry lookup must win.
type raceStore struct {
	*MemStore
	once sync.Once
}

func (s *raceStore) FindByEmail(ctx context.Context, email string) (*Member, error) {
	missed := false
	s.once.Do(func() { missed = true })
	if missed {
		// Simulate the competing login committing between lookup and insert.
		_ = s.MemStore.Create(ctx, &Member{
			Email:        email,
			PasswordHash: "$2a$10$winnerhash",
			Nickname:     "winner",
			Roles:        []string{RoleUser},
			Social:       true,
		})
		return nil, ErrNotFound
	}
	return s.MemStore.FindByEmail(ctx, email)
}

func TestReconcileLosingInsertReReadsWinner(t *testing.T) {
	store := &raceStore{MemStore: NewMemStore()}
	svc := NewService(store)

	m, err := svc.Reconcile(context.Background(), "contended@example.com")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if m.Nickname != "winner" {
		t.Fatalf("nickname = %q, want the winner's row", m.Nickname)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members, want 1", store.Len())
	}
}

func TestModifyUpdatesProfileAndClearsSocial(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)

	if _, err := svc.Reconcile(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("seed via Reconcile: %v", err)
	}

	if err := svc.Modify(context.Background(), "user@example.com", "s3cret-pass", "realname"); err != nil {
		t.Fatalf("Modify: %v", err)
	}

	m, err := store.FindByEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if m.Social {
		t.Fatal("Modify must clear the social flag")
	}
	if m.Nickname != "realname" {
		t.Fatalf("nickname = %q", m.Nickname)
	}
	if err := VerifyPassword(m.PasswordHash, "s3cret-pass"); err != nil {
		t.Fatalf("stored hash does not match the new plaintext password: %v", err)
	}
	if len(m.Roles) != 1 || m.Roles[0] != RoleUser {
		t.Fatalf("roles changed: %v", m.Roles)
	}

	// A later social login reuses the row and must not flip it back.
	again, err := svc.Reconcile(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("Reconcile after Modify: %v", err)
	}
	if again.Social || again.Nickname != "realname" {
		t.Fatalf("reconcile rewrote the modified profile: %+v", again)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d members, want 1", store.Len())
	}
}

func TestModifyUnknownMember(t *testing.T) {
	svc := NewService(NewMemStore())
	err := svc.Modify(context.Background(), "ghost@example.com", "pw", "nick")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestModifyInputValidation(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	if _, err := svc.Reconcile(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name                string
		email, pw, nickname string
	}{
		{"empty email", "", "pw", "nick"},
		{"empty password", "user@example.com", "", "nick"},
		{"empty nickname", "user@example.com", "pw", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Modify(context.Background(), tc.email, tc.pw, tc.nickname); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	// Validation failures must not have written anything.
	m, err := store.FindByEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if !m.Social || m.Nickname != DefaultNickname {
		t.Fatalf("rejected Modify still changed the row: %+v", m)
	}
}
