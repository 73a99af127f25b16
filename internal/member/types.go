package member

import "time"

// Role names assignable to a member. Every member carries at least one.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultNickname is assigned to members provisioned through social login.
// The target locale's equivalent of "social member".
const DefaultNickname = "소셜회원"

// Member is a local account keyed by email. The email is immutable once the
// row is created; Social marks accounts provisioned via a provider login that
// never received a user-chosen password.
type Member struct {
	Email        string
	PasswordHash string
	Nickname     string
	Roles        []string
	Social       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claims converts the member into a flat claims mapping suitable for
// embedding in a signed token. Pure and deterministic; the returned map is
// owned by the caller.
func (m *Member) Claims() map[string]any {
	roles := make([]string, len(m.Roles))
	copy(roles, m.Roles)
	return map[string]any{
		"email":    m.Email,
		"nickname": m.Nickname,
		"social":   m.Social,
		"roles":    roles,
	}
}
