package member

import "context"

// Store describes persistence operations required by the member subsystem.
//
// Create must be backed by the store's uniqueness guarantee on email: when a
// row for the same email already exists it returns ErrAlreadyExists without
// modifying the existing row. That constraint is the sole concurrency guard
// for racing first-time provisioning; callers fall back to FindByEmail.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Member, error)
	Create(ctx context.Context, m *Member) error
	Update(ctx context.Context, m *Member) error
}
