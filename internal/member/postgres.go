package member

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Member, error) {
	row := s.db.QueryRowContext(ctx,
		`select email, password_hash, nickname, roles, social, created_at, updated_at
		   from members where email=$1`, email)
	var (
		m     Member
		roles []byte
	)
	if err := row.Scan(&m.Email, &m.PasswordHash, &m.Nickname, &roles, &m.Social, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(roles, &m.Roles); err != nil {
		return nil, fmt.Errorf("decode roles for %s: %w", m.Email, err)
	}
	return &m, nil
}

// Create inserts the member relying on the primary key on email. A conflicting
// insert is reported as ErrAlreadyExists so racing provisioners can fall back
// to re-reading the winner's row.
func (s *PGStore) Create(ctx context.Context, m *Member) error {
	roles, err := json.Marshal(m.Roles)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`insert into members(email, password_hash, nickname, roles, social)
		 values($1,$2,$3,$4,$5)
		 on conflict (email) do nothing`,
		m.Email, m.PasswordHash, m.Nickname, roles, m.Social,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, m *Member) error {
	roles, err := json.Marshal(m.Roles)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update members
		    set password_hash=$2, nickname=$3, roles=$4, social=$5, updated_at=now()
		  where email=$1`,
		m.Email, m.PasswordHash, m.Nickname, roles, m.Social,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
