package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PG is the Postgres-backed store.
type PG struct {
	db *sql.DB
}

func NewPG(db *sql.DB) *PG {
	return &PG{db: db}
}

const migration = `
CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY,
    name text NOT NULL DEFAULT '',
    image text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    provider text NOT NULL,
    profile_key text NOT NULL,
    data jsonb NOT NULL DEFAULT '{}',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT profiles_provider_key_unique
        UNIQUE (provider, profile_key),
    CONSTRAINT profiles_user_provider_unique
        UNIQUE (user_id, provider)
);

CREATE INDEX IF NOT EXISTS profiles_user_id_idx
ON profiles (user_id);
`

// Migrate creates the users and profiles tables. The two uniqueness
// constraints carry the model invariants: one profile per provider per
// user, and a profile key unique within its provider's namespace.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, migration)
	return err
}

func (s *PG) FindUserByProfileKey(ctx context.Context, provider, key string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.image
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE p.provider = $1
		  AND p.profile_key = $2
	`, provider, key).Scan(&u.ID, &u.Name, &u.Image)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadProfiles(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PG) FindUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, image
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Image)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadProfiles(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PG) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, image)
		VALUES ($1, $2, $3)
	`, u.ID, u.Name, u.Image)

	if err != nil {
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

func (s *PG) AppendProfile(ctx context.Context, p Profile) error {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("store: marshal profile data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, provider, profile_key, data)
		VALUES ($1, $2, $3, $4)
	`, p.UserID, p.Provider, p.Key, data)

	if err != nil {
		return fmt.Errorf("store: append profile: %w", err)
	}
	return nil
}

func (s *PG) UpdateProfile(ctx context.Context, p Profile) error {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("store: marshal profile data: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET data = $1, updated_at = NOW()
		WHERE user_id = $2
		  AND provider = $3
	`, data, p.UserID, p.Provider)

	if err != nil {
		return fmt.Errorf("store: update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PG) UpdateUser(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, image = $2, updated_at = NOW()
		WHERE id = $3
	`, u.Name, u.Image, u.ID)

	if err != nil {
		return fmt.Errorf("store: update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PG) loadProfiles(ctx context.Context, u *User) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, provider, profile_key, data
		FROM profiles
		WHERE user_id = $1
		ORDER BY created_at
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p   Profile
			raw []byte
		)
		if err := rows.Scan(&p.UserID, &p.Provider, &p.Key, &raw); err != nil {
			return err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p.Data); err != nil {
				return fmt.Errorf("store: decode profile data: %w", err)
			}
		}
		u.Profiles = append(u.Profiles, p)
	}
	return rows.Err()
}
