package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx. It is the
// local, authoritative store for created records; origin tagging happens a
// layer above, so rows carry no origin column.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer cmd/migrate in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id varchar(32) PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  username TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  address JSONB NOT NULL DEFAULT '{}'::jsonb,
  active BOOLEAN,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectColumns = `id, name, username, email, address, active, created_at, updated_at`

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Address   []byte    `db:"address"`
	Active    *bool     `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row userRow) toEntity() (entity.User, error) {
	u := entity.User{
		ID:       row.ID,
		Name:     row.Name,
		Username: row.Username,
		Email:    row.Email,
		Active:   row.Active,
	}
	if len(row.Address) > 0 {
		if err := json.Unmarshal(row.Address, &u.Address); err != nil {
			return entity.User{}, fmt.Errorf("decode address for user %s: %w", row.ID, err)
		}
	}
	return u, nil
}

func rowsToEntities(rows []userRow) ([]entity.User, error) {
	out := make([]entity.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// FindAll returns every stored record in insertion order.
func (r *UserRepo) FindAll(ctx context.Context) ([]entity.User, error) {
	const q = `SELECT ` + selectColumns + ` FROM users ORDER BY created_at, id`
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rowsToEntities(rows)
}

// FindByID returns the record with the given id, or (nil, nil) when absent.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	const q = `SELECT ` + selectColumns + ` FROM users WHERE id=$1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername returns the record with the exact username, or (nil, nil)
// when absent. Usernames are assumed unique in the local store.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	const q = `SELECT ` + selectColumns + ` FROM users WHERE username=$1 LIMIT 1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsernameLike returns all records whose username contains the given
// fragment, case-insensitive, in insertion order.
func (r *UserRepo) FindByUsernameLike(ctx context.Context, username string) ([]entity.User, error) {
	const q = `SELECT ` + selectColumns + ` FROM users WHERE username ILIKE '%' || $1 || '%' ORDER BY created_at, id`
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, q, username); err != nil {
		return nil, err
	}
	return rowsToEntities(rows)
}

// Save inserts the record or replaces an existing row with the same id, and
// returns the stored record.
func (r *UserRepo) Save(ctx context.Context, u entity.User) (*entity.User, error) {
	const q = `INSERT INTO users (id, name, username, email, address, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			active = EXCLUDED.active,
			updated_at = NOW()`
	addr, err := json.Marshal(u.Address)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Username, u.Email, addr, u.Active); err != nil {
		return nil, err
	}
	saved := u
	saved.Origin = ""
	return &saved, nil
}
