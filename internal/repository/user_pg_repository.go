package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"banknote-review-service/internal/model"
)

const pgUniqueViolation = "23505"

// PGUserRepository keeps accounts in Postgres. It is used instead of
// UserRepository when DATABASE_URL is configured.
type PGUserRepository struct {
	db *sqlx.DB
}

func NewPGUserRepository(db *sqlx.DB) *PGUserRepository {
	return &PGUserRepository{db: db}
}

// EnsureSchema creates the users table if it does not exist.
func (r *PGUserRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			fullname        TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			password        TEXT NOT NULL,
			avatar          TEXT NOT NULL,
			role            TEXT NOT NULL,
			type_of_account TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("PGUserRepository.EnsureSchema: %w", err)
	}
	return nil
}

func (r *PGUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, fullname, email, password, avatar, role, type_of_account, created_at
		FROM users
		WHERE email = $1
	`
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("PGUserRepository.FindByEmail: %w", err)
	}
	return &u, nil
}

func (r *PGUserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users
			(id, fullname, email, password, avatar, role, type_of_account, created_at)
		VALUES
			(:id, :fullname, :email, :password, :avatar, :role, :type_of_account, :created_at)
	`, u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("PGUserRepository.Create: %w", err)
	}
	return nil
}

func (r *PGUserRepository) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar = $1 WHERE id = $2`, avatar, userID)
	if err != nil {
		return fmt.Errorf("PGUserRepository.UpdateAvatar: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("PGUserRepository.UpdateAvatar: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
