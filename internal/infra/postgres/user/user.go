package infra_postgres_user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/reeltrack/core/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type userDB struct {
	ID           int64        `db:"id"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    sql.NullTime `db:"created_at"`
}

func (u userDB) toDomain() model.User {
	user := model.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
	if u.CreatedAt.Valid {
		user.CreatedAt = u.CreatedAt.Time
	}
	return user
}

func (r *Repository) Store(ctx context.Context, user model.User) (int64, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.GetContext(ctx, &id, query, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to store user: %w", err)
	}

	return id, nil
}

func (r *Repository) LoadByID(ctx context.Context, id int64) (model.User, error) {
	return r.loadBy(ctx, "id = $1", id)
}

func (r *Repository) LoadByEmail(ctx context.Context, email string) (model.User, error) {
	return r.loadBy(ctx, "email = $1", email)
}

func (r *Repository) LoadByUsername(ctx context.Context, username string) (model.User, error) {
	return r.loadBy(ctx, "username = $1", username)
}

func (r *Repository) loadBy(ctx context.Context, cond string, arg any) (model.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + cond

	var u userDB
	err := r.db.GetContext(ctx, &u, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	return u.toDomain(), nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash []byte) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteByID removes the user. Interactions, reviews and review votes are
// dropped by ON DELETE CASCADE on their foreign keys.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
