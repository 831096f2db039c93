// Package users provides the PostgreSQL-backed user repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in its id and timestamps. A username or email
// collision yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (fullname, email, username, password, avatar, cover_image)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.UserName, user.Password, user.Avatar, user.CoverImage).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: %v", common.ErrorAlreadyExists, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error) {
	query :=
		`SELECT id, fullname, email, username, password, avatar, cover_image, created_at, updated_at FROM users
		 WHERE username = $1 OR email = $2
		 LIMIT 1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName, email).Scan(
		&user.ID, &user.FullName, &user.Email, &user.UserName, &user.Password,
		&user.Avatar, &user.CoverImage, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, fullname, email, username, avatar, cover_image, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FullName, &user.Email, &user.UserName,
		&user.Avatar, &user.CoverImage, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT id, username, refresh_token, refresh_token_expires FROM users
		 WHERE refresh_token = $1 AND refresh_token <> ''
		 `

	user := &models.User{}
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, query, token).Scan(&user.ID, &user.UserName, &user.RefreshToken, &expires)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.RefreshTokenExpires = expires.Time

	return user, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID, token string, expires time.Time) error {
	query :=
		`UPDATE users SET refresh_token = $2, refresh_token_expires = $3, updated_at = now()
		 WHERE id = $1
		 `

	return r.execOne(ctx, query, userID, token, expires)
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET refresh_token = '', refresh_token_expires = NULL, updated_at = now()
		 WHERE id = $1
		 `

	return r.execOne(ctx, query, userID)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
