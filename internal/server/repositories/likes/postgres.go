// Package likes provides the PostgreSQL-backed repository relating users to
// the videos they liked.
package likes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Find(ctx context.Context, videoID, userID string) (*models.Like, error) {
	query := `
		SELECT id, video_id, liked_by, created_at FROM likes
		WHERE video_id = $1 AND liked_by = $2
	`

	l := &models.Like{}
	err := r.db.QueryRowContext(ctx, query, videoID, userID).Scan(&l.ID, &l.VideoID, &l.LikedBy, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

// Create returns common.ErrorAlreadyExists when the pair is already liked.
func (r *PostgresRepository) Create(ctx context.Context, videoID, userID string) (*models.Like, error) {
	query := `
		INSERT INTO likes (video_id, liked_by)
		VALUES ($1, $2)
		RETURNING id, video_id, liked_by, created_at
	`

	l := &models.Like{}
	err := r.db.QueryRowContext(ctx, query, videoID, userID).Scan(&l.ID, &l.VideoID, &l.LikedBy, &l.CreatedAt)
	if err != nil {
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: %v", common.ErrorAlreadyExists, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id)
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

func (r *PostgresRepository) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE video_id = $1`, videoID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
