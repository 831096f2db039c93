// Package videos provides the PostgreSQL-backed video repository, including
// the owner/likes aggregation used by the video page.
package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

const videoColumns = `id, title, description, video_file, thumbnail, duration, owner, views, is_published, created_at, updated_at`

// PostgresRepository implements video storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	v := &models.Video{}
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail, &v.Duration,
		&v.Owner, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

// wrapWriteErr maps a unique title collision to common.ErrorAlreadyExists.
func wrapWriteErr(err error) error {
	if _, ok := dbx.IsUniqueViolation(err); ok {
		return fmt.Errorf("%w: %v", common.ErrorAlreadyExists, err)
	}
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, video *models.Video) (*models.Video, error) {
	query := `
		INSERT INTO videos (title, description, video_file, thumbnail, duration, owner)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + videoColumns

	v, err := scanVideo(r.db.QueryRowContext(ctx, query,
		video.Title, video.Description, video.VideoFile, video.Thumbnail, video.Duration, video.Owner))
	if err != nil {
		return nil, wrapWriteErr(err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	return scanVideo(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByTitle(ctx context.Context, title string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE title = $1`
	return scanVideo(r.db.QueryRowContext(ctx, query, title))
}

// Update returns common.ErrorNotFound when the video no longer exists.
func (r *PostgresRepository) Update(ctx context.Context, video *models.Video) (*models.Video, error) {
	query := `
		UPDATE videos SET title = $2, description = $3, thumbnail = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + videoColumns

	v, err := scanVideo(r.db.QueryRowContext(ctx, query, video.ID, video.Title, video.Description, video.Thumbnail))
	if err != nil {
		return nil, wrapWriteErr(err)
	}
	return v, nil
}

func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) (*models.Video, error) {
	query := `
		UPDATE videos SET views = views + 1
		WHERE id = $1
		RETURNING ` + videoColumns

	return scanVideo(r.db.QueryRowContext(ctx, query, id))
}

// GetDetails joins the owner (username, fullname, avatar only) and counts the
// video's likes.
func (r *PostgresRepository) GetDetails(ctx context.Context, id string) (*models.VideoDetails, error) {
	query := `
		SELECT v.id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.owner, v.views,
		       v.is_published, v.created_at, v.updated_at,
		       u.username, u.fullname, u.avatar,
		       (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id) AS likes
		FROM videos v
		JOIN users u ON u.id = v.owner
		WHERE v.id = $1
	`

	d := &models.VideoDetails{Owner: &models.OwnerSummary{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Title, &d.Description, &d.VideoFile, &d.Thumbnail, &d.Duration, &d.Video.Owner, &d.Views,
		&d.IsPublished, &d.CreatedAt, &d.UpdatedAt,
		&d.Owner.UserName, &d.Owner.FullName, &d.Owner.Avatar,
		&d.Likes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}
