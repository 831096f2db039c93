package likes

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type Repository interface {
	Find(ctx context.Context, videoID, userID string) (*models.Like, error)
	Create(ctx context.Context, videoID, userID string) (*models.Like, error)
	Delete(ctx context.Context, id string) error
	CountByVideo(ctx context.Context, videoID string) (int64, error)
}
