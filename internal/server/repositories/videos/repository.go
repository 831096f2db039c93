package videos

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, video *models.Video) (*models.Video, error)
	GetByID(ctx context.Context, id string) (*models.Video, error)
	FindByTitle(ctx context.Context, title string) (*models.Video, error)
	// Update saves title, description and thumbnail and returns the stored row.
	Update(ctx context.Context, video *models.Video) (*models.Video, error)
	// IncrementViews atomically adds one view and returns the updated row.
	IncrementViews(ctx context.Context, id string) (*models.Video, error)
	// GetDetails returns the video with its owner summary and like count.
	GetDetails(ctx context.Context, id string) (*models.VideoDetails, error)
}
