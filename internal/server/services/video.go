package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PublishInput carries a new video. VideoPath and ThumbnailPath are staged
// local files owned by Files.
type PublishInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
	OwnerID       string
	Files         TempFiles
}

// UpdateInput replaces title, description and thumbnail of a video. All three
// are required.
type UpdateInput struct {
	VideoID       string
	CallerID      string
	Title         string
	Description   string
	ThumbnailPath string
}

// LikeState is the caller's like status after a toggle.
type LikeState struct {
	IsLiked bool `json:"isLiked"`
}

type VideoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       MediaGateway
	logger      logging.Logger
}

func NewVideoService(db *sql.DB, m repomanager.RepositoryManager, gw MediaGateway, logger logging.Logger) *VideoService {
	return &VideoService{
		db:          db,
		repomanager: m,
		media:       gw,
		logger:      logger.With("module", "videos"),
	}
}

func validateVideoID(id string) error {
	if isBlank(id) {
		return common.NewValidationError("Video id is required")
	}
	if err := uuid.Validate(id); err != nil {
		return common.NewValidationError("Invalid video id").WithCause(err)
	}
	return nil
}

// Publish uploads the video and its thumbnail and stores the record. If
// either upload fails nothing is stored and the other upload is removed.
func (s *VideoService) Publish(ctx context.Context, in PublishInput) (*models.Video, error) {
	if isBlank(in.Title, in.Description) {
		return nil, common.NewValidationError("Title and description are required")
	}

	title := strings.TrimSpace(in.Title)
	repo := s.repomanager.Videos(s.db)

	_, err := repo.FindByTitle(ctx, title)
	if err == nil {
		return nil, common.NewValidationError("Video title already exists")
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.NewInternalError("Failed to publish video").WithCause(err)
	}

	if in.VideoPath == "" {
		return nil, common.NewValidationError("Video file is required")
	}
	if in.ThumbnailPath == "" {
		return nil, common.NewValidationError("Thumbnail is required")
	}

	if in.VideoPath == in.ThumbnailPath {
		if in.Files != nil {
			if err := in.Files.Discard(in.VideoPath); err != nil {
				s.logger.Warn(ctx, "discard staged file", "path", in.VideoPath, "error", err)
			}
		}
		return nil, common.NewValidationError("Video and thumbnail cannot be the same")
	}

	videoAsset, videoErr := s.media.Upload(ctx, in.VideoPath)
	thumbAsset, thumbErr := s.media.Upload(ctx, in.ThumbnailPath)
	if videoErr != nil || thumbErr != nil {
		discardAssets(ctx, s.media, s.logger, videoAsset, thumbAsset)
		return nil, common.NewInternalError("Failed to upload video or thumbnail").WithCause(errors.Join(videoErr, thumbErr))
	}

	created, err := repo.Create(ctx, &models.Video{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		VideoFile:   videoAsset.URL,
		Thumbnail:   thumbAsset.URL,
		Duration:    videoAsset.Duration,
		Owner:       in.OwnerID,
		IsPublished: true,
	})
	if err != nil {
		discardAssets(ctx, s.media, s.logger, videoAsset, thumbAsset)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("Video title already exists").WithCause(err)
		}
		return nil, common.NewInternalError("Failed to publish video").WithCause(err)
	}

	video, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		return nil, common.NewInternalError("Failed to publish video").WithCause(err)
	}

	s.logger.Info(ctx, "video published", "video_id", video.ID, "owner", video.Owner)
	return video, nil
}

// GetByID counts a view and returns the video with its owner summary and
// like count. Both steps share one transaction.
func (s *VideoService) GetByID(ctx context.Context, videoID string) (*models.VideoDetails, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, err
	}

	var details *models.VideoDetails
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Videos(tx)

		video, err := repo.IncrementViews(ctx, videoID)
		if err != nil {
			return err
		}

		d, err := repo.GetDetails(ctx, videoID)
		if errors.Is(err, common.ErrorNotFound) {
			// No owner row to join; still report the like count.
			likes, err := s.repomanager.Likes(tx).CountByVideo(ctx, videoID)
			if err != nil {
				return err
			}
			details = &models.VideoDetails{Video: *video, Likes: likes}
			return nil
		}
		if err != nil {
			return err
		}

		details = d
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError("Video not found")
		}
		return nil, common.NewInternalError("Failed to fetch video").WithCause(err)
	}

	return details, nil
}

// Update replaces title, description and thumbnail. Only the owner may do
// this. The previous thumbnail is deleted once the new state is saved.
func (s *VideoService) Update(ctx context.Context, in UpdateInput) (*models.Video, error) {
	if isBlank(in.Title, in.Description, in.ThumbnailPath) {
		return nil, common.NewValidationError("Nothing to update")
	}
	if err := validateVideoID(in.VideoID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Videos(s.db)

	video, err := repo.GetByID(ctx, in.VideoID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError("Video not found")
		}
		return nil, common.NewInternalError("Failed to update video").WithCause(err)
	}

	if video.Owner != in.CallerID {
		return nil, common.NewUnauthorizedError("You are not allowed to update this video")
	}

	oldThumbnail := video.Thumbnail

	thumb, err := s.media.Upload(ctx, in.ThumbnailPath)
	if err != nil {
		return nil, common.NewInternalError("Failed to upload thumbnail").WithCause(err)
	}

	video.Title = strings.TrimSpace(in.Title)
	video.Description = strings.TrimSpace(in.Description)
	video.Thumbnail = thumb.URL

	updated, err := repo.Update(ctx, video)
	if err != nil {
		discardAssets(ctx, s.media, s.logger, thumb)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("Video title already exists").WithCause(err)
		}
		return nil, common.NewInternalError("Failed to update video").WithCause(err)
	}

	if oldThumbnail != "" {
		if err := s.media.Delete(context.WithoutCancel(ctx), oldThumbnail); err != nil {
			s.logger.Warn(ctx, "old thumbnail not deleted", "video_id", updated.ID, "url", oldThumbnail, "error", err)
		}
	}

	return updated, nil
}

// ToggleLike removes the caller's like on the video if present, otherwise
// adds one.
func (s *VideoService) ToggleLike(ctx context.Context, videoID, userID string) (*LikeState, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, err
	}

	state := &LikeState{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Videos(tx).GetByID(ctx, videoID); err != nil {
			return err
		}

		likes := s.repomanager.Likes(tx)

		like, err := likes.Find(ctx, videoID, userID)
		switch {
		case err == nil:
			state.IsLiked = false
			return likes.Delete(ctx, like.ID)
		case errors.Is(err, common.ErrorNotFound):
			state.IsLiked = true
			_, err = likes.Create(ctx, videoID, userID)
			return err
		default:
			return err
		}
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.NewNotFoundError("Video not found")
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.NewConflictError("Like was changed concurrently")
		}
		return nil, common.NewInternalError("Failed to toggle like").WithCause(err)
	}

	return state, nil
}
