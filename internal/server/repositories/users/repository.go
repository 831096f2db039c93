package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindByUserNameOrEmail returns the first user matching either value,
	// password hash included.
	FindByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error)
	// GetByID returns the user without password or refresh token.
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string, expires time.Time) error
	ClearRefreshToken(ctx context.Context, userID string) error
}
