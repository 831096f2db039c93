package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the registration form. AvatarPath and CoverImagePath
// are local staged files; CoverImagePath may be empty.
type RegisterInput struct {
	FullName       string
	Email          string
	UserName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput identifies the user by username or email.
type LoginInput struct {
	UserName string
	Email    string
	Password string
}

// Session is a logged-in user with freshly issued tokens.
type Session struct {
	User *models.User `json:"user"`
	TokenPair
}

// UserService handles registration and the token lifecycle.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	media                        MediaGateway
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
	now                          func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, gw MediaGateway, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		media:                        gw,
		logger:                       logger.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   bcrypt.DefaultCost,
		now:                          time.Now,
	}
}

const msgCreateUserFailed = "Something went wrong while creating the user"

// Register validates the form, uploads the avatar (and cover image if given)
// and creates the user. The returned record has no password or refresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if isBlank(in.FullName, in.Email, in.UserName, in.Password) {
		return nil, common.NewValidationError("All fields are required")
	}

	userName := strings.ToLower(strings.TrimSpace(in.UserName))
	email := strings.TrimSpace(in.Email)

	repo := s.repomanager.Users(s.db)

	_, err := repo.FindByUserNameOrEmail(ctx, userName, email)
	if err == nil {
		return nil, common.NewConflictError("User already exists")
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.NewInternalError(msgCreateUserFailed).WithCause(err)
	}

	if in.AvatarPath == "" {
		return nil, common.NewValidationError("Avatar file is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, common.NewInternalError(msgCreateUserFailed).WithCause(err)
	}

	avatar, err := s.media.Upload(ctx, in.AvatarPath)
	if err != nil {
		return nil, common.NewInternalError("Avatar file upload failed").WithCause(err)
	}

	var cover *media.Asset
	if in.CoverImagePath != "" {
		cover, err = s.media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			s.logger.Warn(ctx, "cover image upload failed", "username", userName, "error", err)
			cover = nil
		}
	}

	user := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    email,
		UserName: userName,
		Password: string(hash),
		Avatar:   avatar.URL,
	}
	if cover != nil {
		user.CoverImage = cover.URL
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		discardAssets(ctx, s.media, s.logger, avatar, cover)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewConflictError("User already exists").WithCause(err)
		}
		return nil, common.NewInternalError(msgCreateUserFailed).WithCause(err)
	}

	sanitized, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		return nil, common.NewInternalError(msgCreateUserFailed).WithCause(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", sanitized.ID, "username", sanitized.UserName)
	return sanitized, nil
}

// Login checks the password with bcrypt and issues a new token pair.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if isBlank(in.Password) || (isBlank(in.UserName) && isBlank(in.Email)) {
		return nil, common.NewValidationError("Username or email and password are required")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByUserNameOrEmail(ctx, strings.ToLower(strings.TrimSpace(in.UserName)), strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError("User does not exist")
		}
		return nil, common.NewInternalError("Login failed").WithCause(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, common.NewUnauthorizedError("Invalid user credentials")
	}

	pair, err := s.generateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	sanitized, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, common.NewInternalError("Login failed").WithCause(err)
	}

	return &Session{User: sanitized, TokenPair: *pair}, nil
}

// RefreshToken exchanges a stored refresh token for a new pair, rotating the
// refresh token.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if isBlank(refreshToken) {
		return nil, common.NewUnauthorizedError("Unauthorized request")
	}

	user, err := s.repomanager.Users(s.db).GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewUnauthorizedError("Invalid refresh token")
		}
		return nil, common.NewInternalError("Token refresh failed").WithCause(err)
	}

	if user.RefreshTokenExpires.Before(s.now()) {
		return nil, common.NewUnauthorizedError("Refresh token is expired").WithCause(common.ErrRefreshTokenExpired)
	}

	return s.generateTokenPair(ctx, user.ID)
}

// Logout forgets the caller's refresh token.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	err := s.repomanager.Users(s.db).ClearRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewNotFoundError("User does not exist")
		}
		return common.NewInternalError("Logout failed").WithCause(err)
	}
	return nil
}

// GetCurrentUser returns the sanitized record of an authenticated caller.
func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError("User does not exist")
		}
		return nil, common.NewInternalError("Failed to fetch user").WithCause(err)
	}
	return user, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.NewInternalError("Failed to generate tokens").WithCause(err)
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.NewInternalError("Failed to generate tokens").WithCause(err)
	}

	expires := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, userID, refresh, expires); err != nil {
		return nil, common.NewInternalError("Failed to generate tokens").WithCause(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
