// Package httpapi exposes the user and video workflows over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetCurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type VideoService interface {
	Publish(ctx context.Context, in services.PublishInput) (*models.Video, error)
	GetByID(ctx context.Context, videoID string) (*models.VideoDetails, error)
	Update(ctx context.Context, in services.UpdateInput) (*models.Video, error)
	ToggleLike(ctx context.Context, videoID, userID string) (*services.LikeState, error)
}

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address       string
	users         UserService
	videos        VideoService
	logger        logging.Logger
	jwtSecret     []byte
	uploadDir     string
	accessMaxAge  time.Duration
	refreshMaxAge time.Duration
	engine        *gin.Engine
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService, vs VideoService) *HTTPServer {
	s := &HTTPServer{
		address:       cfg.EndpointAddrHTTP,
		users:         us,
		videos:        vs,
		logger:        l.With("module", "http_server"),
		jwtSecret:     []byte(cfg.SecretKey),
		uploadDir:     cfg.UploadDir,
		accessMaxAge:  cfg.AccessTokenValidityDuration,
		refreshMaxAge: cfg.RefreshTokenValidityDuration,
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.MaxUploadSize
	engine.Use(s.recovery(), s.requestLogger())
	engine.NoRoute(func(c *gin.Context) {
		s.fail(c, notFoundRoute)
	})

	s.engine = engine
	s.registerRoutes()

	return s
}

func (s *HTTPServer) registerRoutes() {
	users := s.engine.Group("/users")
	users.POST("/register", s.registerUser)
	users.POST("/login", s.loginUser)
	users.POST("/refresh-token", s.refreshAccessToken)
	users.POST("/logout", s.requireAuth(), s.logoutUser)
	users.GET("/current-user", s.requireAuth(), s.getCurrentUser)

	videos := s.engine.Group("/videos")
	videos.POST("", s.requireAuth(), s.publishVideo)
	videos.GET("/:videoId", s.getVideoByID)
	videos.PATCH("/:videoId", s.requireAuth(), s.updateVideo)
	videos.POST("/:videoId/like", s.requireAuth(), s.toggleVideoLike)
	videos.PUT("/:videoId/like", s.requireAuth(), s.toggleVideoLike)

	s.engine.POST("/likes/likeVideo/:videoId", s.requireAuth(), s.toggleVideoLike)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
