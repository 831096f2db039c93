package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	UserName string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

func (s *HTTPServer) setAuthCookies(c *gin.Context, pair services.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.AccessTokenCookieName, pair.AccessToken, int(s.accessMaxAge.Seconds()), "/", "", true, true)
	c.SetCookie(common.RefreshTokenCookieName, pair.RefreshToken, int(s.refreshMaxAge.Seconds()), "/", "", true, true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", "", true, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", true, true)
}

func (s *HTTPServer) registerUser(c *gin.Context) {
	stash, err := s.openStash()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer s.closeStash(c, stash)

	avatar, err := stageFile(c, stash, "avatar")
	if err != nil {
		s.fail(c, err)
		return
	}
	cover, err := stageFile(c, stash, "coverImage")
	if err != nil {
		s.fail(c, err)
		return
	}

	user, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		FullName:       c.PostForm("fullname"),
		Email:          c.PostForm("email"),
		UserName:       c.PostForm("username"),
		Password:       c.PostForm("password"),
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

func (s *HTTPServer) loginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, common.NewValidationError("Invalid request body").WithCause(err))
		return
	}

	sess, err := s.users.Login(c.Request.Context(), services.LoginInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setAuthCookies(c, sess.TokenPair)
	respond(c, http.StatusOK, sess, "User logged in successfully")
}

func (s *HTTPServer) refreshAccessToken(c *gin.Context) {
	token, err := c.Cookie(common.RefreshTokenCookieName)
	if err != nil || token == "" {
		var req refreshRequest
		// An empty body simply leaves the token blank.
		_ = c.ShouldBind(&req)
		token = req.RefreshToken
	}

	pair, err := s.users.RefreshToken(c.Request.Context(), token)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setAuthCookies(c, *pair)
	respond(c, http.StatusOK, pair, "Access token refreshed")
}

func (s *HTTPServer) logoutUser(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), callerID(c)); err != nil {
		s.fail(c, err)
		return
	}

	clearAuthCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

func (s *HTTPServer) getCurrentUser(c *gin.Context) {
	user, err := s.users.GetCurrentUser(c.Request.Context(), callerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Current user fetched successfully")
}
