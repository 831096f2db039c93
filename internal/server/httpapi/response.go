package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/gin-gonic/gin"
)

// Response is the envelope of every successful reply.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the envelope of every failed reply.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

var notFoundRoute = common.NewNotFoundError("Route not found")

func respond(c *gin.Context, status int, data any, message string) {
	if message == "" {
		message = "Success"
	}
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// fail renders err as an error envelope and aborts the chain. Errors that are
// not an *common.APIError become a generic 500.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		s.logger.Error(ctx, "unhandled error", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		apiErr = common.NewInternalError("Internal server error")
	} else if apiErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error(ctx, apiErr.Message, "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}

	errs := apiErr.Errors
	if errs == nil {
		errs = []string{}
	}

	c.AbortWithStatusJSON(apiErr.StatusCode, ErrorResponse{
		StatusCode: apiErr.StatusCode,
		Data:       nil,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     errs,
	})
}
