package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/gin-gonic/gin"
)

// openStash creates the per-request staging area. The caller must defer
// closeStash.
func (s *HTTPServer) openStash() (*filex.Stash, error) {
	stash, err := filex.NewStash(s.uploadDir)
	if err != nil {
		return nil, common.NewInternalError("Failed to stage upload").WithCause(err)
	}
	return stash, nil
}

func (s *HTTPServer) closeStash(c *gin.Context, stash *filex.Stash) {
	if err := stash.Cleanup(); err != nil {
		s.logger.Warn(c.Request.Context(), "staged files not removed", "dir", stash.Dir(), "error", err)
	}
}

// stageFile copies the multipart file in field into stash. A missing field
// yields an empty path and no error.
func stageFile(c *gin.Context, stash *filex.Stash, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", common.NewValidationError("Malformed multipart form").WithCause(err)
	}

	path, err := stash.Save(fh)
	if err != nil {
		return "", common.NewInternalError("Failed to stage upload").WithCause(err)
	}
	return path, nil
}
