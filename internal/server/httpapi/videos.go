package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) publishVideo(c *gin.Context) {
	stash, err := s.openStash()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer s.closeStash(c, stash)

	videoFile, err := stageFile(c, stash, "videoFile")
	if err != nil {
		s.fail(c, err)
		return
	}
	thumbnail, err := stageFile(c, stash, "thumbnail")
	if err != nil {
		s.fail(c, err)
		return
	}

	video, err := s.videos.Publish(c.Request.Context(), services.PublishInput{
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		VideoPath:     videoFile,
		ThumbnailPath: thumbnail,
		OwnerID:       callerID(c),
		Files:         stash,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, video, "Video published")
}

func (s *HTTPServer) getVideoByID(c *gin.Context) {
	video, err := s.videos.GetByID(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, video, "Video fetched successfully")
}

func (s *HTTPServer) updateVideo(c *gin.Context) {
	stash, err := s.openStash()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer s.closeStash(c, stash)

	thumbnail, err := stageFile(c, stash, "thumbnail")
	if err != nil {
		s.fail(c, err)
		return
	}

	video, err := s.videos.Update(c.Request.Context(), services.UpdateInput{
		VideoID:       c.Param("videoId"),
		CallerID:      callerID(c),
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		ThumbnailPath: thumbnail,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, video, "Video updated successfully")
}

func (s *HTTPServer) toggleVideoLike(c *gin.Context) {
	state, err := s.videos.ToggleLike(c.Request.Context(), c.Param("videoId"), callerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	msg := "Video unliked"
	if state.IsLiked {
		msg = "Video liked"
	}
	respond(c, http.StatusOK, state, msg)
}
