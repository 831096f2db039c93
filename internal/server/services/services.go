// Package services contains the server-side workflows. Handlers stay thin:
// they stage files and translate HTTP, services validate, upload and persist.
package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
)

// MediaGateway pushes staged files to remote storage and removes them by the
// reference returned from Upload.
type MediaGateway interface {
	Upload(ctx context.Context, localPath string) (*media.Asset, error)
	Delete(ctx context.Context, ref string) error
}

// TempFiles removes a staged local file before the request ends.
type TempFiles interface {
	Discard(path string) error
}

func isBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// discardAssets deletes uploads that will not be referenced by any record.
func discardAssets(ctx context.Context, gw MediaGateway, logger logging.Logger, assets ...*media.Asset) {
	for _, a := range assets {
		if a == nil {
			continue
		}
		if err := gw.Delete(context.WithoutCancel(ctx), a.URL); err != nil {
			logger.Warn(ctx, "orphaned upload", "url", a.URL, "error", err)
		}
	}
}
