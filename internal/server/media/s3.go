// Package media pushes staged files to the S3-compatible media store and
// removes them again by their public URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/google/uuid"
)

var (
	ErrNoFile           = errors.New("no file to upload")
	ErrForeignReference = errors.New("reference is not in the media bucket")
)

// Asset describes an uploaded file. Duration is zero for non-video content.
type Asset struct {
	URL         string  `json:"url"`
	Key         string  `json:"key"`
	ContentType string  `json:"contentType"`
	Duration    float64 `json:"duration"`
}

// objectStore is the part of *s3.Client the gateway uses.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Gateway struct {
	store     objectStore
	prober    Prober
	bucket    string
	publicURL string
	timeout   time.Duration
	logger    logging.Logger
	now       func() time.Time
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// The builtin mime table has no video entries and /etc/mime.types is not
// always present in containers.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

func init() {
	for ext, typ := range videoTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// NewS3Gateway builds a path-style S3 client against cfg.S3BaseEndpoint with
// static credentials.
func NewS3Gateway(ctx context.Context, cfg *config.Config, logger logging.Logger) (*S3Gateway, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(cfg.S3BaseEndpoint, "/") + "/" + cfg.S3Bucket
	}

	return newGateway(client, FFProbe{}, cfg.S3Bucket, publicURL, cfg.UploadTimeout, logger), nil
}

func newGateway(store objectStore, prober Prober, bucket, publicURL string, timeout time.Duration, logger logging.Logger) *S3Gateway {
	return &S3Gateway{
		store:     store,
		prober:    prober,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		timeout:   timeout,
		logger:    logger.With("module", "media"),
		now:       time.Now,
	}
}

// objectKey spreads uploads by date: <yyyy>/<mm>/<dd>/<uuid><ext>.
func (g *S3Gateway) objectKey(localPath string) string {
	d := g.now()
	return fmt.Sprintf("%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), strings.ToLower(filepath.Ext(localPath)))
}

func (g *S3Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Upload sends the file at localPath to the bucket. The whole call, probing
// included, is bounded by the configured timeout.
func (g *S3Gateway) Upload(ctx context.Context, localPath string) (*Asset, error) {
	if localPath == "" {
		return nil, ErrNoFile
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var duration float64
	if strings.HasPrefix(contentType, "video/") || strings.HasPrefix(contentType, "audio/") {
		duration, err = g.prober.Duration(ctx, localPath)
		if err != nil {
			g.logger.Warn(ctx, "duration probe failed", "path", localPath, "error", err)
			duration = 0
		}
	}

	key := g.objectKey(localPath)
	_, err = g.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	g.logger.Debug(ctx, "uploaded", "key", key, "size", info.Size(), "content_type", contentType)

	return &Asset{
		URL:         g.publicURL + "/" + key,
		Key:         key,
		ContentType: contentType,
		Duration:    duration,
	}, nil
}

// Delete removes the object behind a URL previously returned by Upload.
func (g *S3Gateway) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, g.publicURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("%w: %q", ErrForeignReference, ref)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if _, err := g.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
