// Package storage uploads chat images to S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	awsclient "quickbite/internal/common/aws"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
)

var ErrUnsupportedImage = errors.New("UNSUPPORTED_IMAGE_TYPE")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists an uploaded image and returns a URL the vision service
// can fetch.
type ImageStore interface {
	Upload(ctx context.Context, owner, contentType string, body io.Reader, size int64) (string, error)
}

type Config struct {
	Bucket        string
	Region        string
	KeyPrefix     string
	PublicBaseURL string
}

type S3Store struct {
	client awsclient.S3API
	config Config
	logger logger.Logger
	now    func() time.Time
}

func NewS3Store(client awsclient.S3API, cfg Config, log logger.Logger) *S3Store {
	return &S3Store{
		client: client,
		config: cfg,
		logger: log.With(map[string]interface{}{"component": "s3-image-store"}),
		now:    time.Now,
	}
}

func (s *S3Store) Upload(ctx context.Context, owner, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	key := s.objectKey(ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata:      map[string]string{"owner": owner},
	})
	if err != nil {
		return "", apperrors.NewStorageFailedError(err)
	}

	s.logger.Info("image uploaded", map[string]interface{}{
		"bucket": s.config.Bucket,
		"key":    key,
		"size":   size,
	})
	return s.objectURL(key), nil
}

func (s *S3Store) objectKey(ext string) string {
	return path.Join(s.config.KeyPrefix, s.now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

func (s *S3Store) objectURL(key string) string {
	if s.config.PublicBaseURL != "" {
		return strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Bucket, s.config.Region, key)
}
