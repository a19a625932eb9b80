package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/metrics"
)

// ImageUploader stores user-uploaded images in S3 and serves them
// through the CDN
type ImageUploader struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
}

// allowed image content types mapped to canonical extensions
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewImageUploader creates an S3-backed image uploader
func NewImageUploader(ctx context.Context, region, bucket, cdnBaseURL string) (*ImageUploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &ImageUploader{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		cdnBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
	}, nil
}

// ValidContentType reports whether the content type is an accepted image format
func ValidContentType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// Upload stores an image and returns its public CDN URL. The kind
// ("post", "story", "avatar", "highlight_cover") partitions the key
// space so cleanup jobs can scope their deletes.
func (u *ImageUploader) Upload(ctx context.Context, kind, userID string, body io.Reader, contentType string) (string, error) {
	m := metrics.Get()

	ext, ok := imageExtensions[contentType]
	if !ok {
		m.ImageUploadsTotal.WithLabelValues(kind, "rejected").Inc()
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("images/%s/%d/%02d/%s/%s%s",
		kind, now.Year(), now.Month(), userID, uuid.New().String(), ext)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		m.ImageUploadsTotal.WithLabelValues(kind, "failed").Inc()
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	m.ImageUploadsTotal.WithLabelValues(kind, "uploaded").Inc()
	logger.Log.Info("Image uploaded",
		zap.String("kind", kind),
		zap.String("key", key),
		logger.WithUserID(userID),
	)

	return u.cdnBaseURL + "/" + key, nil
}

// Delete removes an image by its public URL. Used when stories expire
// or content is deleted. Unknown URLs are ignored.
func (u *ImageUploader) Delete(ctx context.Context, imageURL string) error {
	key := u.keyFromURL(imageURL)
	if key == "" {
		return nil
	}

	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}

	logger.Log.Info("Image deleted", zap.String("key", key))
	return nil
}

// keyFromURL extracts the S3 key from a CDN URL this uploader produced
func (u *ImageUploader) keyFromURL(imageURL string) string {
	prefix := u.cdnBaseURL + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return ""
	}
	key := strings.TrimPrefix(imageURL, prefix)
	// Only touch keys in our image namespace
	if !strings.HasPrefix(key, "images/") {
		return ""
	}
	return filepath.Clean(key)
}

// CheckBucketAccess verifies the bucket is reachable with current credentials
func (u *ImageUploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access bucket %s: %w", u.bucket, err)
	}
	return nil
}
