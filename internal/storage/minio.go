package storage

import (
	"bytes"                          // Reader over upload payloads
	"context"                        // Timeouts on blob store calls
	"errors"                         // Error wrapping
	"fmt"                            // URL formatting
	"laundry_system/internal/domain" // Importing domain errors
	"time"                           // Timeout durations

	"github.com/minio/minio-go/v7"                  // MinIO client
	"github.com/minio/minio-go/v7/pkg/credentials" // Static credentials
	"github.com/sirupsen/logrus"                    // Logging library
)

// Every blob store call is bounded by this timeout
const callTimeout = 10 * time.Second

// MinioStore stores attachments in a MinIO bucket
type MinioStore struct {
	client *minio.Client // MinIO client
	bucket string        // Target bucket
}

// NewMinioStore connects to MinIO and ensures the bucket exists
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	// Create the bucket if it doesn't exist yet
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", bucket, err)
		}
	}
	logrus.WithFields(logrus.Fields{
		"endpoint": endpoint, // MinIO endpoint
		"bucket":   bucket,   // Target bucket
	}).Info("Blob storage ready")
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Upload stores data under objectKey with a bounded timeout
func (s *MinioStore) Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"bucket": s.bucket,    // Target bucket
			"key":    objectKey,   // Object key
			"error":  err.Error(), // Error message
		}).Error("Blob upload failed")
		// Surface timeouts and connectivity failures as a storage outage
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.ErrStorageUnavailable
		}
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return objectKey, nil
}

// URL returns the public URL for an object: <endpoint>/<bucket>/<key>
func (s *MinioStore) URL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
}
