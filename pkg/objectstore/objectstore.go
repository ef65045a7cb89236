package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore defines the object storage operations the platform needs.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// MinioStore implements ObjectStore against any S3-compatible endpoint.
type MinioStore struct {
	conn   *minio.Client
	bucket string
}

// New connects to the object storage endpoint and makes sure the bucket
// exists.
func New(endpoint, accessKeyID, secretAccessKey string, useSSL bool, bucket string) (*MinioStore, error) {
	conn, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	ctx := context.Background()
	exists, err := conn.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := conn.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return &MinioStore{conn: conn, bucket: bucket}, nil
}

// Put stores an object, overwriting any object with the same name.
func (s *MinioStore) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.conn.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", objectName, err)
	}
	return nil
}
