// Package objectstore keeps state snapshots as objects in an S3 compatible
// bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/logger"
)

const contentType = "application/json"

// Config holds the bucket connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Storage implements flux.Storage on a bucket. Object names are the storage
// keys.
type Storage struct {
	client *minio.Client
	bucket string
	log    *log.Logger
}

var _ flux.Storage = (*Storage)(nil)

// New connects to the object store and creates the bucket when missing
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("object store endpoint cannot be empty")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("object store bucket cannot be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	s := &Storage{
		client: client,
		bucket: cfg.Bucket,
		log:    logger.Repository("objectstore"),
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	s.log.Info("Object store ready", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("Bucket created", "bucket", s.bucket)
	return nil
}

func (s *Storage) GetItem(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError("get", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError("get", key, err)
	}
	return data, nil
}

func (s *Storage) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return s.mapError("put", key, err)
	}

	s.log.Debug("snapshot saved", "key", key, "size", len(value))
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError("remove", key, err)
	}
	return nil
}

// Close is a no-op; the client holds no long-lived connection.
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) mapError(op, key string, err error) error {
	if isNotFound(err) {
		return flux.ErrNotFound
	}
	s.log.Error("object store request failed", "op", op, "key", key, "error", err)
	return fmt.Errorf("failed to %s object %s: %w", op, key, err)
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	switch resp.Code {
	case "NoSuchKey", "NoSuchObject":
		return true
	default:
		return false
	}
}
