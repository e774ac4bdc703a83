package minio

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Logger is the logging surface of the client. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Client uploads backup files to one bucket.
type Client struct {
	client *minio.Client
	cfg    Config
	logger Logger
}

// NewClient connects to the object store and makes sure the bucket is usable.
func NewClient(ctx context.Context, cfg Config, log Logger) (*Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	cfg = cfg.withDefaults()

	c, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	m := &Client{client: c, cfg: cfg, logger: log}

	if err := m.ensureBucketExists(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func connect(cfg Config) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
}

func (m *Client) ensureBucketExists(ctx context.Context) error {
	bucket := m.cfg.BucketName
	if bucket == "" {
		return ErrEmptyBucket
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists, bucket: %v, err: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if !m.cfg.CreateBucket {
		return fmt.Errorf("%w: %s", ErrBucketMissing, bucket)
	}

	m.logger.Info("Bucket does not exist, creating it", nil, map[string]interface{}{
		"bucket": bucket,
		"region": m.cfg.Region,
	})
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.cfg.Region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// ObjectKey is the key a local file is stored under.
func (m *Client) ObjectKey(file string) string {
	return path.Join(m.cfg.Prefix, filepath.Base(file))
}

// Upload stores the local file and returns its object key.
func (m *Client) Upload(ctx context.Context, file string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.UploadTimeout)
	defer cancel()

	key := m.ObjectKey(file)
	start := time.Now()
	info, err := m.client.FPutObject(ctx, m.cfg.BucketName, key, file, minio.PutObjectOptions{
		ContentType: defaultContentType,
	})
	if err != nil {
		m.logger.Error("Backup upload failed", err, map[string]interface{}{
			"bucket": m.cfg.BucketName,
			"key":    key,
		})
		return "", fmt.Errorf("upload %s: %w", file, err)
	}

	m.logger.Info("Backup uploaded", nil, map[string]interface{}{
		"bucket":   m.cfg.BucketName,
		"key":      key,
		"size":     info.Size,
		"duration": time.Since(start).String(),
	})
	return key, nil
}

// Download writes the object to a local file.
func (m *Client) Download(ctx context.Context, key, file string) error {
	if err := m.client.FGetObject(ctx, m.cfg.BucketName, key, file, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// List returns the object keys under the configured prefix.
func (m *Client) List(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.cfg.BucketName, minio.ListObjectsOptions{
		Prefix:    m.cfg.Prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Remove deletes one object.
func (m *Client) Remove(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.cfg.BucketName, key, minio.RemoveObjectOptions{})
}
