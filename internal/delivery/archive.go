package delivery

import (
	"bytes"
	"context"
	"fmt"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/anstrom/scanbridge/internal/config"
)

// Archiver keeps a copy of each delivered report.
type Archiver interface {
	Archive(ctx context.Context, taskID string, pdf []byte) (string, error)
}

// MinioArchiver stores reports in an S3-compatible bucket.
type MinioArchiver struct {
	mc     *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinioArchiver creates an archiver for the bucket in cfg.
func NewMinioArchiver(cfg config.ArchiveConfig) (*MinioArchiver, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &MinioArchiver{mc: mc, bucket: cfg.Bucket, now: time.Now}, nil
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *MinioArchiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.mc.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Archive uploads pdf and returns its object key.
func (a *MinioArchiver) Archive(ctx context.Context, taskID string, pdf []byte) (string, error) {
	key := ObjectKey(taskID, a.now())
	_, err := a.mc.PutObject(ctx, a.bucket, key, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// ObjectKey names the archived report of taskID, grouped by day.
func ObjectKey(taskID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/scan_report_%s.pdf", at.UTC().Format("2006/01/02"), taskID)
}
