// Package upload publishes backup archives to S3-compatible object storage.
package upload

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vulnverified/sitevault/internal/engine"
)

// DefaultExpiry is the lifetime of presigned download URLs (the S3 maximum).
const DefaultExpiry = 7 * 24 * time.Hour

// Options configures a Publisher.
type Options struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
	Expiry time.Duration
}

// Publisher implements engine.ArtifactPublisher.
type Publisher struct {
	client *minio.Client
	bucket string
	prefix string
	expiry time.Duration
}

// New creates a Publisher. It does not contact the endpoint.
func New(opts Options) (*Publisher, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       opts.UseSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Publisher{client: client, bucket: opts.Bucket, prefix: opts.Prefix, expiry: expiry}, nil
}

// ObjectKey is <prefix>/<run>/<archive file name>.
func (p *Publisher) ObjectKey(runID string, art engine.Artifact) string {
	return path.Join(p.prefix, runID, filepath.Base(art.ArchivePath))
}

// Publish uploads the archive and returns a presigned GET URL for it.
func (p *Publisher) Publish(ctx context.Context, runID string, art engine.Artifact) (string, error) {
	key := p.ObjectKey(runID, art)

	if _, err := p.client.FPutObject(ctx, p.bucket, key, art.ArchivePath, minio.PutObjectOptions{
		ContentType: "application/zip",
	}); err != nil {
		return "", fmt.Errorf("uploading %s to %s/%s: %w", filepath.Base(art.ArchivePath), p.bucket, key, err)
	}

	u, err := p.client.PresignedGetObject(ctx, p.bucket, key, p.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presigning %s/%s: %w", p.bucket, key, err)
	}
	return u.String(), nil
}
