package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rentdesk/internal/app/policies"
)

var (
	ErrEndpointRequired = errors.New("s3: endpoint is required")
	ErrBucketRequired   = errors.New("s3: bucket is required")
	ErrKeyRequired      = errors.New("s3: object key is required")
)

type Options struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
	// LinkTTL is how long returned document links stay valid.
	LinkTTL time.Duration
	Logger  *slog.Logger
}

// LeaseArchive keeps rendered lease documents in a private S3-compatible bucket and hands
// out presigned links to them.
type LeaseArchive struct {
	bucket  string
	linkTTL time.Duration
	client  *minio.Client
	signer  *minio.Client
	logger  *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

func NewLeaseArchive(opts Options) (*LeaseArchive, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, ErrBucketRequired
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := newMinio(endpoint, opts, region)
	if err != nil {
		return nil, err
	}
	signer := client
	if public := strings.TrimSpace(opts.PublicEndpoint); public != "" && public != endpoint {
		if signer, err = newMinio(public, opts, region); err != nil {
			return nil, err
		}
	}
	ttl := opts.LinkTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LeaseArchive{
		bucket:  bucket,
		linkTTL: ttl,
		client:  client,
		signer:  signer,
		logger:  opts.Logger,
	}, nil
}

func newMinio(endpoint string, opts Options, region string) (*minio.Client, error) {
	secure := opts.UseSSL
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Scheme == "https" {
		secure = true
	}
	c, err := minio.New(parseEndpoint(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return c, nil
}

// Put stores body under key and returns a presigned download link.
func (a *LeaseArchive) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrKeyRequired
	}
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	link, err := a.Link(ctx, key)
	if err != nil {
		return "", err
	}
	if a.logger != nil {
		a.logger.Info("lease archived", "bucket", a.bucket, "key", key, "bytes", len(body))
	}
	return link, nil
}

// Link presigns a GET for key.
func (a *LeaseArchive) Link(ctx context.Context, key string) (string, error) {
	u, err := a.signer.PresignedGetObject(ctx, a.bucket, key, a.linkTTL, nil)
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	return u.String(), nil
}

// Ping reports whether the bucket is reachable.
func (a *LeaseArchive) Ping(ctx context.Context) error {
	_, err := a.client.BucketExists(ctx, a.bucket)
	return err
}

// ensureBucket creates the bucket once; a failed attempt is retried on the next call.
func (a *LeaseArchive) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketReady {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("s3: check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("s3: create bucket: %w", err)
		}
	}
	a.bucketReady = true
	return nil
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ policies.DocumentArchive = (*LeaseArchive)(nil)
