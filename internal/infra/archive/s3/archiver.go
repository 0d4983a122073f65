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

	"staynest/internal/app/policies"
)

// Archiver persists raw gateway payloads in an S3-compatible bucket so that
// disputed charges can be replayed against what the provider actually sent.
type Archiver struct {
	bucket         string
	client         *minio.Client
	logger         *slog.Logger
	clock          func() time.Time
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewArchiver(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*Archiver, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	client, err := minio.New(hostFromEndpoint(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &Archiver{
		bucket: bucket,
		client: client,
		logger: logger,
		clock:  time.Now,
	}, nil
}

// Archive writes the payload under gateway/<tx_ref>/<event>-<timestamp>.json.
// The timestamp keeps repeated webhook deliveries from overwriting each other.
func (a *Archiver) Archive(ctx context.Context, txRef, event string, payload []byte) error {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return errors.New("s3: tx_ref is required")
	}
	if event == "" {
		event = "unknown"
	}
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}
	key := fmt.Sprintf("gateway/%s/%s-%d.json", txRef, event, a.clock().UTC().UnixMilli())
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	if a.logger != nil {
		a.logger.Info("gateway payload archived", "bucket", a.bucket, "key", key)
	}
	return nil
}

func (a *Archiver) ensureBucket(ctx context.Context) error {
	a.bucketInitOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			a.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return a.bucketInitErr
}

func hostFromEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

// NoopArchiver drops payloads; memory mode runs without object storage.
type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, string, string, []byte) error {
	return nil
}

var _ policies.GatewayArchiver = (*Archiver)(nil)
var _ policies.GatewayArchiver = NoopArchiver{}
