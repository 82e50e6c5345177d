package gcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mypackmx/logistics-backend/pkg/config"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Client wraps the Cloud Storage SDK with the bucket and URL policy the
// platform uses for shipment guides.
type Client struct {
	raw           *storage.Client
	defaultBucket string
	urlExpiry     time.Duration
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a storage client from explicit credentials when provided,
// falling back to application default credentials.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	raw, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	client := &Client{
		raw:           raw,
		defaultBucket: cfg.BucketName,
		urlExpiry:     cfg.DownloadURLExpiry,
	}

	if err := client.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}

	return client, nil
}

// DefaultBucket returns the configured bucket name.
func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Upload writes data under objectName in the default bucket and returns a
// signed download URL.
func (c *Client) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if c == nil || c.raw == nil {
		return "", errors.New("gcs client not initialized")
	}
	if objectName == "" {
		return "", errors.New("object name is required")
	}

	writer := c.raw.Bucket(c.defaultBucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("writing object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing object %s: %w", objectName, err)
	}

	return c.SignedURL(objectName)
}

// SignedURL produces a time-limited download URL for an object in the
// default bucket.
func (c *Client) SignedURL(objectName string) (string, error) {
	if c == nil || c.raw == nil {
		return "", errors.New("gcs client not initialized")
	}
	expiry := c.urlExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	url, err := c.raw.Bucket(c.defaultBucket).SignedURL(objectName, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("signing url for %s: %w", objectName, err)
	}
	return url, nil
}

// Ping verifies the default bucket is reachable with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("gcs client not initialized")
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.raw.Bucket(c.defaultBucket).Attrs(pingCtx)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", c.defaultBucket, err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
