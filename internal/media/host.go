package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"verdantplate/api/internal/util"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Host stores uploaded recipe media in an S3-compatible bucket and hands
// back a durable URL. The catalog only ever consumes that URL string.
type Host struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

type HostConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for stored objects; when
	// empty, URLs are built from the endpoint itself.
	PublicURL string
}

func NewHost(cfg HostConfig) (*Host, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create media client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &Host{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

// EnsureBucket creates the media bucket if it does not exist yet.
func (h *Host) EnsureBucket(ctx context.Context) error {
	exists, err := h.client.BucketExists(ctx, h.bucket)
	if err != nil {
		return fmt.Errorf("check media bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := h.client.MakeBucket(ctx, h.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create media bucket: %w", err)
	}
	return nil
}

// Upload stores one binary and returns its durable URL. The original
// filename only contributes its extension; the object key is random.
func (h *Host) Upload(ctx context.Context, filename, contentType string, size int64, reader io.Reader) (string, error) {
	key := util.NewID("media") + strings.ToLower(path.Ext(filename))
	_, err := h.client.PutObject(ctx, h.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	return h.publicURL + "/" + h.bucket + "/" + key, nil
}
