package sourcebucket

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

const (
	// DefaultEndpoint is used when AWS_S3_ENDPOINT is not set
	DefaultEndpoint = "s3.amazonaws.com"

	// DefaultMaxObjects caps one listing
	DefaultMaxObjects = 100
)

// Config locates the source bucket. BucketName wins over the bucket in
// RemoteURL; the RemoteURL path is used as the key prefix.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	RemoteURL       string
	BucketName      string
}

// Object is one entry of a listing
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag,omitempty"`
}

// Listing is the result of List
type Listing struct {
	Bucket    string   `json:"bucket"`
	Prefix    string   `json:"prefix,omitempty"`
	Objects   []Object `json:"objects"`
	Truncated bool     `json:"truncated"`
}

type listFunc func(ctx context.Context, cfg Config, bucket, prefix string) (<-chan minio.ObjectInfo, error)

// Lister lists the documents a workflow will read from the S3 source.
// Settings are looked up on every call so credentials can change without
// a restart.
type Lister struct {
	settings func() Config
	list     listFunc

	mu      sync.Mutex
	clients map[string]*minio.Client
}

// NewLister creates a Lister reading its settings from settings
func NewLister(settings func() Config) *Lister {
	l := &Lister{settings: settings, clients: map[string]*minio.Client{}}
	l.list = l.listObjects
	return l
}

// List returns up to limit objects under the configured prefix
func (l *Lister) List(ctx context.Context, limit int) (*Listing, error) {
	cfg := l.settings()
	if err := httpapi.NewConfigurationError("sourcebucket.list",
		[2]string{"AWS_ACCESS_KEY_ID", cfg.AccessKeyID},
		[2]string{"AWS_SECRET_ACCESS_KEY", cfg.SecretAccessKey},
	); err != nil {
		return nil, err
	}

	bucket, prefix, err := Locate(cfg)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMaxObjects
	}

	ctx, span := instrumentation.StartBackendSpan(ctx, instrumentation.ServiceS3, instrumentation.OperationListObjects)
	defer span.End()

	// stop the listing goroutine once enough objects were read
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects, err := l.list(ctx, cfg, bucket, prefix)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	listing := &Listing{Bucket: bucket, Prefix: prefix, Objects: []Object{}}
	for obj := range objects {
		if obj.Err != nil {
			err := &httpapi.NetworkError{Op: "sourcebucket.list", Err: obj.Err}
			instrumentation.SetSpanError(span, err)
			return nil, err
		}
		if len(listing.Objects) == limit {
			listing.Truncated = true
			break
		}
		listing.Objects = append(listing.Objects, Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}

	instrumentation.SetSpanSuccess(span)
	return listing, nil
}

// Locate resolves the bucket and key prefix from cfg
func Locate(cfg Config) (bucket, prefix string, err error) {
	if strings.TrimSpace(cfg.RemoteURL) != "" {
		u, err := url.Parse(cfg.RemoteURL)
		if err != nil {
			return "", "", &httpapi.ValidationError{Field: "S3_REMOTE_URL", Message: err.Error()}
		}
		if u.Scheme != "s3" {
			return "", "", &httpapi.ValidationError{Field: "S3_REMOTE_URL", Message: fmt.Sprintf("expected s3:// scheme, got %q", u.Scheme)}
		}
		bucket = u.Host
		prefix = strings.TrimPrefix(u.Path, "/")
	}
	if cfg.BucketName != "" {
		bucket = cfg.BucketName
	}
	if bucket == "" {
		return "", "", &httpapi.ConfigurationError{Op: "sourcebucket.list", Missing: []string{"S3_BUCKET_NAME"}}
	}
	return bucket, prefix, nil
}

// endpoint splits AWS_S3_ENDPOINT into the host:port form minio expects
// and whether TLS is used.
func endpoint(raw string) (host string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultEndpoint, true, nil
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimSuffix(raw, "/"), true, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, &httpapi.ValidationError{Field: "AWS_S3_ENDPOINT", Message: err.Error()}
	}
	if u.Host == "" {
		return "", false, &httpapi.ValidationError{Field: "AWS_S3_ENDPOINT", Message: "missing host"}
	}
	return u.Host, u.Scheme != "http", nil
}

func (l *Lister) listObjects(ctx context.Context, cfg Config, bucket, prefix string) (<-chan minio.ObjectInfo, error) {
	cli, err := l.client(cfg)
	if err != nil {
		return nil, err
	}
	return cli.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}), nil
}

// client returns a cached client for the endpoint and access key pair
func (l *Lister) client(cfg Config) (*minio.Client, error) {
	host, secure, err := endpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%t|%s|%s", host, secure, cfg.AccessKeyID, cfg.SecretAccessKey)
	l.mu.Lock()
	defer l.mu.Unlock()
	if cli, ok := l.clients[key]; ok {
		return cli, nil
	}

	cli, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	// credentials rotated: only the latest client is kept
	clear(l.clients)
	l.clients[key] = cli
	return cli, nil
}
