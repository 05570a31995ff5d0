package sourcebucket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/daraja-mcp/internal/httpapi"
)

func testConfig() Config {
	return Config{
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
		RemoteURL:       "s3://invoices/incoming/",
	}
}

func feed(objects ...minio.ObjectInfo) listFunc {
	return func(ctx context.Context, _ Config, _, _ string) (<-chan minio.ObjectInfo, error) {
		ch := make(chan minio.ObjectInfo)
		go func() {
			defer close(ch)
			for _, obj := range objects {
				select {
				case ch <- obj:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch, nil
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantBucket string
		wantPrefix string
		wantType   string
	}{
		{"remote url", Config{RemoteURL: "s3://invoices/incoming/"}, "invoices", "incoming/", ""},
		{"bucket only", Config{RemoteURL: "s3://invoices"}, "invoices", "", ""},
		{"bucket name wins", Config{RemoteURL: "s3://invoices/in/", BucketName: "receipts"}, "receipts", "in/", ""},
		{"bucket name alone", Config{BucketName: "receipts"}, "receipts", "", ""},
		{"nothing", Config{}, "", "", httpapi.TypeConfigurationError},
		{"wrong scheme", Config{RemoteURL: "https://invoices"}, "", "", httpapi.TypeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := Locate(tt.cfg)
			if tt.wantType != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantType, httpapi.ErrorType(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		wantHost   string
		wantSecure bool
	}{
		{"", DefaultEndpoint, true},
		{"https://s3.eu-west-1.amazonaws.com", "s3.eu-west-1.amazonaws.com", true},
		{"http://localhost:9000", "localhost:9000", false},
		{"minio.internal:9000/", "minio.internal:9000", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, secure, err := endpoint(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestLister_List(t *testing.T) {
	modified := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLister(testConfig)

	var gotBucket, gotPrefix string
	inner := feed(
		minio.ObjectInfo{Key: "incoming/a.pdf", Size: 1024, LastModified: modified, ETag: "e1"},
		minio.ObjectInfo{Key: "incoming/b.pdf", Size: 2048, LastModified: modified},
	)
	l.list = func(ctx context.Context, cfg Config, bucket, prefix string) (<-chan minio.ObjectInfo, error) {
		gotBucket, gotPrefix = bucket, prefix
		return inner(ctx, cfg, bucket, prefix)
	}

	listing, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "invoices", gotBucket)
	assert.Equal(t, "incoming/", gotPrefix)
	assert.Equal(t, "invoices", listing.Bucket)
	assert.False(t, listing.Truncated)
	require.Len(t, listing.Objects, 2)
	assert.Equal(t, Object{Key: "incoming/a.pdf", Size: 1024, LastModified: modified, ETag: "e1"}, listing.Objects[0])
}

func TestLister_ListTruncates(t *testing.T) {
	l := NewLister(testConfig)
	l.list = feed(
		minio.ObjectInfo{Key: "a"},
		minio.ObjectInfo{Key: "b"},
		minio.ObjectInfo{Key: "c"},
	)

	listing, err := l.List(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, listing.Truncated)
	assert.Len(t, listing.Objects, 2)
}

func TestLister_ListError(t *testing.T) {
	l := NewLister(testConfig)
	l.list = feed(minio.ObjectInfo{Err: errors.New("AccessDenied")})

	_, err := l.List(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, httpapi.TypeNetworkError, httpapi.ErrorType(err))
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestLister_MissingCredentials(t *testing.T) {
	l := NewLister(func() Config { return Config{RemoteURL: "s3://invoices"} })

	_, err := l.List(context.Background(), 10)
	var cfgErr *httpapi.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"}, cfgErr.Missing)
}

func TestLister_ClientCached(t *testing.T) {
	l := NewLister(testConfig)

	c1, err := l.client(testConfig())
	require.NoError(t, err)
	c2, err := l.client(testConfig())
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	rotated := testConfig()
	rotated.SecretAccessKey = "rotated"
	c3, err := l.client(rotated)
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)
	assert.Len(t, l.clients, 1)
}
