package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// maxPayloadBytes caps how much of an export is read into memory.
const maxPayloadBytes = 32 << 20 // 32 MB

// Payload is a fetched tabular export.
type Payload struct {
	Data        []byte
	Name        string // object name or URL path, used for format detection
	ContentType string
}

// Fetcher retrieves one tabular export.
type Fetcher interface {
	Fetch(ctx context.Context) (Payload, error)
}

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// HTTPFetcher downloads an export with a GET request.
type HTTPFetcher struct {
	url    string
	client HTTPDoer
}

func NewHTTPFetcher(url string, client HTTPDoer) *HTTPFetcher {
	return &HTTPFetcher{url: strings.TrimSpace(url), client: client}
}

// Fetch executes the request; any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("get %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("get %s: unexpected status %d", f.url, resp.StatusCode)
	}
	data, err := readCapped(resp.Body)
	if err != nil {
		return Payload{}, fmt.Errorf("read body: %w", err)
	}
	return Payload{
		Data:        data,
		Name:        path.Base(req.URL.Path),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// S3Config locates an export in S3-compatible storage.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string
	Secure    bool
}

// S3Fetcher reads an export object with minio.
type S3Fetcher struct {
	client *minio.Client
	bucket string
	key    string
}

func NewS3Fetcher(cfg S3Config) (*S3Fetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3Fetcher{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Fetch downloads the whole object.
func (f *S3Fetcher) Fetch(ctx context.Context) (Payload, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, f.key, minio.GetObjectOptions{})
	if err != nil {
		return Payload{}, fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Close()

	data, err := readCapped(obj)
	if err != nil {
		return Payload{}, fmt.Errorf("s3 read object %s/%s: %w", f.bucket, f.key, err)
	}
	var contentType string
	if info, err := obj.Stat(); err == nil {
		contentType = info.ContentType
	}
	return Payload{Data: data, Name: f.key, ContentType: contentType}, nil
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayloadBytes {
		return nil, fmt.Errorf("payload exceeds %d bytes", maxPayloadBytes)
	}
	return data, nil
}
