package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
)

// BlobStore accepts an opaque binary (photo, signature) and returns the URL
// it is reachable at.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// GCSBlobStore writes to a Google Cloud Storage bucket.
type GCSBlobStore struct {
	bucket string
	client *storage.Client
}

func NewGCSBlobStore(ctx context.Context, bucket string) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create storage client")
	}
	return &GCSBlobStore{bucket: bucket, client: c}, nil
}

func (s *GCSBlobStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "write object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "close object writer")
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

// HTTPBlobStore posts the binary to an upload endpoint that answers with the
// stored URL. Used where no GCS bucket is provisioned.
type HTTPBlobStore struct {
	uploadURL string
	token     string
	httpc     *http.Client
}

func NewHTTPBlobStore(uploadURL, token string) *HTTPBlobStore {
	return &HTTPBlobStore{
		uploadURL: uploadURL,
		token:     token,
		httpc: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *HTTPBlobStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-File-Name", name)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	if resp.StatusCode/100 != 2 {
		return "", errors.Errorf("upload endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	if out.URL == "" {
		return "", errors.New("upload endpoint returned no url")
	}
	return out.URL, nil
}
