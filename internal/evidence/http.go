package evidence

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"timeclock/internal/platform/config"
)

// HTTPUploader talks to a Supabase-storage-compatible object API: POST the
// bytes to /storage/v1/object/{bucket}/{key}, read back from the public URL.
type HTTPUploader struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	bucket     string
}

// NewHTTPUploader builds the bucket client. Returns nil when no endpoint is
// configured; callers treat a nil uploader as permanently degraded.
func NewHTTPUploader(cfg config.StorageConfig) *HTTPUploader {
	if cfg.Endpoint == "" {
		return nil
	}
	return &HTTPUploader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		bucket:     cfg.Bucket,
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, key, mimeType string, data []byte) (string, error) {
	if u == nil {
		return "", fmt.Errorf("evidence storage not configured")
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", u.endpoint, u.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	// Overwrite on key collision rather than failing the flow.
	req.Header.Set("x-upsert", "true")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload evidence: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload evidence: unexpected status %d", resp.StatusCode)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.endpoint, u.bucket, key), nil
}
