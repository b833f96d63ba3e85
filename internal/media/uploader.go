package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"brandforge/internal/config"
	"brandforge/internal/core"
	"brandforge/internal/logger"
)

// ErrUploadFailure is returned when the media store accepted a batch but
// did not return a public URL for one of its keys.
var ErrUploadFailure = errors.New("media store returned no URL for an uploaded key")

// batchSize bounds how many blobs travel in one upload request; data URIs
// are large, so batches stay small.
const batchSize = 5

// Uploader pushes base64 data URIs to the object/media store and gets
// public URLs back. Entries whose value is already a URL are returned
// unchanged without an upload.
type Uploader struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewUploader creates an uploader for the configured media store.
func NewUploader(cfg config.Media) *Uploader {
	return &Uploader{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type uploadResponse struct {
	URLs map[string]string `json:"urls"`
}

// Upload uploads every data-URI entry of blobs and returns the full key to
// public URL map, including the entries that already were URLs. Batches
// are uploaded concurrently; each key appears in exactly one batch, so the
// fan-out never races on a single resource.
func (u *Uploader) Upload(ctx context.Context, blobs map[core.MediaKey]string) (map[core.MediaKey]string, error) {
	result := make(map[core.MediaKey]string, len(blobs))
	var pending []core.MediaKey
	for key, value := range blobs {
		if IsDataURI(value) {
			pending = append(pending, key)
		} else if value != "" {
			// Already uploaded in a previous pass.
			result[key] = value
		}
	}
	if len(pending) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		g.Go(func() error {
			urls, err := u.uploadBatch(gctx, batch, blobs)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for key, publicURL := range urls {
				result[key] = publicURL
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, key := range pending {
		if result[key] == "" {
			return nil, fmt.Errorf("%w: %s", ErrUploadFailure, key)
		}
	}
	logger.Debug("uploaded media blobs", "count", len(pending))
	return result, nil
}

func (u *Uploader) uploadBatch(ctx context.Context, keys []core.MediaKey, blobs map[core.MediaKey]string) (map[core.MediaKey]string, error) {
	payload := make(map[string]string, len(keys))
	for _, key := range keys {
		payload[string(key)] = blobs[key]
	}
	body, err := json.Marshal(map[string]any{"blobs": payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upload payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("media store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode media store response: %w", err)
	}
	urls := make(map[core.MediaKey]string, len(parsed.URLs))
	for key, publicURL := range parsed.URLs {
		urls[core.MediaKey(key)] = publicURL
	}
	return urls, nil
}

// IsDataURI reports whether the value is an inline base64 data URI rather
// than an already uploaded URL.
func IsDataURI(value string) bool {
	return strings.HasPrefix(value, "data:")
}
