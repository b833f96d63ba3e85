package media

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"brandforge/internal/config"
	"brandforge/internal/core"
)

func newTestUploader(t *testing.T, handler http.HandlerFunc) *Uploader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewUploader(config.Media{Endpoint: server.URL, APIKey: "mk"})
}

// echoHandler returns a fake URL for every uploaded key.
func echoHandler(t *testing.T, uploaded *[][]string) http.HandlerFunc {
	var mu sync.Mutex
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Blobs map[string]string `json:"blobs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad upload payload: %v", err)
		}
		urls := make(map[string]string, len(req.Blobs))
		var keys []string
		for key := range req.Blobs {
			urls[key] = "https://cdn.example.com/" + key
			keys = append(keys, key)
		}
		mu.Lock()
		*uploaded = append(*uploaded, keys)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"urls": urls})
	}
}

func TestUpload_OnlyDataURIsAreUploaded(t *testing.T) {
	var uploaded [][]string
	uploader := newTestUploader(t, echoHandler(t, &uploaded))

	blobs := map[core.MediaKey]string{
		"img-1": "data:image/png;base64,AAAA",
		"img-2": "https://cdn.example.com/img-2", // already a URL
	}
	urls, err := uploader.Upload(context.Background(), blobs)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if urls["img-1"] != "https://cdn.example.com/img-1" {
		t.Errorf("img-1 = %q", urls["img-1"])
	}
	if urls["img-2"] != "https://cdn.example.com/img-2" {
		t.Errorf("existing URL should pass through, got %q", urls["img-2"])
	}

	total := 0
	for _, batch := range uploaded {
		total += len(batch)
		for _, key := range batch {
			if key != "img-1" {
				t.Errorf("unexpected upload of %q", key)
			}
		}
	}
	if total != 1 {
		t.Errorf("uploaded %d keys, want 1", total)
	}
}

func TestUpload_ChunksLargeMaps(t *testing.T) {
	var uploaded [][]string
	uploader := newTestUploader(t, echoHandler(t, &uploaded))

	blobs := make(map[core.MediaKey]string)
	for i := 0; i < 12; i++ {
		blobs[core.MediaKey(string(rune('a'+i)))] = "data:image/png;base64,AAAA"
	}
	urls, err := uploader.Upload(context.Background(), blobs)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if len(urls) != 12 {
		t.Errorf("len(urls) = %d, want 12", len(urls))
	}
	if len(uploaded) != 3 {
		t.Errorf("batches = %d, want 3 (12 keys at 5 per batch)", len(uploaded))
	}
}

func TestUpload_MissingURLIsUploadFailure(t *testing.T) {
	uploader := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"urls": map[string]string{}})
	})

	_, err := uploader.Upload(context.Background(), map[core.MediaKey]string{
		"img-1": "data:image/png;base64,AAAA",
	})
	if !errors.Is(err, ErrUploadFailure) {
		t.Errorf("err = %v, want ErrUploadFailure", err)
	}
}

func TestUpload_EmptyMapMakesNoRequests(t *testing.T) {
	uploader := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	urls, err := uploader.Upload(context.Background(), map[core.MediaKey]string{})
	if err != nil || len(urls) != 0 {
		t.Errorf("Upload = (%v, %v)", urls, err)
	}
}

func TestIsDataURI(t *testing.T) {
	if !IsDataURI("data:image/png;base64,AAAA") {
		t.Error("data URI not recognized")
	}
	if IsDataURI("https://example.com/a.png") {
		t.Error("URL misclassified as data URI")
	}
}
