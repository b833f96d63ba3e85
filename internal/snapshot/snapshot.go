package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"brandforge/internal/core"
)

// Version is the current snapshot document version. Older documents are
// still loaded as long as the required keys are present.
const Version = 2

// Settings is the per-project portion of configuration that travels with
// the snapshot, including the generation candidate order. When the
// orchestrator substitutes a fallback candidate for the preferred one the
// caller writes the substitution back here.
type Settings struct {
	PreferredModel string   `json:"preferred_model"`           // "provider/model" ref tried first
	FallbackOrder  []string `json:"fallback_order"`            // Remaining candidate refs in order
	AspectRatio    string   `json:"aspect_ratio,omitempty"`    // Default image aspect ratio
	TopSuggestions int      `json:"top_suggestions,omitempty"` // How many products Suggest returns
}

// Document is the versioned on-disk form of one project: the content graph
// plus settings and the media blob maps the graph's media keys point into.
type Document struct {
	Version         int                      `json:"version"`
	CreatedAt       time.Time                `json:"createdAt"`
	ContentGraph    *core.ContentGraph       `json:"contentGraph"`
	Settings        *Settings                `json:"settings"`
	ImageBlobMap    map[core.MediaKey]string `json:"imageBlobMap,omitempty"`
	VideoBlobMap    map[core.MediaKey]string `json:"videoBlobMap,omitempty"`
	RemoteProjectID string                   `json:"remoteProjectId,omitempty"`
}

// New creates a fresh document around a graph with default settings.
func New(graph *core.ContentGraph) *Document {
	return &Document{
		Version:      Version,
		CreatedAt:    time.Now().UTC(),
		ContentGraph: graph,
		Settings: &Settings{
			PreferredModel: "gemini/gemini-flash-lite-latest",
			AspectRatio:    "1:1",
			TopSuggestions: 3,
		},
		ImageBlobMap: make(map[core.MediaKey]string),
		VideoBlobMap: make(map[core.MediaKey]string),
	}
}

// Save writes the document as JSON, creating parent directories as needed.
// The write goes through a temp file and rename so a crash cannot leave a
// truncated snapshot behind.
func Save(path string, doc *Document) error {
	if doc.Version == 0 {
		doc.Version = Version
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads and validates a snapshot. A document without a content graph
// or settings is rejected as corrupt rather than silently opened empty.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if doc.ContentGraph == nil {
		return nil, fmt.Errorf("invalid snapshot %s: missing contentGraph", path)
	}
	if doc.Settings == nil {
		return nil, fmt.Errorf("invalid snapshot %s: missing settings", path)
	}
	if doc.ImageBlobMap == nil {
		doc.ImageBlobMap = make(map[core.MediaKey]string)
	}
	if doc.VideoBlobMap == nil {
		doc.VideoBlobMap = make(map[core.MediaKey]string)
	}
	return &doc, nil
}
