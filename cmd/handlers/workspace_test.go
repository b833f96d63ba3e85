package handlers

import (
	"context"
	"errors"
	"testing"

	"brandforge/internal/config"
	"brandforge/internal/core"
	"brandforge/internal/llm"
	"brandforge/internal/snapshot"
)

type fakeTextProvider struct {
	text string
	err  error
}

func (p *fakeTextProvider) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	return p.text, p.err
}

func (p *fakeTextProvider) GenerateImage(ctx context.Context, req llm.ImageRequest) (string, error) {
	return "", errors.New("not an image provider")
}

func newTestWorkspace(preferred *fakeTextProvider, fallback *fakeTextProvider) *workspace {
	registry := llm.NewRegistry()
	registry.Register("gemini", preferred)
	registry.Register("openai", fallback)

	doc := snapshot.New(&core.ContentGraph{})
	doc.Settings.PreferredModel = "gemini/flash"
	doc.Settings.FallbackOrder = []string{"gemini/flash", "openai/mini"}

	return &workspace{
		cfg:      &config.Config{},
		doc:      doc,
		registry: registry,
	}
}

func TestGenerateTextPersistsFallbackSubstitution(t *testing.T) {
	ws := newTestWorkspace(
		&fakeTextProvider{err: errors.New("gemini is down")},
		&fakeTextProvider{text: "from the fallback"},
	)

	got, err := ws.generateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generateText failed: %v", err)
	}
	if got != "from the fallback" {
		t.Errorf("text = %q", got)
	}
	if ws.doc.Settings.PreferredModel != "openai/mini" {
		t.Errorf("PreferredModel = %q, want the substituted winner openai/mini", ws.doc.Settings.PreferredModel)
	}
}

func TestGenerateTextKeepsPreferredWhenItWins(t *testing.T) {
	ws := newTestWorkspace(
		&fakeTextProvider{text: "from the preferred"},
		&fakeTextProvider{text: "never reached"},
	)

	got, err := ws.generateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generateText failed: %v", err)
	}
	if got != "from the preferred" {
		t.Errorf("text = %q", got)
	}
	if ws.doc.Settings.PreferredModel != "gemini/flash" {
		t.Errorf("PreferredModel = %q, want it unchanged", ws.doc.Settings.PreferredModel)
	}
}
