package llm

import (
	"testing"

	"brandforge/internal/config"
)

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIClient(config.OpenAI{}); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestNewOpenAIClientDefaultsModels(t *testing.T) {
	client, err := NewOpenAIClient(config.OpenAI{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	if client.modelName != "gpt-4o-mini" {
		t.Errorf("modelName = %q, want gpt-4o-mini", client.modelName)
	}
	if client.imageModel != "gpt-image-1" {
		t.Errorf("imageModel = %q, want gpt-image-1", client.imageModel)
	}
}

func TestNewOpenAIClientKeepsConfiguredModels(t *testing.T) {
	client, err := NewOpenAIClient(config.OpenAI{APIKey: "sk-test", Model: "gpt-4o", ImageModel: "dall-e-3"})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	if client.modelName != "gpt-4o" {
		t.Errorf("modelName = %q, want gpt-4o", client.modelName)
	}
	if client.imageModel != "dall-e-3" {
		t.Errorf("imageModel = %q, want dall-e-3", client.imageModel)
	}
}

func TestImageSizeForAspect(t *testing.T) {
	cases := []struct {
		aspect string
		want   string
	}{
		{"9:16", "1024x1792"},
		{"16:9", "1792x1024"},
		{"1:1", "1024x1024"},
		{"", "1024x1024"},
	}
	for _, tc := range cases {
		if got := imageSizeForAspect(tc.aspect); got != tc.want {
			t.Errorf("imageSizeForAspect(%q) = %q, want %q", tc.aspect, got, tc.want)
		}
	}
}
