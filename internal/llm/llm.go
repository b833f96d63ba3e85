package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"brandforge/internal/config"
)

const (
	// DefaultModel is the default Gemini model used for text generation.
	DefaultModel = "gemini-flash-lite-latest"
	// DefaultImageModel is the default Gemini model used for image generation.
	DefaultImageModel = "gemini-2.5-flash-image"
	// DefaultEmbeddingModel is the default model for generating embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the output dimension for embeddings (Matryoshka).
	DefaultEmbeddingDimensions = int32(768)
)

// TaskType marks an embedding input as a search query or a searched
// document; the two are embedded into the same space but with different
// instructions.
type TaskType string

const (
	TaskTypeQuery    TaskType = "RETRIEVAL_QUERY"
	TaskTypeDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Model           string   // Provider-specific model name
	Prompt          string   // Scene description
	AspectRatio     string   // e.g. "1:1", "9:16"
	ReferenceImages []string // Optional reference images as data URIs
}

// Provider is one generation backend: it turns prompts into text and
// images. Implementations are tried in orchestrated fallback order.
type Provider interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// Embedder produces embeddings for a batch of texts in as few requests as
// the backing API allows.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskTypes []TaskType) ([][]float64, error)
}

// GeminiClient wraps the Gemini API for text, image and embedding
// generation.
type GeminiClient struct {
	gClient        *genai.Client
	modelName      string
	imageModel     string
	embeddingModel string
}

// NewGeminiClient creates a Gemini client from configuration. The API key
// is required; model names fall back to the package defaults.
func NewGeminiClient(ctx context.Context, cfg config.Gemini) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in the config file")
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	client := &GeminiClient{
		gClient:        gClient,
		modelName:      cfg.Model,
		imageModel:     cfg.ImageModel,
		embeddingModel: cfg.EmbeddingModel,
	}
	if client.modelName == "" {
		client.modelName = DefaultModel
	}
	if client.imageModel == "" {
		client.imageModel = DefaultImageModel
	}
	if client.embeddingModel == "" {
		client.embeddingModel = DefaultEmbeddingModel
	}
	return client, nil
}

// GenerateText generates text with the given model, defaulting to the
// configured one when model is empty.
func (c *GeminiClient) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.modelName
	}
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}
	return text, nil
}

// GenerateImage generates one image and returns it as a data URI. Reference
// images (e.g. a persona photo) are passed as inline parts ahead of the
// prompt.
func (c *GeminiClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.imageModel
	}

	var parts []*genai.Part
	for _, ref := range req.ReferenceImages {
		mimeType, data, err := DecodeDataURI(ref)
		if err != nil {
			return "", fmt.Errorf("invalid reference image: %w", err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
	}
	prompt := req.Prompt
	if req.AspectRatio != "" {
		prompt = fmt.Sprintf("%s\n\nAspect ratio: %s", prompt, req.AspectRatio)
	}
	parts = append(parts, &genai.Part{Text: prompt})

	contents := []*genai.Content{{Parts: parts, Role: "user"}}
	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate image: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return EncodeDataURI(part.InlineData.MIMEType, part.InlineData.Data), nil
			}
		}
	}
	return "", fmt.Errorf("model %s returned no image data", model)
}

// EmbedBatch embeds all texts, tagging each as a query or a document. The
// API applies one task type per request, so inputs are grouped by task type
// and embedded in one batched call per group (at most two calls total),
// never one call per text.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string, taskTypes []TaskType) ([][]float64, error) {
	if len(texts) != len(taskTypes) {
		return nil, fmt.Errorf("texts and task types length mismatch: %d vs %d", len(texts), len(taskTypes))
	}
	vectors := make([][]float64, len(texts))

	groups := make(map[TaskType][]int)
	for i, taskType := range taskTypes {
		groups[taskType] = append(groups[taskType], i)
	}

	dims := DefaultEmbeddingDimensions
	for taskType, indexes := range groups {
		contents := make([]*genai.Content, len(indexes))
		for i, idx := range indexes {
			contents[i] = &genai.Content{
				Parts: []*genai.Part{{Text: texts[idx]}},
				Role:  "user",
			}
		}
		cfg := &genai.EmbedContentConfig{
			TaskType:             string(taskType),
			OutputDimensionality: &dims,
		}

		resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if resp == nil || len(resp.Embeddings) != len(indexes) {
			return nil, fmt.Errorf("embedding count mismatch: requested %d", len(indexes))
		}
		for i, idx := range indexes {
			values := resp.Embeddings[i].Values
			vector := make([]float64, len(values))
			for j, v := range values {
				vector[j] = float64(v)
			}
			vectors[idx] = vector
		}
	}
	return vectors, nil
}

// DecodeDataURI splits a "data:<mime>;base64,<payload>" URI into its MIME
// type and decoded bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mimeType, _, _ := strings.Cut(meta, ";")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// EncodeDataURI builds a base64 data URI from raw bytes.
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
