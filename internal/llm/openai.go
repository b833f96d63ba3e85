package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"brandforge/internal/config"
)

// OpenAIClient is the OpenAI-backed provider, used as a fallback candidate
// behind Gemini.
type OpenAIClient struct {
	client     *openai.Client
	modelName  string
	imageModel string
}

// NewOpenAIClient creates an OpenAI client from configuration.
func NewOpenAIClient(cfg config.OpenAI) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required. Set OPENAI_API_KEY or ai.openai.api_key in the config file")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	client := &OpenAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		modelName:  cfg.Model,
		imageModel: cfg.ImageModel,
	}
	if client.modelName == "" {
		client.modelName = "gpt-4o-mini"
	}
	if client.imageModel == "" {
		client.imageModel = "gpt-image-1"
	}
	return client, nil
}

// GenerateText generates text via the chat completions API.
func (c *OpenAIClient) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.modelName
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage generates one image and returns it as a data URI. The
// images API has no reference image input, so references are ignored here;
// callers that need them route to a provider that supports them.
func (c *OpenAIClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.imageModel
	}
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           imageSizeForAspect(req.AspectRatio),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("model %s returned no image data", model)
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// imageSizeForAspect maps an aspect ratio onto the nearest supported size.
func imageSizeForAspect(aspectRatio string) string {
	switch aspectRatio {
	case "9:16", "3:4", "2:3":
		return "1024x1792"
	case "16:9", "4:3", "3:2":
		return "1792x1024"
	default:
		return "1024x1024"
	}
}
