package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google's Gemini
// models via the official GenAI SDK.
type GeminiProvider struct{}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) GenerateResponse(ctx context.Context, systemPrompt string, userPrompt string, opts Options) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY_MISSING: Please set GEMINI_API_KEY env var")
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("GEMINI_CLIENT_ERROR: %v", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Seed != 0 {
		config.Seed = genai.Ptr(int32(opts.Seed))
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("GEMINI_API_CALL_ERROR: %v", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("GEMINI_EMPTY_RESPONSE: model returned no text")
	}
	return text, nil
}
