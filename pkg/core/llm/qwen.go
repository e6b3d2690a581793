package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// QwenProvider calls the native DashScope text-generation endpoint.
// DashScope wraps the chat payload in input/parameters envelopes instead
// of the OpenAI wire format.
type QwenProvider struct{}

var _ Provider = (*QwenProvider)(nil)

type qwenRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []Message `json:"messages"`
	} `json:"input"`
	Parameters struct {
		ResultFormat string  `json:"result_format"`
		Temperature  float64 `json:"temperature"`
		MaxTokens    int     `json:"max_tokens,omitempty"`
		Seed         int     `json:"seed,omitempty"`
	} `json:"parameters"`
}

type qwenResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		// Some DashScope endpoints return text directly in output.
		Text string `json:"text"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *QwenProvider) Name() string { return "qwen" }

func (p *QwenProvider) GenerateResponse(ctx context.Context, systemPrompt string, userPrompt string, opts Options) (string, error) {
	apiKey := os.Getenv("DASHSCOPE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("QWEN_API_KEY_MISSING: Please set DASHSCOPE_API_KEY or QWEN_API_KEY")
	}

	model := opts.Model
	if model == "" {
		model = "qwen-max"
	}

	var reqBody qwenRequest
	reqBody.Model = model
	reqBody.Input.Messages = []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
	reqBody.Parameters.ResultFormat = "message"
	reqBody.Parameters.Temperature = opts.Temperature
	reqBody.Parameters.MaxTokens = opts.MaxTokens
	reqBody.Parameters.Seed = opts.Seed

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("QWEN_MARSHAL_ERROR: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation",
		bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("QWEN_REQ_CREATE_ERROR: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("QWEN_API_CALL_ERROR: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("QWEN_READ_BODY_ERROR: %v", err)
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("QWEN_API_ERROR: status=%d body=%s", res.StatusCode, string(body))
	}

	var response qwenResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("QWEN_UNMARSHAL_ERROR: %v", err)
	}
	if response.Code != "" {
		return "", fmt.Errorf("QWEN_API_ERROR: %s - %s", response.Code, response.Message)
	}
	if len(response.Output.Choices) > 0 {
		return response.Output.Choices[0].Message.Content, nil
	}
	if response.Output.Text != "" {
		return response.Output.Text, nil
	}
	return "", fmt.Errorf("QWEN_NO_CHOICES: %s", string(body))
}
