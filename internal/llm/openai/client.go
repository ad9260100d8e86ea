package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"bare-backend/internal/llm"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

const visionMaxTokens = 500

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey        string
	compatModel   string
	visionModel   string
	promptVersion string
	apiURL        string
	httpClient    *http.Client
}

// NewClient constructs a new OpenAI client. promptVersion selects the
// routine-analysis prompt ("v1" legacy full-matrix, "v2" risk-only).
func NewClient(apiKey, compatModel, visionModel, promptVersion string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(compatModel) == "" {
		return nil, fmt.Errorf("COMPAT_MODEL is required")
	}
	if strings.TrimSpace(visionModel) == "" {
		return nil, fmt.Errorf("VISION_MODEL is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:        apiKey,
		compatModel:   compatModel,
		visionModel:   visionModel,
		promptVersion: promptVersion,
		apiURL:        defaultAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is a string for text-only messages or a part list for
	// multimodal messages.
	Content any `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AnalyzeRoutine sends the product list with the routine-analysis prompt
// and returns the reply content verbatim.
func (c *Client) AnalyzeRoutine(ctx context.Context, products []string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{"products": products})
	if err != nil {
		return nil, err
	}
	temp := float32(0)
	req := chatRequest{
		Model: c.compatModel,
		Messages: []chatMessage{
			{Role: "system", Content: llm.RoutinePrompt(c.promptVersion)},
			{Role: "user", Content: llm.RoutineUserPrompt},
			{Role: "user", Content: string(payload)},
		},
		Temperature:    &temp,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	return c.complete(ctx, req)
}

// ExtractProducts sends the image inline as a data URL with the label
// extraction prompt and returns the reply content verbatim.
func (c *Client) ExtractProducts(ctx context.Context, image llm.Image) (json.RawMessage, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", image.MIMEType, base64.StdEncoding.EncodeToString(image.Data))
	temp := float32(0.1)
	req := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{Role: "system", Content: llm.LabelPrompt()},
			{Role: "user", Content: []any{
				textPart{Type: "text", Text: llm.LabelUserPrompt},
				imagePart{Type: "image_url", ImageURL: imageURL{URL: dataURL}},
			}},
		},
		Temperature: &temp,
		MaxTokens:   visionMaxTokens,
	}
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx context.Context, reqBody chatRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Raw upstream error bodies stay in the logs and never reach clients.
		log.Printf("openai error status=%d model=%s body=%s", resp.StatusCode, reqBody.Model, truncate(string(body), 512))
		return nil, &llm.StatusError{StatusCode: resp.StatusCode}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, llm.ErrEmptyContent
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, llm.ErrEmptyContent
	}
	logUsage(reqBody.Model, parsed.Usage)
	return json.RawMessage(content), nil
}

func logUsage(model string, usage *chatUsage) {
	if usage == nil {
		log.Printf("llm response model=%s", model)
		return
	}
	log.Printf("llm response model=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
