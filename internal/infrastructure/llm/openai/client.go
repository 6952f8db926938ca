package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/llm/analysis"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	maxTokens      = 300
)

// Client tags outfit photos with an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	fetcher    ports.Fetcher
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, fetcher ports.Fetcher) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		fetcher:    fetcher,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) SetResilienceExecutor(executor *resilience.Executor) {
	c.executor = executor
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze inlines the image as a data URI, so the provider never needs access to the blob store.
func (c *Client) Analyze(ctx context.Context, imageRef string) (domain.ClothingAnalysis, error) {
	if c.apiKey == "" {
		return domain.ClothingAnalysis{}, errors.New("openai api key is not set")
	}
	image, err := c.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return domain.ClothingAnalysis{}, fmt.Errorf("fetch image for analysis: %w", err)
	}

	dataURI := "data:image/" + analysis.DetectImageType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
	req := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: analysis.SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: analysis.UserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			}},
		},
		MaxTokens: maxTokens,
	}

	var resp chatResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/chat/completions", req, &resp, "chat")
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "analyzer.openai", call, analysis.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.ClothingAnalysis{}, analysis.WrapTemporaryIfNeeded("openai analyze", err)
	}
	if len(resp.Choices) == 0 {
		return domain.ClothingAnalysis{}, errors.New("openai chat returned no choices")
	}
	return analysis.Parse(resp.Choices[0].Message.Content), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &analysis.HTTPStatusError{
			Provider:   "openai",
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(msg),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
