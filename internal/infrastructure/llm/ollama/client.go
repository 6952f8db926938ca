package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/llm/analysis"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

// Client tags outfit photos with a local vision model (llava, llama3.2-vision, ...).
type Client struct {
	baseURL    string
	model      string
	fetcher    ports.Fetcher
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, fetcher ports.Fetcher) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		fetcher:    fetcher,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) SetResilienceExecutor(executor *resilience.Executor) {
	c.executor = executor
}

// Analyze downloads the stored image and asks the model for the four clothing tags.
func (c *Client) Analyze(ctx context.Context, imageURL string) (domain.ClothingAnalysis, error) {
	image, err := c.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return domain.ClothingAnalysis{}, fmt.Errorf("fetch image for analysis: %w", err)
	}

	reqBody := map[string]any{
		"model":  c.model,
		"prompt": analysis.JSONPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(image)},
		"stream": false,
		"format": "json",
	}

	var reply string
	call := func(ctx context.Context) error {
		text, err := c.generate(ctx, reqBody)
		if err != nil {
			return err
		}
		reply = text
		return nil
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "analyzer.ollama", call, analysis.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.ClothingAnalysis{}, analysis.WrapTemporaryIfNeeded("ollama analyze", err)
	}
	return analysis.Parse(reply), nil
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
