package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/llm/analysis"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

const DefaultModel = "gemini-1.5-flash"

type generateFunc func(ctx context.Context, image []byte, format string) (string, error)

// Client tags outfit photos with Google Gemini.
type Client struct {
	client   *genai.Client
	fetcher  ports.Fetcher
	generate generateFunc
	executor *resilience.Executor
}

func New(ctx context.Context, apiKey, model string, fetcher ports.Fetcher) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is not set")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.SetMaxOutputTokens(300)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(analysis.SystemPrompt)}}

	return &Client{
		client:  client,
		fetcher: fetcher,
		generate: func(ctx context.Context, image []byte, format string) (string, error) {
			resp, err := gm.GenerateContent(ctx, genai.Text(analysis.UserPrompt), genai.ImageData(format, image))
			if err != nil {
				return "", err
			}
			return firstText(resp)
		},
	}, nil
}

func (c *Client) SetResilienceExecutor(executor *resilience.Executor) {
	c.executor = executor
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Analyze(ctx context.Context, imageRef string) (domain.ClothingAnalysis, error) {
	image, err := c.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return domain.ClothingAnalysis{}, fmt.Errorf("fetch image for analysis: %w", err)
	}

	var reply string
	call := func(ctx context.Context) error {
		text, err := c.generate(ctx, image, analysis.DetectImageType(image))
		if err != nil {
			return err
		}
		reply = text
		return nil
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "analyzer.gemini", call, analysis.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.ClothingAnalysis{}, fmt.Errorf("gemini analyze: %w", err)
	}
	return analysis.Parse(reply), nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("empty content returned from gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response format from gemini")
	}
	return sb.String(), nil
}
