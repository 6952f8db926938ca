package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

type fetcherFake struct {
	data []byte
}

func (f fetcherFake) Fetch(context.Context, string) ([]byte, error) {
	return f.data, nil
}

func TestAnalyzeParsesGeneratedText(t *testing.T) {
	var gotFormat string
	c := &Client{
		fetcher: fetcherFake{data: []byte("\x89PNG\r\n\x1a\n....")},
		generate: func(_ context.Context, _ []byte, format string) (string, error) {
			gotFormat = format
			return "Outerwear: denim jacket\nTop: striped shirt\nBottom:\nShoes: boots", nil
		},
	}

	got, err := c.Analyze(context.Background(), "http://closet.local/blobs/a.png")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Outerwear != "denim jacket" || got.Top != "striped shirt" || got.Bottom != "" || got.Shoes != "boots" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if gotFormat != "png" {
		t.Fatalf("expected png format, got %s", gotFormat)
	}
}

func TestAnalyzePropagatesGenerateError(t *testing.T) {
	c := &Client{
		fetcher: fetcherFake{data: []byte("x")},
		generate: func(context.Context, []byte, string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	if _, err := c.Analyze(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFirstTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Top: tee\n"), genai.Text("Shoes: flats")}},
	}}}
	got, err := firstText(resp)
	if err != nil || got != "Top: tee\nShoes: flats" {
		t.Fatalf("unexpected text %q (%v)", got, err)
	}
	if _, err := firstText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), "", "", fetcherFake{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
