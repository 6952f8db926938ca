package analysis

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alizenart/closeted/internal/core/domain"
)

func TestParseReadsLabelledLines(t *testing.T) {
	reply := "Here is the breakdown:\n- **Outerwear:** camel trench coat\n- Top: white cotton tee\n- Bottom: black wide-leg trousers\nShoes: white leather sneakers\n"
	got := Parse(reply)
	want := domain.ClothingAnalysis{
		Outerwear: "camel trench coat",
		Top:       "white cotton tee",
		Bottom:    "black wide-leg trousers",
		Shoes:     "white leather sneakers",
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParsePrefersJSONObject(t *testing.T) {
	got := Parse("```json\n{\"outerwear\":\"\",\"top\":\"grey hoodie\",\"bottom\":\"joggers\",\"shoes\":\"\"}\n```")
	if got.Top != "grey hoodie" || got.Bottom != "joggers" || got.Outerwear != "" || got.Shoes != "" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
}

func TestParseMissingFieldsStayEmpty(t *testing.T) {
	got := Parse("I cannot see any clothing in this picture.")
	if !got.IsEmpty() {
		t.Fatalf("expected empty analysis, got %+v", got)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	retryable := &HTTPStatusError{Provider: "openai", Operation: "chat", StatusCode: http.StatusTooManyRequests, Status: "429"}
	if !Classify(retryable).Retryable {
		t.Fatalf("429 must be retryable")
	}
	if !domain.IsKind(WrapTemporaryIfNeeded("analyze", retryable), domain.ErrTemporary) {
		t.Fatalf("429 must be wrapped as temporary")
	}

	rejected := &HTTPStatusError{Provider: "openai", Operation: "chat", StatusCode: http.StatusUnauthorized, Status: "401"}
	if Classify(rejected).Retryable {
		t.Fatalf("401 must not be retryable")
	}
	if Classify(context.DeadlineExceeded).RecordFailure {
		t.Fatalf("deadline must not count against the breaker")
	}
	if Classify(errors.New("boom")).Retryable {
		t.Fatalf("unknown errors are not retried")
	}
}

func TestDetectImageType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	if got := DetectImageType(png); got != "png" {
		t.Fatalf("expected png, got %s", got)
	}
	if got := DetectImageType([]byte("whatever")); got != "jpeg" {
		t.Fatalf("expected jpeg fallback, got %s", got)
	}
}
