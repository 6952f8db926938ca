// Package analysis holds what every vision provider shares: the fashion
// prompt, parsing of the model reply into tags, and HTTP error classification.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

const SystemPrompt = "You are a fashion expert. Analyze the clothing in the image and describe the outerwear, top, bottom, and shoes. " +
	"Be specific but concise. If an item is not present, leave it blank."

const UserPrompt = "Please analyze this outfit and describe the outerwear, top, bottom, and shoes. " +
	"For each piece, specify the color and style. If an item is not present, leave it blank."

// JSONPrompt asks models that support a JSON response format for the tags directly.
const JSONPrompt = SystemPrompt + "\n" +
	`Return a strict JSON object with string keys outerwear, top, bottom, shoes. No markdown, no extra keys.`

var fieldPatterns = map[string]*regexp.Regexp{
	"outerwear": regexp.MustCompile(`(?i)outerwear:[ \t]*([^\n]*)`),
	"top":       regexp.MustCompile(`(?i)top:[ \t]*([^\n]*)`),
	"bottom":    regexp.MustCompile(`(?i)bottom:[ \t]*([^\n]*)`),
	"shoes":     regexp.MustCompile(`(?i)shoes:[ \t]*([^\n]*)`),
}

// Parse turns a model reply into tags. A JSON object wins; otherwise each
// field is read from a "<field>: value" line. Missing fields stay empty.
func Parse(reply string) domain.ClothingAnalysis {
	if obj := extractJSONObject(reply); obj != "" {
		var parsed domain.ClothingAnalysis
		if err := json.Unmarshal([]byte(obj), &parsed); err == nil && !parsed.IsEmpty() {
			return clean(parsed)
		}
	}
	return clean(domain.ClothingAnalysis{
		Outerwear: matchField(reply, "outerwear"),
		Top:       matchField(reply, "top"),
		Bottom:    matchField(reply, "bottom"),
		Shoes:     matchField(reply, "shoes"),
	})
}

func matchField(reply, field string) string {
	m := fieldPatterns[field].FindStringSubmatch(reply)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func clean(a domain.ClothingAnalysis) domain.ClothingAnalysis {
	trim := func(v string) string {
		v = strings.TrimSpace(v)
		v = strings.Trim(v, "*_`\"")
		return strings.TrimSpace(v)
	}
	return domain.ClothingAnalysis{
		Outerwear: trim(a.Outerwear),
		Top:       trim(a.Top),
		Bottom:    trim(a.Bottom),
		Shoes:     trim(a.Shoes),
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

// DetectImageType returns the short image type for data URIs and inline parts.
func DetectImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpeg"
	}
}

type HTTPStatusError struct {
	Provider   string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "analyzer status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s %s status: %s", e.Provider, e.Operation, e.Status)
	}
	return fmt.Sprintf("%s %s status: %s: %s", e.Provider, e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func Classify(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if IsRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func WrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	class := Classify(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
