package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/alizenart/closeted/internal/core/domain"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	idColor    = color.New(color.FgCyan).SprintFunc()
	scoreColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	mutedColor = color.New(color.FgHiBlack).SprintFunc()
)

// render writes v as json or yaml, or calls text for the human format.
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		generic, err := jsonShape(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

func formatAnalysis(a domain.ClothingAnalysis) string {
	if a.IsEmpty() {
		return mutedColor("no analysis")
	}
	return fmt.Sprintf("outerwear=%q top=%q bottom=%q shoes=%q", a.Outerwear, a.Top, a.Bottom, a.Shoes)
}

// jsonShape re-decodes v so yaml output uses the same field names as the API.
func jsonShape(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
