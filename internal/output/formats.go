package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/signbench/internal/engine"
)

// Format represents the available result formats
type Format string

const (
	// FormatText is the default human-readable text format
	FormatText Format = "text"
	// FormatJSON outputs the result as a JSON document
	FormatJSON Format = "json"
	// FormatYAML outputs the result as a YAML document
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// ParseFormat parses a format name, case-insensitively. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Report is the machine-readable description of a finished run.
type Report struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Key    string `json:"key" yaml:"key"`
	Digest string `json:"digest" yaml:"digest"`

	engine.Result `yaml:",inline"`

	WindowSeconds float64 `json:"windowSeconds" yaml:"windowSeconds"`
}

// NewReport builds the report of res.
func NewReport(name, key, digest string, res *engine.Result) *Report {
	return &Report{
		Name:          name,
		Key:           key,
		Digest:        digest,
		Result:        *res,
		WindowSeconds: res.Window.Seconds(),
	}
}

// WriteReport encodes r to w in the given machine-readable format.
func WriteReport(w io.Writer, format Format, r *Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode YAML report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %s has no report encoding", format)
	}
}
