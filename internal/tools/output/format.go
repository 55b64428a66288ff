package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// Format is the rendering of a tool result.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "" (json), in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q, expected json or yaml", s)
	}
}

// Render marshals v in the given format. JSON is indented.
func Render(v interface{}, format Format) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(v)
	case FormatJSON, "":
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}
	return string(data), nil
}
