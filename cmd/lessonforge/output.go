package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Output formats for generated and exported lessons.
const (
	formatMarkdown = "md"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

// parseFormat normalises a --format value. An empty value is inferred from the
// output file extension and defaults to markdown.
func parseFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			return formatJSON, nil
		case ".yaml", ".yml":
			return formatYAML, nil
		default:
			return formatMarkdown, nil
		}
	}
	switch strings.ToLower(format) {
	case "md", "markdown":
		return formatMarkdown, nil
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q: use md, json or yaml", format)
	}
}

// encode renders v as JSON or YAML. markdown is used verbatim for the md format.
// YAML goes through JSON first so both formats share the json field names.
func encode(v any, markdown, format string) ([]byte, error) {
	switch format {
	case formatMarkdown:
		if !strings.HasSuffix(markdown, "\n") {
			markdown += "\n"
		}
		return []byte(markdown), nil
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	case formatYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		data, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
