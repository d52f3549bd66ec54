// Package output serializes processing results for the CLI.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format represents output format types.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatYAML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (available: json, yaml)", name)
	}
}

// Writer serializes one result at a time.
type Writer interface {
	Write(data any) error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing for JSON output.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string for JSON output.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return &JSONWriter{w: w, pretty: cfg.pretty, indent: cfg.indent}, nil
	case FormatYAML:
		return &YAMLWriter{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSONWriter writes JSON output.
type JSONWriter struct {
	w      io.Writer
	pretty bool
	indent string
}

// Write serializes one result as a JSON document followed by a newline.
func (w *JSONWriter) Write(data any) error {
	var out []byte
	var err error
	if w.pretty {
		out, err = json.MarshalIndent(data, "", w.indent)
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w.w)
	if _, err := bw.Write(out); err != nil {
		return err
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// YAMLWriter writes YAML output.
type YAMLWriter struct {
	w io.Writer
}

// Write serializes one result as a YAML document.
func (w *YAMLWriter) Write(data any) error {
	bw := bufio.NewWriter(w.w)
	encoder := yaml.NewEncoder(bw)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return bw.Flush()
}
