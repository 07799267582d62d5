// Package save writes catalog documents as JSON or YAML, to a path or to a
// writer.
package save

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// Format is a document encoding.
type Format int

// Supported encodings. FormatAuto picks YAML for .yaml and .yml paths and
// JSON otherwise.
const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// ParseFormat parses a format name such as "json" or "yml". The empty
// string selects FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, errors.NewValidationError("format", s, "must be json or yaml")
}

// Option configures Marshal and Write.
type Option func(*options)

type options struct {
	path   string
	writer io.Writer
	format Format
	indent string
}

func newOptions(opts []Option) (*options, error) {
	o := &options{format: FormatAuto, indent: "  "}
	for _, opt := range opts {
		opt(o)
	}
	switch o.format {
	case FormatAuto:
		o.format = formatForPath(o.path)
	case FormatJSON, FormatYAML:
	default:
		return nil, errors.NewValidationError("format", o.format, "unsupported format")
	}
	return o, nil
}

func formatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// WithFormat sets the encoding.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithPath sets the destination file. It also names the document in errors
// and drives FormatAuto.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithWriter writes to w instead of a file.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithIndent sets the JSON indentation; an empty string writes compact JSON.
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}
