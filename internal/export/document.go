// Package export writes inventory documents as trees (JSON, YAML) and tables (CSV).
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", &UnsupportedFormatError{Format: s}
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	return string(f)
}

// WriteDocument serializes the whole document as a tree. Non-ASCII text is
// written as-is.
func WriteDocument(w io.Writer, doc resource.Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return &UnsupportedFormatError{Format: string(format)}
	}
}

// ExportDocument writes the document to path, creating parent directories.
func ExportDocument(path string, doc resource.Document, format Format) error {
	if format != FormatJSON && format != FormatYAML {
		return &UnsupportedFormatError{Format: string(format)}
	}

	f, err := create(path)
	if err != nil {
		return err
	}

	if err := WriteDocument(f, doc, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("records", doc.Total()).Msg("inventory exported")
	return nil
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
