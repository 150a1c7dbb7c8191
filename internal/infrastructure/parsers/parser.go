// Package parsers reads catalogue reference lists for batch packet lookup.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawReference is one catalogue reference read from a list, before it is
// resolved to a packet id. A zero Year means the list gave none.
type RawReference struct {
	Reference string `json:"mhg"`
	Year      int    `json:"year,omitempty"`
	LineNum   int    `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing reference lists.
type Parser interface {
	Parse(r io.Reader) ([]RawReference, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// FormatFromPath guesses the list format from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
