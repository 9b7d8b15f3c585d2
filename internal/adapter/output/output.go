// Package output renders woodfish reports for terminals and scripts.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// Formatter renders the results of woodfish commands.
type Formatter interface {
	// Report writes the outcome of a mutating operation.
	Report(w io.Writer, r *injector.Report) error
	// Status writes an installation snapshot.
	Status(w io.Writer, s *injector.Status) error
	// Findings writes doctor results.
	Findings(w io.Writer, findings []injector.Finding) error
	// History writes journal records, oldest first.
	History(w io.Writer, records []store.Record) error
	// Themes writes the asset catalog.
	Themes(w io.Writer, infos []theme.Info) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// Formats lists the supported format names.
var Formats = []FormatType{FormatPlain, FormatJSON, FormatYAML}

// ParseFormat parses a format name.
func ParseFormat(s string) (FormatType, error) {
	switch FormatType(strings.ToLower(s)) {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want plain, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string // Custom template for plain history lines
	Color    bool   // Style plain output with ANSI colours
	ShowDiff bool   // Include dry-run diffs in plain reports
	Verbose  bool   // List every import entry in plain status
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Color:    true,
		ShowDiff: true,
	}
}
