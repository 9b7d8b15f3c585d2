package output

import (
	"encoding/json"
	"io"

	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// JSONFormatter formats results as indented JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Report writes r as a JSON object.
func (f *JSONFormatter) Report(w io.Writer, r *injector.Report) error {
	return f.encode(w, r)
}

// Status writes s as a JSON object.
func (f *JSONFormatter) Status(w io.Writer, s *injector.Status) error {
	return f.encode(w, s)
}

// Findings writes findings as a JSON array.
func (f *JSONFormatter) Findings(w io.Writer, findings []injector.Finding) error {
	if findings == nil {
		findings = []injector.Finding{}
	}
	return f.encode(w, findings)
}

// History writes records as a JSON array.
func (f *JSONFormatter) History(w io.Writer, records []store.Record) error {
	if records == nil {
		records = []store.Record{}
	}
	return f.encode(w, records)
}

// Themes writes infos as a JSON array.
func (f *JSONFormatter) Themes(w io.Writer, infos []theme.Info) error {
	return f.encode(w, themeRows(infos))
}

// themeRow is the serialised form of a theme.Info.
type themeRow struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description" yaml:"description"`
	Source      string `json:"source" yaml:"source"`
	Overridden  bool   `json:"overridden" yaml:"overridden"`
}

func themeRows(infos []theme.Info) []themeRow {
	rows := make([]themeRow, 0, len(infos))
	for _, i := range infos {
		rows = append(rows, themeRow{
			Name:        i.Name,
			Path:        i.Path,
			Description: i.Description,
			Source:      i.Source,
			Overridden:  i.Overridden,
		})
	}
	return rows
}
