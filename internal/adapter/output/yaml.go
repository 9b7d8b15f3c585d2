package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// YAMLFormatter formats results as YAML documents.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

func (f *YAMLFormatter) encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// Report writes r as YAML.
func (f *YAMLFormatter) Report(w io.Writer, r *injector.Report) error {
	return f.encode(w, r)
}

// Status writes s as YAML.
func (f *YAMLFormatter) Status(w io.Writer, s *injector.Status) error {
	return f.encode(w, s)
}

// Findings writes findings as a YAML sequence.
func (f *YAMLFormatter) Findings(w io.Writer, findings []injector.Finding) error {
	if findings == nil {
		findings = []injector.Finding{}
	}
	return f.encode(w, findings)
}

// History writes records as a YAML sequence.
func (f *YAMLFormatter) History(w io.Writer, records []store.Record) error {
	rows := make([]historyRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, newHistoryRow(r))
	}
	return f.encode(w, rows)
}

// Themes writes infos as a YAML sequence.
func (f *YAMLFormatter) Themes(w io.Writer, infos []theme.Info) error {
	return f.encode(w, themeRows(infos))
}

// historyRow is a journal record with a readable time, since store.Record
// carries no yaml tags.
type historyRow struct {
	ID      string   `yaml:"id"`
	Time    string   `yaml:"time"`
	Op      string   `yaml:"op"`
	Key     string   `yaml:"key,omitempty"`
	Added   []string `yaml:"added,omitempty"`
	Removed int      `yaml:"removed,omitempty"`
	Detail  string   `yaml:"detail,omitempty"`
	DryRun  bool     `yaml:"dry_run,omitempty"`
}

func newHistoryRow(r store.Record) historyRow {
	return historyRow{
		ID:      r.ID,
		Time:    r.Timestamp().Format("2006-01-02T15:04:05.000Z07:00"),
		Op:      string(r.Op),
		Key:     r.Key,
		Added:   r.Added,
		Removed: r.Removed,
		Detail:  r.Detail,
		DryRun:  r.DryRun,
	}
}
