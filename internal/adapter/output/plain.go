package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// PlainFormatter formats results as human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

func (f *PlainFormatter) paint(style lipgloss.Style, s string) string {
	if !f.opts.Color {
		return s
	}
	return style.Render(s)
}

func (f *PlainFormatter) level(l injector.Level) string {
	switch l {
	case injector.LevelOK:
		return f.paint(okStyle, "ok")
	case injector.LevelWarn:
		return f.paint(warnStyle, "warn")
	default:
		return f.paint(errorStyle, "error")
	}
}

// Report writes a summary of r, one line per changed key.
func (f *PlainFormatter) Report(w io.Writer, r *injector.Report) error {
	var sb strings.Builder

	prefix := ""
	if r.DryRun {
		prefix = "would "
	}

	if !r.Changed() {
		sb.WriteString(fmt.Sprintf("%s: nothing to do\n", r.Op))
	}
	for _, file := range r.Assets {
		sb.WriteString(fmt.Sprintf("%swrote %s\n", prefix, file))
	}
	for _, c := range r.Changes {
		target := c.Key
		if target == "" {
			target = strings.Join(c.Settings, ", ")
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", f.paint(headerStyle, target), f.paint(labelStyle, c.Path)))
		for _, uri := range c.Added {
			sb.WriteString(fmt.Sprintf("  %s %s%s\n", f.paint(addStyle, "+"), prefix, uri))
		}
		if c.Removed > 0 {
			sb.WriteString(fmt.Sprintf("  %s %sremove %s\n", f.paint(delStyle, "-"), prefix, plural(c.Removed, "entry", "entries")))
		}
		if c.Key == "" && len(c.Settings) > 0 {
			sb.WriteString(fmt.Sprintf("  %supdate %s\n", prefix, plural(len(c.Settings), "setting", "settings")))
		}
		if f.opts.ShowDiff && c.Diff != "" {
			sb.WriteString(f.diff(c.Diff))
		}
	}
	if h := r.HTML; h != nil && h.Removed > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.paint(headerStyle, "workbench"), f.paint(labelStyle, h.Path)))
		sb.WriteString(fmt.Sprintf("  %s %sremove %s\n", f.paint(delStyle, "-"), prefix, plural(h.Removed, "injection", "injections")))
		if h.Backup != "" {
			sb.WriteString(fmt.Sprintf("  backup %s\n", h.Backup))
		}
		if f.opts.ShowDiff && h.Diff != "" {
			sb.WriteString(f.diff(h.Diff))
		}
	}
	for _, warning := range r.Warnings {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.level(injector.LevelWarn), warning))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *PlainFormatter) diff(d string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(d, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			line = f.paint(addStyle, strings.TrimSuffix(line, "\n")) + "\n"
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			line = f.paint(delStyle, strings.TrimSuffix(line, "\n")) + "\n"
		}
		sb.WriteString("    " + line)
	}
	if !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Status writes s as a short overview followed by one block per key.
func (f *PlainFormatter) Status(w io.Writer, s *injector.Status) error {
	var sb strings.Builder

	row := func(label, value string) {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.paint(labelStyle, fmt.Sprintf("%-10s", label+":")), value))
	}

	active := f.paint(warnStyle, "inactive")
	if s.Active {
		active = f.paint(okStyle, "active")
	}
	editorName := s.Editor
	if s.EditorVersion != "" {
		editorName += " " + s.EditorVersion
	}
	row("theme", fmt.Sprintf("%s (%s)", s.Theme, active))
	row("editor", editorName)
	row("settings", s.SettingsPath)
	row("assets", s.AssetsDir)
	if !s.EnabledAt.IsZero() {
		row("enabled", humanize.Time(s.EnabledAt))
	}
	if !s.LastValidated.IsZero() {
		row("validated", humanize.Time(s.LastValidated))
	}
	if s.VersionDrift {
		row("drift", f.paint(warnStyle, fmt.Sprintf("applied to %s, editor is now %s", s.AppliedTo, s.EditorVersion)))
	}

	var effects []string
	for _, e := range s.Effects {
		state := "off"
		if e.Enabled {
			state = "on"
		}
		if e.Enabled != e.Registered {
			state += f.paint(warnStyle, "*")
		}
		effects = append(effects, fmt.Sprintf("%s=%s", e.Effect, state))
	}
	row("effects", strings.Join(effects, " "))

	for _, k := range s.Keys {
		sb.WriteString("\n")
		loader := f.paint(errorStyle, "loader missing")
		if k.LoaderInstalled {
			loader = f.paint(okStyle, "loader installed")
		}
		if k.Loader == "" {
			loader = "custom key"
		}
		primary := ""
		if k.Primary {
			primary = " " + f.paint(labelStyle, "[primary]")
		}
		sb.WriteString(fmt.Sprintf("%s%s (%s)\n", f.paint(headerStyle, k.Key), primary, loader))

		if !k.Present {
			sb.WriteString("  not set\n")
			continue
		}
		managed := 0
		for _, e := range k.Entries {
			if e.Managed {
				managed++
			}
		}
		sb.WriteString(fmt.Sprintf("  %s, %d managed", plural(len(k.Entries), "entry", "entries"), managed))
		if n := k.Removable(); n > 0 {
			sb.WriteString(", " + f.paint(warnStyle, fmt.Sprintf("%d to clean", n)))
		}
		sb.WriteString("\n")

		if !f.opts.Verbose {
			continue
		}
		for _, e := range k.Entries {
			var flags []string
			if e.Managed {
				flags = append(flags, "managed")
			}
			if e.Missing {
				flags = append(flags, f.paint(warnStyle, "missing"))
			}
			if e.Duplicate {
				flags = append(flags, f.paint(warnStyle, "duplicate"))
			}
			if e.Invalid {
				flags = append(flags, f.paint(errorStyle, "invalid"))
			}
			line := "  - " + e.Value
			if len(flags) > 0 {
				line += " [" + strings.Join(flags, ", ") + "]"
			}
			sb.WriteString(line + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Findings writes one line per doctor check, with hints indented below.
func (f *PlainFormatter) Findings(w io.Writer, findings []injector.Finding) error {
	var sb strings.Builder
	for _, fd := range findings {
		sb.WriteString(fmt.Sprintf("[%s] %-11s %s\n", f.level(fd.Level), fd.Check, fd.Message))
		if fd.Hint != "" && fd.Level != injector.LevelOK {
			sb.WriteString(fmt.Sprintf("  %s %s\n", f.paint(labelStyle, "hint:"), fd.Hint))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// History writes one line per journal record.
func (f *PlainFormatter) History(w io.Writer, records []store.Record) error {
	for i, r := range records {
		if err := f.formatRecord(w, i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatRecord(w io.Writer, index int, r store.Record) error {
	// Use custom template if available
	if f.template != nil {
		data := templateData{
			Index:        index,
			Record:       r,
			RelativeTime: humanize.Time(r.Timestamp()),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	sb.WriteString(f.paint(labelStyle, fmt.Sprintf("%-16s", humanize.Time(r.Timestamp()))))
	sb.WriteString(fmt.Sprintf(" %-10s", r.Op))
	if r.Key != "" {
		sb.WriteString(" " + r.Key)
	}
	if len(r.Added) > 0 {
		sb.WriteString(" " + f.paint(addStyle, fmt.Sprintf("+%d", len(r.Added))))
	}
	if r.Removed > 0 {
		sb.WriteString(" " + f.paint(delStyle, fmt.Sprintf("-%d", r.Removed)))
	}
	if r.Detail != "" {
		sb.WriteString(" " + r.Detail)
	}
	if r.DryRun {
		sb.WriteString(" " + f.paint(labelStyle, "(dry-run)"))
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Themes writes the asset catalog as a table.
func (f *PlainFormatter) Themes(w io.Writer, infos []theme.Info) error {
	var sb strings.Builder
	for _, i := range infos {
		source := i.Source
		if i.Overridden {
			source = f.paint(warnStyle, source)
		}
		sb.WriteString(fmt.Sprintf("%-13s %-36s %s\n", i.Name, i.Path, source))
		if i.Description != "" {
			sb.WriteString(fmt.Sprintf("%-13s %s\n", "", f.paint(labelStyle, i.Description)))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// templateData provides data for custom history templates.
type templateData struct {
	Index        int
	Record       store.Record
	RelativeTime string
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"reltime": func(ms int64) string {
			return humanize.Time(time.UnixMilli(ms))
		},
		"join": strings.Join,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
