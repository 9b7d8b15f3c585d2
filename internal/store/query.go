package store

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // op, key, uri, detail, added, removed, dry_run, time
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex   *regexp.Regexp
	intVal  int
	boolVal bool
	cutoff  time.Time
}

// Filter is a compound filter expression. Conditions are ANDed together.
type Filter struct {
	Conditions []FilterCondition
}

// ParseFilter parses a filter expression into a Filter.
// Format: "field=value,field2~value2,field3>value3"
//
// Supported fields: op, key, uri, detail, added, removed, dry_run, time
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "op=uninstall" - uninstall records only
//   - "key~hot_reload" - changes to the hot-reload loader's list
//   - "uri~glow" - records that added a glow stylesheet
//   - "removed>0,dry_run=false" - records that actually dropped entries
//   - "time<1h" - records from the last hour
func ParseFilter(expr string) (*Filter, error) {
	filter := &Filter{}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "op=enable" or "uri~glow".
func parseCondition(s string) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "="
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init normalises the field name and pre-parses the value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "op", "operation":
		c.Field = "op"
	case "key":
	case "uri", "entry":
		c.Field = "uri"
	case "detail":
	case "added", "removed":
		n, err := strconv.Atoi(c.Value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: want a number", c.Field, c.Value)
		}
		c.intVal = n
	case "dry_run", "dryrun", "dry-run":
		c.Field = "dry_run"
		c.boolVal = parseBool(c.Value)
	case "time", "timestamp", "age":
		c.Field = "time"
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid time value: %w", err)
		}
		c.cutoff = time.Now().Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match reports whether r satisfies every condition.
func (f *Filter) Match(r Record) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(r) {
			return false
		}
	}
	return true
}

// Match reports whether r satisfies the condition.
func (c *FilterCondition) Match(r Record) bool {
	switch c.Field {
	case "op":
		return c.matchString(string(r.Op))
	case "key":
		return c.matchString(r.Key)
	case "detail":
		return c.matchString(r.Detail)
	case "uri":
		// "!=" holds when no added entry equals the value
		if c.Operator == FilterOpNotEqual {
			return !slices.Contains(r.Added, c.Value)
		}
		return slices.ContainsFunc(r.Added, c.matchString)
	case "added":
		return c.matchInt(len(r.Added))
	case "removed":
		return c.matchInt(r.Removed)
	case "dry_run":
		return c.matchBool(r.DryRun)
	case "time":
		return c.matchTime(r.Timestamp())
	default:
		return false
	}
}

func (c *FilterCondition) matchString(v string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.Value
	case FilterOpNotEqual:
		return v != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(v)
	default:
		return false
	}
}

func (c *FilterCondition) matchInt(v int) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.intVal
	case FilterOpNotEqual:
		return v != c.intVal
	case FilterOpGreater:
		return v > c.intVal
	case FilterOpLess:
		return v < c.intVal
	case FilterOpGreaterEq:
		return v >= c.intVal
	case FilterOpLessEq:
		return v <= c.intVal
	default:
		return false
	}
}

func (c *FilterCondition) matchBool(v bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.boolVal
	case FilterOpNotEqual:
		return v != c.boolVal
	default:
		return false
	}
}

// matchTime compares a record's age with the condition: "time<1h" holds for
// records younger than an hour.
func (c *FilterCondition) matchTime(t time.Time) bool {
	switch c.Operator {
	case FilterOpLess:
		return t.After(c.cutoff)
	case FilterOpGreater:
		return t.Before(c.cutoff)
	case FilterOpLessEq:
		return !t.Before(c.cutoff)
	case FilterOpGreaterEq:
		return !t.After(c.cutoff)
	default:
		return false
	}
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// QueryOptions selects journal records.
type QueryOptions struct {
	Since   time.Duration // Only records newer than now-since (0 = all)
	Filter  *Filter       // Optional
	Limit   int           // Keep the newest n matches (0 = unlimited)
	Reverse bool          // Newest first
}

// Query returns the records matching opts. records must be oldest first, as
// Journal.Load returns them. The input is not modified.
func Query(records []Record, opts QueryOptions) []Record {
	var cutoff time.Time
	if opts.Since > 0 {
		cutoff = time.Now().Add(-opts.Since)
	}

	result := make([]Record, 0, len(records))
	for _, r := range records {
		if !cutoff.IsZero() && r.Timestamp().Before(cutoff) {
			continue
		}
		if opts.Filter != nil && !opts.Filter.Match(r) {
			continue
		}
		result = append(result, r)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}
	if opts.Reverse {
		slices.Reverse(result)
	}
	return result
}

// Lookup finds a record by 1-based index or by ID. An ID may be abbreviated
// to any unique prefix, case-insensitively.
func Lookup(records []Record, ref string) (*Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty record reference")
	}

	if index, err := strconv.Atoi(ref); err == nil && len(ref) < 26 {
		if index < 1 || index > len(records) {
			return nil, fmt.Errorf("index %d out of range (1-%d)", index, len(records))
		}
		return &records[index-1], nil
	}

	var found *Record
	upper := strings.ToUpper(ref)
	for i := range records {
		if !strings.HasPrefix(records[i].ID, upper) {
			continue
		}
		if records[i].ID == upper {
			return &records[i], nil
		}
		if found != nil {
			return nil, fmt.Errorf("record prefix %q is ambiguous", ref)
		}
		found = &records[i]
	}
	if found == nil {
		return nil, fmt.Errorf("no record %q", ref)
	}
	return found, nil
}
