package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryRecords() []Record {
	now := time.Now()
	return []Record{
		{ID: "01HZ000000000000000000000A", Time: now.Add(-48 * time.Hour).UnixMilli(), Op: OpEnable, Key: "vscode_custom_css.imports", Added: []string{"file:///a/woodfish-theme.css", "file:///a/glow-effects.css"}},
		{ID: "01HZ000000000000000000000B", Time: now.Add(-2 * time.Hour).UnixMilli(), Op: OpEffect, Key: "vscode_custom_css.imports", Removed: 1, Detail: "glow off"},
		{ID: "01HZ000000000000000000001C", Time: now.Add(-10 * time.Minute).UnixMilli(), Op: OpValidate, Key: "custom_css_hot_reload.imports", Removed: 3, DryRun: true},
		{ID: "01HZ000000000000000000001D", Time: now.UnixMilli(), Op: OpUninstall, Key: "vscode_custom_css.imports", Removed: 2},
	}
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID[len(r.ID)-1:])
	}
	return out
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    []string
		wantErr bool
	}{
		{"empty", "", []string{"A", "B", "C", "D"}, false},
		{"op equal", "op=uninstall", []string{"D"}, false},
		{"op not equal", "op!=uninstall", []string{"A", "B", "C"}, false},
		{"key contains", "key~HOT_RELOAD", []string{"C"}, false},
		{"uri contains", "uri~glow", []string{"A"}, false},
		{"uri regex", "uri~=theme\\.css$", []string{"A"}, false},
		{"removed greater", "removed>1", []string{"C", "D"}, false},
		{"added at least", "added>=2", []string{"A"}, false},
		{"dry run", "dry_run=true", []string{"C"}, false},
		{"combined", "removed>0,dry_run=false", []string{"B", "D"}, false},
		{"younger than", "time<1h", []string{"C", "D"}, false},
		{"older than", "time>1d", []string{"A"}, false},
		{"detail", "detail~off", []string{"B"}, false},
		{"unknown field", "app=x", nil, true},
		{"no operator", "op", nil, true},
		{"bad number", "removed>lots", nil, true},
		{"bad regex", "key~=(", nil, true},
		{"bad duration", "time<soon", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got := Query(queryRecords(), QueryOptions{Filter: f})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"90m", 90 * time.Minute},
		{"2d", 48 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	records := queryRecords()

	t.Run("since", func(t *testing.T) {
		assert.Equal(t, []string{"B", "C", "D"}, ids(Query(records, QueryOptions{Since: 24 * time.Hour})))
	})

	t.Run("limit keeps newest", func(t *testing.T) {
		assert.Equal(t, []string{"C", "D"}, ids(Query(records, QueryOptions{Limit: 2})))
	})

	t.Run("reverse", func(t *testing.T) {
		assert.Equal(t, []string{"D", "C", "B", "A"}, ids(Query(records, QueryOptions{Reverse: true})))
		assert.Equal(t, "01HZ000000000000000000000A", records[0].ID, "input untouched")
	})
}

func TestLookup(t *testing.T) {
	records := queryRecords()

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"index", "2", "01HZ000000000000000000000B", false},
		{"full id", "01HZ000000000000000000001D", "01HZ000000000000000000001D", false},
		{"unique prefix lowercase", "01hz000000000000000000001c", "01HZ000000000000000000001C", false},
		{"ambiguous prefix", "01HZ000000000000000000001", "", true},
		{"index out of range", "9", "", true},
		{"unknown", "01XX", "", true},
		{"empty", " ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(records, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}
