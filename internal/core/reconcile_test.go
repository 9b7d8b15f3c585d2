package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existsIn(paths ...string) func(string) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestValidateAndDedupe_Scenario(t *testing.T) {
	list := List{"file:///a/theme.css", "file:///a/theme.css", "file:///missing/glow.css"}

	got, removed := ValidateAndDedupe(list, existsIn("/a/theme.css"))

	assert.Equal(t, List{"file:///a/theme.css"}, got)
	assert.Equal(t, 2, removed)
}

func TestValidateAndDedupe_DropsMalformed(t *testing.T) {
	list := List{"", 42, nil, true, "https://example.com/x.css", map[string]any{"a": 1}}

	got, removed := ValidateAndDedupe(list, existsIn())

	assert.Equal(t, List{"https://example.com/x.css"}, got)
	assert.Equal(t, 5, removed)
}

func TestValidateAndDedupe_NonFileEntriesSkipExistenceCheck(t *testing.T) {
	list := List{"https://cdn.example.com/a.css", "vscode-resource:/x.css", "relative.css"}

	got, removed := ValidateAndDedupe(list, func(string) bool {
		t.Fatal("exists must not be consulted for non-file entries")
		return false
	})

	assert.Equal(t, list, got)
	assert.Equal(t, 0, removed)
}

func TestValidateAndDedupe_FirstOccurrenceWins(t *testing.T) {
	list := List{"b", "a", "b", "c", "a"}

	got, removed := ValidateAndDedupe(list, existsIn())

	assert.Equal(t, List{"b", "a", "c"}, got)
	assert.Equal(t, 2, removed)
}

func TestValidateAndDedupe_Idempotent(t *testing.T) {
	lists := []List{
		{},
		{"file:///a.css", "file:///a.css", "", 3, "file:///gone.css", "x"},
		{"file:///C:/Users/me/theme.css", "file:////legacy/path.css", "x", "x"},
	}
	exists := existsIn("/a.css", "C:/Users/me/theme.css")

	for _, l := range lists {
		once, _ := ValidateAndDedupe(l, exists)
		twice, removed := ValidateAndDedupe(once, exists)
		assert.Equal(t, once, twice)
		assert.Equal(t, 0, removed)
	}
}

func TestValidateAndDedupe_NoDuplicates(t *testing.T) {
	list := List{"a", "b", "a", "c", "b", "a", "file:///x", "file:///x"}

	got, _ := ValidateAndDedupe(list, existsIn("/x"))

	seen := map[any]bool{}
	for _, v := range got {
		require.False(t, seen[v], "duplicate %v", v)
		seen[v] = true
	}
}

func TestValidateAndDedupe_DoesNotMutateInput(t *testing.T) {
	list := List{"a", "a"}
	_, _ = ValidateAndDedupe(list, nil)
	assert.Equal(t, List{"a", "a"}, list)
}

func TestEnsurePresent(t *testing.T) {
	tests := []struct {
		name      string
		list      List
		entry     ManagedEntry
		want      List
		wantAdded bool
	}{
		{
			name:      "appends when absent",
			list:      List{"file:///x.css"},
			entry:     ManagedEntry{URI: "file:///y.css"},
			want:      List{"file:///x.css", "file:///y.css"},
			wantAdded: true,
		},
		{
			name:      "exact match is a no-op",
			list:      List{"file:///y.css"},
			entry:     ManagedEntry{URI: "file:///y.css"},
			want:      List{"file:///y.css"},
			wantAdded: false,
		},
		{
			name:      "marker match is a no-op",
			list:      List{"file:///old/install/woodfish-theme.css"},
			entry:     ManagedEntry{URI: "file:///new/woodfish-theme.css", Markers: []string{"woodfish-theme.css"}},
			want:      List{"file:///old/install/woodfish-theme.css"},
			wantAdded: false,
		},
		{
			name:      "empty list",
			list:      nil,
			entry:     ManagedEntry{URI: "file:///y.css"},
			want:      List{"file:///y.css"},
			wantAdded: true,
		},
		{
			name:      "non-string elements are ignored",
			list:      List{7, nil},
			entry:     ManagedEntry{URI: "file:///y.css"},
			want:      List{7, nil, "file:///y.css"},
			wantAdded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added := EnsurePresent(tt.list, tt.entry)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAdded, added)

			// Additive-or-noop
			if added {
				assert.Len(t, got, len(tt.list)+1)
			} else {
				assert.Len(t, got, len(tt.list))
			}
		})
	}
}

func TestEnsurePresent_AlwaysContainsEntryAfterwards(t *testing.T) {
	entry := ManagedEntry{URI: "file:///t/rainbow-cursor.css", Markers: []string{"rainbow-cursor.css"}}
	for _, l := range []List{nil, {"a"}, {"file:///t/rainbow-cursor.css"}} {
		got, _ := EnsurePresent(l, entry)
		found := false
		for _, s := range got.Strings() {
			if entry.Matches(s) {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func TestEnsurePresent_DoesNotAliasInput(t *testing.T) {
	list := make(List, 1, 4)
	list[0] = "a"

	got, added := EnsurePresent(list, ManagedEntry{URI: "b"})
	require.True(t, added)

	got[0] = "changed"
	assert.Equal(t, "a", list[0])
}

func TestRemovePresent(t *testing.T) {
	list := List{"file:///a.css", "file:///t/rainbow-cursor.css", "file:///legacy/rainbow-cursor.css", 5, "file:///b.css"}

	got, removed := RemovePresent(list, "file:///t/rainbow-cursor.css", []string{"rainbow-cursor.css"})

	assert.Equal(t, List{"file:///a.css", 5, "file:///b.css"}, got)
	assert.Equal(t, 2, removed)
}

func TestRemovePresent_AlreadyClean(t *testing.T) {
	list := List{"file:///a.css"}

	got, removed := RemovePresent(list, "file:///zzz.css", nil)

	assert.Equal(t, list, got)
	assert.Equal(t, 0, removed)
}

func TestRemovePresent_ThenEnsureRoundTrip(t *testing.T) {
	u := "file:///u.css"
	for _, l := range []List{nil, {u}, {u, u, "x"}, {"x", u, "y"}} {
		cleared, _ := RemovePresent(l, u, nil)
		got, _ := EnsurePresent(cleared, ManagedEntry{URI: u})
		assert.Equal(t, 1, count(got, u))
	}
}

func TestRemoveManaged_Scenario(t *testing.T) {
	list := List{"file:///a.css", "file:///b.css", "file:///glow-effects.css"}

	got, removed := RemoveManaged(list, nil, []string{"glow-effects"})

	assert.Equal(t, List{"file:///a.css", "file:///b.css"}, got)
	assert.Equal(t, 1, removed)
}

func TestRemoveManaged_ExactAndMarkerUnion(t *testing.T) {
	list := List{
		"file:///ext/themes/woodfish-theme.css",
		"file:///ext/index.css",
		"file:///other/WOODFISH/x.css",
		"file:///keep.css",
	}

	got, removed := RemoveManaged(list,
		[]string{"file:///ext/index.css"},
		[]string{"woodfish"},
	)

	assert.Equal(t, List{"file:///keep.css"}, got)
	assert.Equal(t, 3, removed)
}

func TestRemoveManaged_EmptyMarkerIgnored(t *testing.T) {
	list := List{"a", "b"}

	got, removed := RemoveManaged(list, nil, []string{""})

	assert.Equal(t, list, got)
	assert.Equal(t, 0, removed)
}

func TestManagedEntry_Matches(t *testing.T) {
	e := ManagedEntry{URI: "file:///x/glow-effects.css", Markers: []string{"glow-effects.css"}}

	assert.True(t, e.Matches("file:///x/glow-effects.css"))
	assert.True(t, e.Matches("file:///elsewhere/glow-effects.css"))
	assert.False(t, e.Matches("file:///x/GLOW-EFFECTS.css"))
	assert.False(t, e.Matches("file:///x/theme.css"))
}

func TestIsManaged_AgreesWithRemoveManaged(t *testing.T) {
	exact := []string{"file:///ext/index.css"}
	markers := []string{"Woodfish"}
	values := []string{"file:///ext/index.css", "file:///x/woodfish-theme.css", "file:///keep.css", ""}
	list := make(List, 0, len(values))
	for _, v := range values {
		list = append(list, v)
	}

	kept, _ := RemoveManaged(list, exact, markers)
	for _, s := range values {
		assert.Equal(t, count(kept, s) == 0, IsManaged(s, exact, markers), s)
	}
}

func TestValidateAndDedupe_KeepsPercentPaths(t *testing.T) {
	dir := "/home/u/100%41"
	exists := existsIn(dir+"/theme.css", dir+"/legacy.css")

	list := List{
		PathToURI(dir + "/theme.css"),
		"file:///home/u/100%41/legacy.css",
		"file:///home/u/other/gone.css",
	}

	got, removed := ValidateAndDedupe(list, exists)

	assert.Equal(t, List{list[0], list[1]}, got)
	assert.Equal(t, 1, removed)
}

// count returns how many string elements of l equal s.
func count(l List, s string) int {
	n := 0
	for _, v := range l {
		if str, ok := v.(string); ok && str == s {
			n++
		}
	}
	return n
}
