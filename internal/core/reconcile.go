// Package core provides the import-list reconciler and file URI helpers.
//
// Every function in this package is pure: lists are read, never mutated,
// and a fresh slice is returned. "Not found" and "already clean" are reported
// through counts, never through errors.
package core

import (
	"slices"
	"strings"
)

// List is an import list as decoded from the host's settings.
// Elements are normally strings, but hand-edited settings may contain anything.
type List []any

// ManagedEntry identifies a stylesheet owned by woodfish.
// An element matches when it equals URI exactly or contains any marker.
type ManagedEntry struct {
	URI     string   `json:"uri"`
	Markers []string `json:"markers,omitempty"`
}

// Matches reports whether s refers to the entry.
func (e ManagedEntry) Matches(s string) bool {
	if s == e.URI {
		return true
	}
	return containsAny(s, e.Markers, false)
}

// Strings returns the string elements of l in order.
func (l List) Strings() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// EnsurePresent appends entry.URI unless an element already matches it,
// first by exact equality and then by marker containment.
func EnsurePresent(list List, entry ManagedEntry) (List, bool) {
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if entry.Matches(s) {
			return slices.Clone(list), false
		}
	}

	out := make(List, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, entry.URI)
	return out, true
}

// RemovePresent drops every element equal to uri or containing any marker.
func RemovePresent(list List, uri string, markers []string) (List, int) {
	return filter(list, func(s string) bool {
		return s == uri || containsAny(s, markers, false)
	})
}

// RemoveManaged drops every element matching the exact set or, failing that,
// containing any marker. Marker comparison ignores case so that historical
// spellings of the same path are swept too.
func RemoveManaged(list List, exactURIs []string, markers []string) (List, int) {
	exact := make(map[string]struct{}, len(exactURIs))
	for _, u := range exactURIs {
		exact[u] = struct{}{}
	}

	return filter(list, func(s string) bool {
		if _, ok := exact[s]; ok {
			return true
		}
		return containsAny(s, markers, true)
	})
}

// IsManaged reports whether RemoveManaged would drop s.
func IsManaged(s string, exactURIs []string, markers []string) bool {
	return slices.Contains(exactURIs, s) || containsAny(s, markers, true)
}

// ValidateAndDedupe walks list once in order and drops non-string or empty
// elements, repeats of an earlier element, and file URIs whose backing file
// exists reports absent. Non-file entries are never existence-checked.
func ValidateAndDedupe(list List, exists func(path string) bool) (List, int) {
	out := make(List, 0, len(list))
	seen := make(map[string]struct{}, len(list))

	for _, v := range list {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		if exists != nil && !EntryExists(s, exists) {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out, len(list) - len(out)
}

// EntryExists reports false only for a file URI whose file is absent under
// both its decoded and its literal path. Other entries always exist.
func EntryExists(uri string, exists func(path string) bool) bool {
	path, isFile := URIToPath(uri)
	if !isFile || exists(path) {
		return true
	}
	if literal, _ := literalPath(uri); literal != path {
		return exists(literal)
	}
	return false
}

// filter keeps the elements for which drop returns false.
// Non-string elements are never dropped.
func filter(list List, drop func(string) bool) (List, int) {
	out := make(List, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && drop(s) {
			continue
		}
		out = append(out, v)
	}
	return out, len(list) - len(out)
}

func containsAny(s string, markers []string, foldCase bool) bool {
	if foldCase {
		s = strings.ToLower(s)
	}
	for _, m := range markers {
		if m == "" {
			continue
		}
		if foldCase {
			m = strings.ToLower(m)
		}
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
