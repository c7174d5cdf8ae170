// Package filter implements the allow-list stage of the extraction
// pipeline. An AllowList is an exact-match inclusion list over names;
// an empty list passes everything through unchanged.
package filter

import "strings"

// AllowList restricts a name list to configured entries. The zero value
// allows everything.
type AllowList struct {
	names map[string]struct{}
}

// Parse builds an AllowList from a comma separated string. Entries are
// trimmed of surrounding whitespace; blank entries are dropped. An empty
// or all-blank input yields the identity filter.
func Parse(raw string) AllowList {
	var list AllowList
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if list.names == nil {
			list.names = make(map[string]struct{})
		}
		list.names[name] = struct{}{}
	}
	return list
}

// Empty reports whether the list passes everything through.
func (a AllowList) Empty() bool {
	return len(a.names) == 0
}

// Contains reports whether name is an exact, case-sensitive member of
// the list. An empty list contains everything.
func (a AllowList) Contains(name string) bool {
	if a.Empty() {
		return true
	}
	_, ok := a.names[name]
	return ok
}

// Apply returns the elements of in that the list allows, preserving
// input order. Matching is exact and case-sensitive; no globbing, no
// case folding. An empty list returns in unchanged.
func (a AllowList) Apply(in []string) []string {
	if a.Empty() {
		return in
	}
	kept := make([]string, 0, len(in))
	for _, name := range in {
		if _, ok := a.names[name]; ok {
			kept = append(kept, name)
		}
	}
	return kept
}

// Len returns the number of configured entries.
func (a AllowList) Len() int {
	return len(a.names)
}
