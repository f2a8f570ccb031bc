// Package keyword holds the keyword value types and the normalization rule that decides
// when two keyword strings are the same keyword.
package keyword

import (
	"sort"
	"strings"
	"unicode"
)

// Item is a keyword with its search metrics (KeywordVolumeItem).
type Item struct {
	Text         string   `json:"text"`
	SearchVolume int64    `json:"searchVolume"`
	Competition  *float64 `json:"competition,omitempty"`
	CPC          *float64 `json:"cpc,omitempty"`
}

// Normalize returns the comparison key of a keyword: lowercased with all whitespace removed.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Key returns the normalized identity of the item.
func (it Item) Key() string { return Normalize(it.Text) }

// Volume returns the search volume, treating negatives as zero.
func (it Item) Volume() int64 {
	if it.SearchVolume < 0 {
		return 0
	}
	return it.SearchVolume
}

// Dedupe removes items whose normalized text repeats. The higher volume wins;
// on equal volume the earlier item is kept. Items with empty keys are dropped.
// Order of first appearance is preserved.
func Dedupe(items []Item) []Item {
	idx := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		key := it.Key()
		if key == "" {
			continue
		}
		if i, ok := idx[key]; ok {
			if it.Volume() > out[i].Volume() {
				out[i] = it
			}
			continue
		}
		idx[key] = len(out)
		out = append(out, it)
	}
	return out
}

// SortByVolume orders items by volume descending, then by normalized key.
func SortByVolume(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		vi, vj := items[i].Volume(), items[j].Volume()
		if vi != vj {
			return vi > vj
		}
		return items[i].Key() < items[j].Key()
	})
}

// Texts returns the keyword strings in order.
func Texts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

// TotalVolume sums the volume of the items.
func TotalVolume(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.Volume()
	}
	return total
}

// UniqueStrings trims, drops empties and dedupes by normalized key keeping the first spelling.
func UniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := Normalize(s)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
