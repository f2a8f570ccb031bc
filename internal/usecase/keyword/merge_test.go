package keyword

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
)

func byKey(items []keyword.Item) map[string]keyword.Item {
	out := make(map[string]keyword.Item, len(items))
	for _, it := range items {
		out[it.Key()] = it
	}
	return out
}

func TestMerge_ZeroVolumePolicy(t *testing.T) {
	pool := []string{"matcha recipe", "matcha latte", "matcha cake", "matcha recipe easy"}
	volumes := []keyword.Item{
		{Text: "matcha recipe", SearchVolume: 900},
		{Text: "matcha latte", SearchVolume: 1200},
		{Text: "matcha cake", SearchVolume: 0},
	}

	filtered := byKey(Merge(volumes, pool, true))
	if _, ok := filtered["matchacake"]; ok {
		t.Error("zero-volume keyword must be dropped when filtering")
	}
	if _, ok := filtered["matcharecipeeasy"]; ok {
		t.Error("unchecked keyword must not be backfilled when filtering")
	}

	full := byKey(Merge(volumes, pool, false))
	if it, ok := full["matchacake"]; !ok || it.SearchVolume != 0 {
		t.Errorf("matcha cake = %+v, want present with zero volume", it)
	}
	if it, ok := full["matcharecipeeasy"]; !ok || it.Text != "matcha recipe easy" {
		t.Errorf("backfill = %+v", it)
	}
	if len(full) != 4 {
		t.Errorf("len = %d, want 4", len(full))
	}
}

func TestMerge_FilteredIsSubset(t *testing.T) {
	cpc := 1.5
	pool := []string{"SEO Tips", "seo tools", "seo audit", "Seo Checklist"}
	volumes := []keyword.Item{
		{Text: "seo tips", SearchVolume: 10},
		{Text: "SEO Tips ", SearchVolume: 40, CPC: &cpc},
		{Text: "seo tools", SearchVolume: 0},
		{Text: "seo audit", SearchVolume: 5},
		{Text: "  ", SearchVolume: 99},
		{Text: "seo audit", SearchVolume: 5},
	}

	filtered := byKey(Merge(volumes, pool, true))
	full := byKey(Merge(volumes, pool, false))

	for key, it := range filtered {
		other, ok := full[key]
		if !ok {
			t.Fatalf("key %q missing from unfiltered output", key)
		}
		if diff := cmp.Diff(it, other); diff != "" {
			t.Errorf("value mismatch for %q (-filtered +full):\n%s", key, diff)
		}
	}
	for key, it := range full {
		if _, ok := filtered[key]; !ok && it.SearchVolume != 0 {
			t.Errorf("extra key %q has volume %d, want 0", key, it.SearchVolume)
		}
	}
}

func TestMerge_DuplicateKeepsHigherVolume(t *testing.T) {
	volumes := []keyword.Item{
		{Text: "SEO Tips", SearchVolume: 10},
		{Text: "seo tips ", SearchVolume: 40},
	}

	got := Merge(volumes, []string{"SEO Tips", "seo tips "}, false)

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	if got[0].Text != "seo tips" || got[0].SearchVolume != 40 {
		t.Errorf("kept %+v, want seo tips/40", got[0])
	}
}

func TestMerge_TieKeepsFirstSeen(t *testing.T) {
	volumes := []keyword.Item{
		{Text: "Matcha", SearchVolume: 7},
		{Text: "matcha", SearchVolume: 7},
	}
	got := Merge(volumes, nil, true)
	if len(got) != 1 || got[0].Text != "Matcha" {
		t.Errorf("got %+v, want first-seen spelling", got)
	}
}

func TestMerge_SortedByVolume(t *testing.T) {
	volumes := []keyword.Item{
		{Text: "b", SearchVolume: 5},
		{Text: "a", SearchVolume: 5},
		{Text: "c", SearchVolume: 50},
	}
	got := Merge(volumes, []string{"z"}, false)
	want := []string{"c", "a", "b", "z"}
	if diff := cmp.Diff(want, keyword.Texts(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}
