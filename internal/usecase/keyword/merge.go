package keyword

import (
	"strings"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
)

// Merge reconciles volume results with the candidate pool.
//
// Results are keyed by normalized text; on collision the higher volume wins and
// ties keep the first seen. With filterZeroVolume only results with positive volume
// survive and the pool is not backfilled. Without it every pool keyword missing from
// the results is added with zero volume in its original casing.
//
// The output is ordered by volume descending, then normalized key.
func Merge(volumes []keyword.Item, pool []string, filterZeroVolume bool) []keyword.Item {
	idx := make(map[string]int, len(volumes)+len(pool))
	out := make([]keyword.Item, 0, len(volumes)+len(pool))

	for _, it := range volumes {
		it.Text = strings.TrimSpace(it.Text)
		key := it.Key()
		if key == "" {
			continue
		}
		if it.SearchVolume < 0 {
			it.SearchVolume = 0
		}
		if filterZeroVolume && it.SearchVolume <= 0 {
			continue
		}
		if i, ok := idx[key]; ok {
			if it.SearchVolume > out[i].SearchVolume {
				out[i] = it
			}
			continue
		}
		idx[key] = len(out)
		out = append(out, it)
	}

	if !filterZeroVolume {
		for _, kw := range pool {
			kw = strings.TrimSpace(kw)
			key := keyword.Normalize(kw)
			if key == "" {
				continue
			}
			if _, ok := idx[key]; ok {
				continue
			}
			idx[key] = len(out)
			out = append(out, keyword.Item{Text: kw})
		}
	}

	keyword.SortByVolume(out)
	return out
}
