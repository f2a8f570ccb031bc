package keyword

import (
	"strings"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
)

// MaxVolumeCheckKeywords caps one volume lookup batch.
const MaxVolumeCheckKeywords = 60

// Prioritize picks at most max keywords for the volume lookup: language model
// suggestions first, then engine suggestions, then the rest of the pool.
// Each normalized key appears once. max <= 0 selects MaxVolumeCheckKeywords.
func Prioritize(pool, ai, engine []string, max int) []string {
	if max <= 0 {
		max = MaxVolumeCheckKeywords
	}
	out := make([]string, 0, max)
	seen := make(map[string]struct{}, max)

	for _, tier := range [][]string{ai, engine, pool} {
		for _, kw := range tier {
			if len(out) >= max {
				return out
			}
			kw = strings.TrimSpace(kw)
			key := keyword.Normalize(kw)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}
