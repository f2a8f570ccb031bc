package research

import (
	"sort"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
)

// Cluster is a named group of related keywords with its precomputed aggregate volume.
type Cluster struct {
	Keywords    []string `json:"keywords"`
	TotalVolume int64    `json:"totalVolume"`
}

// BuildClusters attaches aggregate volume to raw clusters. Keywords are matched to
// the research keyword list by normalized text; unknown keywords count as zero.
// Empty cluster names and clusters without keywords are dropped.
func BuildClusters(raw map[string][]string, items []keyword.Item) map[string]Cluster {
	volumes := make(map[string]int64, len(items))
	for _, it := range items {
		key := it.Key()
		if v := it.Volume(); v >= volumes[key] {
			volumes[key] = v
		}
	}

	out := make(map[string]Cluster, len(raw))
	for name, kws := range raw {
		if name == "" {
			continue
		}
		kws = keyword.UniqueStrings(kws)
		if len(kws) == 0 {
			continue
		}
		var total int64
		for _, kw := range kws {
			total += volumes[keyword.Normalize(kw)]
		}
		out[name] = Cluster{Keywords: kws, TotalVolume: total}
	}
	return out
}

// ClusterNames returns cluster names ordered by total volume descending, then name.
func ClusterNames(clusters map[string]Cluster) []string {
	names := make([]string, 0, len(clusters))
	for name := range clusters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := clusters[names[i]], clusters[names[j]]
		if ci.TotalVolume != cj.TotalVolume {
			return ci.TotalVolume > cj.TotalVolume
		}
		return names[i] < names[j]
	})
	return names
}
