package clustering

import (
	"context"

	"github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// Repository is the research storage the orchestrator drives.
type Repository interface {
	Get(ctx context.Context, id string) (research.Research, error)
	ClaimClustering(ctx context.Context, id string) error
	UpdateClusters(ctx context.Context, id string, clusters map[string]research.Cluster) error
	UpdateStatus(ctx context.Context, id string, status research.Status, errMsg string) error
}

// Clusterer groups keywords into named semantic clusters.
type Clusterer interface {
	ClusterKeywords(ctx context.Context, keywords []string, model string) (map[string][]string, error)
}

// PersonaGenerator describes one cluster's audience and stores it on the record.
type PersonaGenerator interface {
	Generate(ctx context.Context, researchID, clusterName string, keywords []string, model string) error
}
