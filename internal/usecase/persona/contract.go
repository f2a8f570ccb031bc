package persona

import (
	"context"

	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// Repository reads research records and overwrites their persona list.
type Repository interface {
	Get(ctx context.Context, id string) (research.Research, error)
	UpdatePersonas(ctx context.Context, id string, personas []persona.Persona) error
}

// Describer writes a free-text audience description for a cluster.
type Describer interface {
	DescribePersona(ctx context.Context, clusterName string, keywords []string, model string) (string, error)
}
