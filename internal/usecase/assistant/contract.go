package assistant

import "github.com/kailas-cloud/keywordlab/internal/domain"

// Completer is the language model port. Decorators (budget, cache) wrap the
// provider client before it reaches the assistant.
type Completer = domain.Completer

// Models selects the model per task. Empty fields use the provider default.
type Models struct {
	Suggest string
	Cluster string
	Persona string
}
