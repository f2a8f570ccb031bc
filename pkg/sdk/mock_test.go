package keywordlab

import (
	"context"

	dombatch "github.com/kailas-cloud/keywordlab/internal/domain/batch"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
	clusteringuc "github.com/kailas-cloud/keywordlab/internal/usecase/clustering"
	healthuc "github.com/kailas-cloud/keywordlab/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
	personauc "github.com/kailas-cloud/keywordlab/internal/usecase/persona"
)

// --- researchUseCase mock ---

type mockResearchUC struct {
	processFn func(ctx context.Context, req keyworduc.Request) keyworduc.Result
	getFn     func(ctx context.Context, id string) (research.Research, error)
	listFn    func(ctx context.Context, cursor string, limit int) ([]research.Research, string, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockResearchUC) ProcessAndSaveQuery(ctx context.Context, req keyworduc.Request) keyworduc.Result {
	return m.processFn(ctx, req)
}

func (m *mockResearchUC) Get(ctx context.Context, id string) (research.Research, error) {
	return m.getFn(ctx, id)
}

func (m *mockResearchUC) List(ctx context.Context, cursor string, limit int) ([]research.Research, string, error) {
	return m.listFn(ctx, cursor, limit)
}

func (m *mockResearchUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- batchUseCase mock ---

type mockBatchUC struct {
	researchFn func(ctx context.Context, items []keyworduc.Request) []dombatch.Result
}

func (m *mockBatchUC) Research(ctx context.Context, items []keyworduc.Request) []dombatch.Result {
	return m.researchFn(ctx, items)
}

// --- clusteringUseCase mock ---

type mockClusteringUC struct {
	requestFn func(ctx context.Context, id string) (clusteringuc.Result, *clusteringuc.Task)
	statusFn  func(ctx context.Context, id string) (clusteringuc.StatusReport, error)
}

func (m *mockClusteringUC) RequestClustering(ctx context.Context, id string) (clusteringuc.Result, *clusteringuc.Task) {
	return m.requestFn(ctx, id)
}

func (m *mockClusteringUC) FetchClusteringStatus(ctx context.Context, id string) (clusteringuc.StatusReport, error) {
	return m.statusFn(ctx, id)
}

// --- personaUseCase mock ---

type mockPersonaUC struct {
	saveFn func(ctx context.Context, id, cluster string, keywords []string, model string) personauc.Result
}

func (m *mockPersonaUC) SavePersona(ctx context.Context, id, cluster string, keywords []string, model string) personauc.Result {
	return m.saveFn(ctx, id, cluster, keywords, model)
}

// --- usageUseCase / healthUseCase mocks ---

type mockUsageUC struct {
	reportFn func(ctx context.Context, res domusage.Resource, period domusage.Period) domusage.Report
}

func (m *mockUsageUC) GetReport(ctx context.Context, res domusage.Resource, period domusage.Period) domusage.Report {
	return m.reportFn(ctx, res, period)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testRecord() research.Research {
	comp := 0.4
	return research.Reconstruct(research.State{
		ID: "r-1",
		Input: research.Input{
			Query: "matcha recipe", Region: "us", Language: "en",
			SearchEngine: "google", Device: "desktop", Name: "matcha recipe",
			Tags: []string{"tea"}, IsFavorite: true,
		},
		Keywords: []keyword.Item{
			{Text: "matcha cake", SearchVolume: 30},
			{Text: "matcha latte", SearchVolume: 900, Competition: &comp},
		},
		Clusters: map[string]research.Cluster{
			"desserts": {Keywords: []string{"matcha cake"}, TotalVolume: 30},
			"drinks":   {Keywords: []string{"matcha latte"}, TotalVolume: 900},
		},
		Personas: []persona.Persona{
			{Name: "drinks", Description: "Cafe regulars", PainPoints: []string{"bitter taste"}},
		},
		Status:    research.StatusCompleted,
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000005000,
	})
}
