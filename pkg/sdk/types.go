package keywordlab

import (
	"context"
	"time"

	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	clusteringuc "github.com/kailas-cloud/keywordlab/internal/usecase/clustering"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
)

// Query is one seed query. Empty locale fields default to us / en / google / desktop.
type Query struct {
	Text         string
	Region       string
	Language     string
	SearchEngine string
	Device       string
	Name         string // defaults to Text
	Description  string
	Tags         []string
	Favorite     bool

	FilterZeroVolume bool // drop keywords with no search volume
	Alphabet         bool // expand autosuggest with "query a".."query z"
	Symbols          bool // expand autosuggest with question patterns
}

func (q *Query) request() keyworduc.Request {
	return keyworduc.Request{
		Input: research.Input{
			Query:        q.Text,
			Region:       q.Region,
			Language:     q.Language,
			SearchEngine: q.SearchEngine,
			Device:       q.Device,
			Name:         q.Name,
			Description:  q.Description,
			Tags:         q.Tags,
			IsFavorite:   q.Favorite,
		},
		FilterZeroVolume: q.FilterZeroVolume,
		Alphabet:         q.Alphabet,
		Symbols:          q.Symbols,
	}
}

// Keyword is a keyword with its search metrics.
type Keyword struct {
	Text        string
	Volume      int64
	Competition *float64
	CPC         *float64
}

// Cluster is a named keyword group.
type Cluster struct {
	Name        string
	Keywords    []string
	TotalVolume int64
}

// Persona is an audience profile generated for a cluster.
type Persona struct {
	Name            string
	Description     string
	Keywords        []string
	Characteristics []string
	Interests       []string
	PainPoints      []string
	Goals           []string
}

// ClusteringStatus is the clustering lifecycle state of a record.
type ClusteringStatus string

// ClusteringStatus constants.
const (
	ClusteringPending    ClusteringStatus = "pending"
	ClusteringProcessing ClusteringStatus = "processing"
	ClusteringCompleted  ClusteringStatus = "completed"
	ClusteringFailed     ClusteringStatus = "failed"
)

// Research is a saved research record.
type Research struct {
	ID           string
	Query        string
	Name         string
	Description  string
	Region       string
	Language     string
	SearchEngine string
	Device       string
	Tags         []string
	Favorite     bool

	Keywords    []Keyword // by volume, descending
	Clusters    []Cluster // by total volume, descending
	Personas    []Persona
	Status      ClusteringStatus
	StatusError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClusteringState is the stored clustering state of a record.
type ClusteringState struct {
	ResearchID string
	Status     ClusteringStatus
	Error      string
	Clusters   int
	UpdatedAt  time.Time
}

// BatchItem is the outcome of one batch query. ResearchID may be set on failure
// when the record was saved before a later step failed.
type BatchItem struct {
	Index      int
	Query      string
	ResearchID string
	Err        error
}

// ClusteringTask tracks a background clustering run started by this process.
type ClusteringTask struct {
	researchID string
	task       *clusteringuc.Task
}

// ID returns the task identifier, "" when the run is not tracked locally.
func (t *ClusteringTask) ID() string {
	if t.task == nil {
		return ""
	}
	return t.task.ID()
}

// ResearchID returns the record being clustered.
func (t *ClusteringTask) ResearchID() string { return t.researchID }

// Wait blocks until the run settles or ctx ends and returns the run error.
func (t *ClusteringTask) Wait(ctx context.Context) error {
	if t.task == nil {
		return nil
	}
	return t.task.Wait(ctx) //nolint:wrapcheck // run errors are domain sentinels
}

// Status returns processing until the run settles.
func (t *ClusteringTask) Status() ClusteringStatus {
	if t.task == nil {
		return ClusteringProcessing
	}
	return ClusteringStatus(t.task.Status())
}

func researchFromDomain(r *research.Research) Research {
	in := r.Input()
	out := Research{
		ID:           r.ID(),
		Query:        in.Query,
		Name:         in.Name,
		Description:  in.Description,
		Region:       in.Region,
		Language:     in.Language,
		SearchEngine: in.SearchEngine,
		Device:       in.Device,
		Tags:         in.Tags,
		Favorite:     in.IsFavorite,
		Status:       ClusteringStatus(r.Status().Effective()),
		StatusError:  r.StatusError(),
		CreatedAt:    time.UnixMilli(r.CreatedAt()).UTC(),
		UpdatedAt:    time.UnixMilli(r.UpdatedAt()).UTC(),
	}

	sorted := r.SortedKeywords()
	out.Keywords = make([]Keyword, len(sorted))
	for i, k := range sorted {
		out.Keywords[i] = Keyword{Text: k.Text, Volume: k.SearchVolume, Competition: k.Competition, CPC: k.CPC}
	}

	clusters := r.Clusters()
	for _, name := range research.ClusterNames(clusters) {
		cl := clusters[name]
		out.Clusters = append(out.Clusters, Cluster{Name: name, Keywords: cl.Keywords, TotalVolume: cl.TotalVolume})
	}

	for _, p := range r.Personas() {
		out.Personas = append(out.Personas, Persona{
			Name:            p.Name,
			Description:     p.Description,
			Keywords:        p.Keywords,
			Characteristics: p.Characteristics,
			Interests:       p.Interests,
			PainPoints:      p.PainPoints,
			Goals:           p.Goals,
		})
	}
	return out
}
