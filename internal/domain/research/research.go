package research

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
)

// MaxQueryLength is the maximum seed query length in bytes.
const MaxQueryLength = 2048

// Input holds the user-provided fields of a new research record.
type Input struct {
	Query        string
	Region       string
	Language     string
	SearchEngine string
	Device       string
	Name         string
	Description  string
	Tags         []string
	IsFavorite   bool
}

// Normalize validates the input and fills defaults (us / en / google / desktop, name = query).
func (in Input) Normalize() (Input, error) {
	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return Input{}, fmt.Errorf("query is required")
	}
	if len(in.Query) > MaxQueryLength {
		return Input{}, fmt.Errorf("query too long (max %d bytes)", MaxQueryLength)
	}
	in.Region = strings.ToLower(strings.TrimSpace(in.Region))
	if in.Region == "" {
		in.Region = "us"
	}
	in.Language = strings.ToLower(strings.TrimSpace(in.Language))
	if in.Language == "" {
		in.Language = "en"
	}
	in.SearchEngine = strings.ToLower(strings.TrimSpace(in.SearchEngine))
	if in.SearchEngine == "" {
		in.SearchEngine = "google"
	}
	in.Device = strings.ToLower(strings.TrimSpace(in.Device))
	if in.Device == "" {
		in.Device = "desktop"
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = in.Query
	}
	in.Tags = tagSet(in.Tags)
	return in, nil
}

// SourceURL returns the query when it is an absolute http(s) URL, else "".
func (in Input) SourceURL() string {
	u, err := url.Parse(in.Query)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return in.Query
}

// Research is the keyword research aggregate root.
type Research struct {
	id          string
	input       Input
	keywords    []keyword.Item
	clusters    map[string]Cluster
	personas    []persona.Persona
	status      Status
	statusError string
	createdAt   int64 // unix millis
	updatedAt   int64 // unix millis
}

// New creates a fresh research record: empty keywords, clusters and personas, status pending.
func New(id string, in Input, now int64) (Research, error) {
	if id == "" {
		return Research{}, fmt.Errorf("research ID is required")
	}
	norm, err := in.Normalize()
	if err != nil {
		return Research{}, err
	}
	return Research{
		id:        id,
		input:     norm,
		keywords:  []keyword.Item{},
		clusters:  map[string]Cluster{},
		personas:  []persona.Persona{},
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// State carries every field of a stored research record for hydration.
type State struct {
	ID          string
	Input       Input
	Keywords    []keyword.Item
	Clusters    map[string]Cluster
	Personas    []persona.Persona
	Status      Status
	StatusError string
	CreatedAt   int64
	UpdatedAt   int64
}

// Reconstruct creates a Research without validation (storage hydration).
func Reconstruct(s State) Research {
	if s.Keywords == nil {
		s.Keywords = []keyword.Item{}
	}
	if s.Clusters == nil {
		s.Clusters = map[string]Cluster{}
	}
	if s.Personas == nil {
		s.Personas = []persona.Persona{}
	}
	return Research{
		id:          s.ID,
		input:       s.Input,
		keywords:    s.Keywords,
		clusters:    s.Clusters,
		personas:    s.Personas,
		status:      s.Status,
		statusError: s.StatusError,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
}

// ID returns the record identifier.
func (r *Research) ID() string { return r.id }

// Input returns the seed query and its settings.
func (r *Research) Input() Input { return r.input }

// Query returns the original seed string.
func (r *Research) Query() string { return r.input.Query }

// Keywords returns the reconciled keyword list.
func (r *Research) Keywords() []keyword.Item { return r.keywords }

// Clusters returns the clusters keyed by name.
func (r *Research) Clusters() map[string]Cluster { return r.clusters }

// Personas returns the persona list.
func (r *Research) Personas() []persona.Persona { return r.personas }

// Status returns the clustering status.
func (r *Research) Status() Status { return r.status }

// StatusError returns the error recorded by the last failed clustering run.
func (r *Research) StatusError() string { return r.statusError }

// CreatedAt returns the creation time in unix millis.
func (r *Research) CreatedAt() int64 { return r.createdAt }

// UpdatedAt returns the last mutation time in unix millis.
func (r *Research) UpdatedAt() int64 { return r.updatedAt }

// State returns a copy of every field for persistence.
func (r *Research) State() State {
	return State{
		ID:          r.id,
		Input:       r.input,
		Keywords:    r.keywords,
		Clusters:    r.clusters,
		Personas:    r.personas,
		Status:      r.status,
		StatusError: r.statusError,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
}

// UniqueKeywords returns the keywords deduplicated by normalized text, higher volume kept.
func (r *Research) UniqueKeywords() []keyword.Item {
	return keyword.Dedupe(r.keywords)
}

// SortedKeywords returns a copy of the keywords ordered by volume descending.
func (r *Research) SortedKeywords() []keyword.Item {
	out := make([]keyword.Item, len(r.keywords))
	copy(out, r.keywords)
	keyword.SortByVolume(out)
	return out
}

func tagSet(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
