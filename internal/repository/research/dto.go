package research

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	domres "github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// Hash field names of a stored research record.
const (
	fieldID          = "id"
	fieldInput       = "input"
	fieldKeywords    = "keywords"
	fieldClusters    = "clusters"
	fieldPersonas    = "personas"
	fieldStatus      = "status"
	fieldStatusError = "status_error"
	fieldCreatedAt   = "created_at"
	fieldUpdatedAt   = "updated_at"
)

// inputRow is the JSON-serializable representation of the research settings.
type inputRow struct {
	Query        string   `json:"query"`
	Region       string   `json:"region"`
	Language     string   `json:"language"`
	SearchEngine string   `json:"searchEngine"`
	Device       string   `json:"device"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags"`
	IsFavorite   bool     `json:"isFavorite"`
}

func toInputRow(in domres.Input) inputRow {
	return inputRow{
		Query:        in.Query,
		Region:       in.Region,
		Language:     in.Language,
		SearchEngine: in.SearchEngine,
		Device:       in.Device,
		Name:         in.Name,
		Description:  in.Description,
		Tags:         in.Tags,
		IsFavorite:   in.IsFavorite,
	}
}

func (row inputRow) toDomain() domres.Input {
	return domres.Input{
		Query:        row.Query,
		Region:       row.Region,
		Language:     row.Language,
		SearchEngine: row.SearchEngine,
		Device:       row.Device,
		Name:         row.Name,
		Description:  row.Description,
		Tags:         row.Tags,
		IsFavorite:   row.IsFavorite,
	}
}

// researchToHash converts a domain Research to a map for HSET.
func researchToHash(r *domres.Research) (map[string]string, error) {
	inputJSON, err := json.Marshal(toInputRow(r.Input()))
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}
	fields := map[string]string{
		fieldID:          r.ID(),
		fieldInput:       string(inputJSON),
		fieldStatus:      string(r.Status()),
		fieldStatusError: r.StatusError(),
		fieldCreatedAt:   strconv.FormatInt(r.CreatedAt(), 10),
		fieldUpdatedAt:   strconv.FormatInt(r.UpdatedAt(), 10),
	}
	if fields[fieldKeywords], err = encodeJSON(r.Keywords()); err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	if fields[fieldClusters], err = encodeJSON(r.Clusters()); err != nil {
		return nil, fmt.Errorf("marshal clusters: %w", err)
	}
	if fields[fieldPersonas], err = encodeJSON(r.Personas()); err != nil {
		return nil, fmt.Errorf("marshal personas: %w", err)
	}
	return fields, nil
}

// researchFromHash hydrates a domain Research from an HGETALL result map.
// Missing collection fields decode as empty; a missing status decodes as StatusNone.
func researchFromHash(m map[string]string) (domres.Research, error) {
	var row inputRow
	if raw := m[fieldInput]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return domres.Research{}, fmt.Errorf("unmarshal input: %w", err)
		}
	}

	var keywords []keyword.Item
	if err := decodeJSON(m[fieldKeywords], &keywords); err != nil {
		return domres.Research{}, fmt.Errorf("unmarshal keywords: %w", err)
	}
	var clusters map[string]domres.Cluster
	if err := decodeJSON(m[fieldClusters], &clusters); err != nil {
		return domres.Research{}, fmt.Errorf("unmarshal clusters: %w", err)
	}
	var personas []persona.Persona
	if err := decodeJSON(m[fieldPersonas], &personas); err != nil {
		return domres.Research{}, fmt.Errorf("unmarshal personas: %w", err)
	}

	status, err := domres.ParseStatus(m[fieldStatus])
	if err != nil {
		return domres.Research{}, err
	}

	return domres.Reconstruct(domres.State{
		ID:          m[fieldID],
		Input:       row.toDomain(),
		Keywords:    keywords,
		Clusters:    clusters,
		Personas:    personas,
		Status:      status,
		StatusError: m[fieldStatusError],
		CreatedAt:   parseMillis(m[fieldCreatedAt]),
		UpdatedAt:   parseMillis(m[fieldUpdatedAt]),
	}), nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func parseMillis(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
