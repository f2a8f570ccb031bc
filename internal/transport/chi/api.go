package chi

import "time"

// ErrorResponseCode is the machine-readable error code of an API error.
type ErrorResponseCode string

// API error codes.
const (
	ErrorResponseCodeBadRequest           ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized         ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed     ErrorResponseCode = "validation_failed"
	ErrorResponseCodeResearchNotFound     ErrorResponseCode = "research_not_found"
	ErrorResponseCodeClusterNotFound      ErrorResponseCode = "cluster_not_found"
	ErrorResponseCodeClusteringInProgress ErrorResponseCode = "clustering_in_progress"
	ErrorResponseCodeClusteringCompleted  ErrorResponseCode = "clustering_completed"
	ErrorResponseCodeInsufficientKeywords ErrorResponseCode = "insufficient_keywords"
	ErrorResponseCodeRateLimited          ErrorResponseCode = "rate_limited"
	ErrorResponseCodeQuotaExceeded        ErrorResponseCode = "quota_exceeded"
	ErrorResponseCodeLLMProviderError     ErrorResponseCode = "llm_provider_error"
	ErrorResponseCodeMalformedOutput      ErrorResponseCode = "malformed_output"
	ErrorResponseCodeVolumeProviderError  ErrorResponseCode = "volume_provider_error"
	ErrorResponseCodeSuggestProviderError ErrorResponseCode = "suggest_provider_error"
	ErrorResponseCodeServiceUnavailable   ErrorResponseCode = "service_unavailable"
	ErrorResponseCodeNotImplemented       ErrorResponseCode = "not_implemented"
	ErrorResponseCodeInternalError        ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ResearchID is the path parameter naming a research record.
type ResearchID = string

// CreateResearchRequest starts a keyword research run.
type CreateResearchRequest struct {
	Query            string   `json:"query"`
	Region           string   `json:"region,omitempty"`
	Language         string   `json:"language,omitempty"`
	SearchEngine     string   `json:"search_engine,omitempty"`
	Device           string   `json:"device,omitempty"`
	Name             string   `json:"name,omitempty"`
	Description      string   `json:"description,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	IsFavorite       bool     `json:"is_favorite,omitempty"`
	FilterZeroVolume bool     `json:"filter_zero_volume,omitempty"`
	Alphabet         bool     `json:"alphabet,omitempty"`
	Symbols          bool     `json:"symbols,omitempty"`
}

// CreateResearchResponse reports the created record.
type CreateResearchResponse struct {
	Success    bool   `json:"success"`
	ResearchID string `json:"research_id"`
}

// BatchResearchRequest runs several research requests in order.
type BatchResearchRequest struct {
	Items []CreateResearchRequest `json:"items"`
}

// BatchResultItem is the outcome of one batch item.
type BatchResultItem struct {
	Index      int     `json:"index"`
	Query      string  `json:"query"`
	Status     string  `json:"status"`
	ResearchID *string `json:"research_id,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// BatchResearchResponse lists per-item outcomes.
type BatchResearchResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// KeywordItem is a keyword with its search metrics.
type KeywordItem struct {
	Text         string   `json:"text"`
	SearchVolume int64    `json:"search_volume"`
	Competition  *float64 `json:"competition,omitempty"`
	CPC          *float64 `json:"cpc,omitempty"`
}

// Cluster is a named keyword group.
type Cluster struct {
	Keywords    []string `json:"keywords"`
	TotalVolume int64    `json:"total_volume"`
}

// Persona is a generated audience profile.
type Persona struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	Characteristics []string `json:"characteristics"`
	Interests       []string `json:"interests"`
	PainPoints      []string `json:"pain_points"`
	Goals           []string `json:"goals"`
}

// Research is the full research record.
type Research struct {
	ID               string             `json:"id"`
	Query            string             `json:"query"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	Region           string             `json:"region"`
	Language         string             `json:"language"`
	SearchEngine     string             `json:"search_engine"`
	Device           string             `json:"device"`
	Tags             []string           `json:"tags"`
	IsFavorite       bool               `json:"is_favorite"`
	Keywords         []KeywordItem      `json:"keywords"`
	Clusters         map[string]Cluster `json:"clusters"`
	Personas         []Persona          `json:"personas"`
	ClusteringStatus string             `json:"clustering_status"`
	ClusteringError  *string            `json:"clustering_error,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ResearchSummary is a research record without its keyword payload.
type ResearchSummary struct {
	ID               string    `json:"id"`
	Query            string    `json:"query"`
	Name             string    `json:"name"`
	Region           string    `json:"region"`
	Language         string    `json:"language"`
	Tags             []string  `json:"tags"`
	IsFavorite       bool      `json:"is_favorite"`
	KeywordCount     int       `json:"keyword_count"`
	ClusterCount     int       `json:"cluster_count"`
	ClusteringStatus string    `json:"clustering_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ResearchCursorListResponse is one page of research summaries.
type ResearchCursorListResponse struct {
	Items      []ResearchSummary `json:"items"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

// ListResearchParams are the query parameters of GET /research.
type ListResearchParams struct {
	Cursor *string `json:"cursor,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
}

// ClusteringResponse acknowledges an accepted clustering request.
type ClusteringResponse struct {
	Success    bool   `json:"success"`
	ResearchID string `json:"research_id"`
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
}

// ClusteringStatusResponse is the clustering state of a record.
type ClusteringStatusResponse struct {
	ResearchID string    `json:"research_id"`
	Status     string    `json:"status"`
	Error      *string   `json:"error,omitempty"`
	Clusters   int       `json:"clusters"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SavePersonaRequest generates the persona of one cluster.
type SavePersonaRequest struct {
	ClusterName string    `json:"cluster_name"`
	Keywords    *[]string `json:"keywords,omitempty"`
	Model       *string   `json:"model,omitempty"`
}

// SavePersonaResponse reports the stored persona.
type SavePersonaResponse struct {
	Success bool     `json:"success"`
	Persona *Persona `json:"persona,omitempty"`
}

// GetUsageParamsPeriod is the usage aggregation period.
type GetUsageParamsPeriod string

// GetUsageParamsResource is the metered resource.
type GetUsageParamsResource string

// GetUsageParams are the query parameters of GET /usage.
type GetUsageParams struct {
	Period   *GetUsageParamsPeriod   `json:"period,omitempty"`
	Resource *GetUsageParamsResource `json:"resource,omitempty"`
}

// UsageMetrics counts calls and consumed units (tokens or keywords).
type UsageMetrics struct {
	Requests int64 `json:"requests"`
	Units    int64 `json:"units"`
}

// BudgetStatus is the remaining budget of a resource.
type BudgetStatus struct {
	Limit       int64      `json:"limit"`
	Remaining   int64      `json:"remaining"`
	IsExhausted bool       `json:"is_exhausted"`
	ResetsAt    *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the usage report of one resource.
type UsageResponse struct {
	Period        string       `json:"period"`
	Resource      string       `json:"resource"`
	Usage         UsageMetrics `json:"usage"`
	Budget        BudgetStatus `json:"budget"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
}

// HealthResponse is the aggregated health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
