package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	dombatch "github.com/kailas-cloud/keywordlab/internal/domain/batch"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
	clusteringuc "github.com/kailas-cloud/keywordlab/internal/usecase/clustering"
	healthuc "github.com/kailas-cloud/keywordlab/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
	personauc "github.com/kailas-cloud/keywordlab/internal/usecase/persona"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

type researchService interface {
	ProcessAndSaveQuery(ctx context.Context, req keyworduc.Request) keyworduc.Result
	Get(ctx context.Context, id string) (research.Research, error)
	List(ctx context.Context, cursor string, limit int) ([]research.Research, string, error)
	Delete(ctx context.Context, id string) error
}

type batchService interface {
	MaxBatchSize() int
	Research(ctx context.Context, items []keyworduc.Request) []dombatch.Result
}

type clusteringService interface {
	RequestClustering(ctx context.Context, researchID string) (clusteringuc.Result, *clusteringuc.Task)
	FetchClusteringStatus(ctx context.Context, researchID string) (clusteringuc.StatusReport, error)
}

type personaService interface {
	SavePersona(ctx context.Context, researchID, clusterName string, keywords []string, model string) personauc.Result
}

type usageService interface {
	GetReport(ctx context.Context, res domusage.Resource, period domusage.Period) domusage.Report
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Services groups the use cases the API serves.
type Services struct {
	Research   researchService
	Batch      batchService
	Clustering clusteringService
	Personas   personaService
	Usage      usageService
	Health     healthService
}

// Server implements ServerInterface over the research use cases.
type Server struct {
	research      researchService
	batch         batchService
	clustering    clusteringService
	personas      personaService
	usage         usageService
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	s := &Server{
		research:   svc.Research,
		batch:      svc.Batch,
		clustering: svc.Clustering,
		personas:   svc.Personas,
		usage:      svc.Usage,
		health:     svc.Health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrResearchNotFound, http.StatusNotFound, ErrorResponseCodeResearchNotFound),
		sentinelHandler(domain.ErrClusterNotFound, http.StatusNotFound, ErrorResponseCodeClusterNotFound),
		sentinelHandler(domain.ErrClusteringInProgress, http.StatusConflict, ErrorResponseCodeClusteringInProgress),
		sentinelHandler(domain.ErrClusteringCompleted, http.StatusConflict, ErrorResponseCodeClusteringCompleted),
		sentinelHandler(domain.ErrInsufficientKeywords,
			http.StatusUnprocessableEntity, ErrorResponseCodeInsufficientKeywords),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, ErrorResponseCodeQuotaExceeded),
		sentinelHandler(domain.ErrMalformedOutput, http.StatusBadGateway, ErrorResponseCodeMalformedOutput),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, ErrorResponseCodeLLMProviderError),
		sentinelHandler(domain.ErrVolumeProviderError, http.StatusBadGateway, ErrorResponseCodeVolumeProviderError),
		sentinelHandler(domain.ErrSuggestProviderError,
			http.StatusBadGateway, ErrorResponseCodeSuggestProviderError),
		sentinelHandler(domain.ErrUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeServiceUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorResponseCodeNotImplemented),
	}
	return s
}

// CreateResearch handles POST /research.
func (s *Server) CreateResearch(w http.ResponseWriter, r *http.Request) {
	var req CreateResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "Query is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res := s.research.ProcessAndSaveQuery(ctx, requestFromAPI(req))
	setLLMHeaders(w, usage)
	if !res.Success {
		if res.ResearchID != "" {
			w.Header().Set("X-Research-ID", res.ResearchID)
		}
		s.handleDomainError(w, r, res.Err)
		return
	}

	w.Header().Set("Location", "/research/"+res.ResearchID)
	writeJSON(w, http.StatusCreated, CreateResearchResponse{Success: true, ResearchID: res.ResearchID})
}

// BatchResearch handles POST /research/batch.
func (s *Server) BatchResearch(w http.ResponseWriter, r *http.Request) {
	var req BatchResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	maxSize := s.batch.MaxBatchSize()
	if len(req.Items) == 0 || len(req.Items) > maxSize {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("items count must be between 1 and %d", maxSize))
		return
	}

	items := make([]keyworduc.Request, len(req.Items))
	for i, item := range req.Items {
		items[i] = requestFromAPI(item)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results := s.batch.Research(ctx, items)

	out := make([]BatchResultItem, len(results))
	for i, res := range results {
		out[i] = batchResultToAPI(res)
	}
	succeeded, failed := dombatch.Summary(results)

	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, BatchResearchResponse{
		Items:     out,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// ListResearch handles GET /research.
func (s *Server) ListResearch(w http.ResponseWriter, r *http.Request, params ListResearchParams) {
	cursor := ""
	if params.Cursor != nil {
		cursor = *params.Cursor
	}
	limit := 0
	if params.Limit != nil {
		if *params.Limit <= 0 {
			WriteError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "limit must be positive")
			return
		}
		limit = *params.Limit
	}

	records, next, err := s.research.List(r.Context(), cursor, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]ResearchSummary, len(records))
	for i := range records {
		items[i] = summaryToAPI(&records[i])
	}
	resp := ResearchCursorListResponse{Items: items, HasMore: next != ""}
	if next != "" {
		resp.NextCursor = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetResearch handles GET /research/{researchId}.
func (s *Server) GetResearch(w http.ResponseWriter, r *http.Request, researchID ResearchID) {
	rec, err := s.research.Get(r.Context(), researchID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, researchToAPI(&rec))
}

// DeleteResearch handles DELETE /research/{researchId}.
func (s *Server) DeleteResearch(w http.ResponseWriter, r *http.Request, researchID ResearchID) {
	if err := s.research.Delete(r.Context(), researchID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestClustering handles POST /research/{researchId}/clustering.
func (s *Server) RequestClustering(w http.ResponseWriter, r *http.Request, researchID ResearchID) {
	res, task := s.clustering.RequestClustering(r.Context(), researchID)
	if !res.Success {
		s.handleDomainError(w, r, res.Err)
		return
	}

	resp := ClusteringResponse{
		Success:    true,
		ResearchID: researchID,
		Status:     string(research.StatusProcessing),
	}
	if task != nil {
		resp.TaskID = task.ID()
	}
	w.Header().Set("Location", "/research/"+researchID+"/clustering")
	writeJSON(w, http.StatusAccepted, resp)
}

// GetClusteringStatus handles GET /research/{researchId}/clustering.
func (s *Server) GetClusteringStatus(w http.ResponseWriter, r *http.Request, researchID ResearchID) {
	report, err := s.clustering.FetchClusteringStatus(r.Context(), researchID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := ClusteringStatusResponse{
		ResearchID: report.ResearchID,
		Status:     string(report.Status),
		Clusters:   report.Clusters,
		UpdatedAt:  time.UnixMilli(report.UpdatedAt).UTC(),
	}
	if report.Error != "" {
		msg := report.Error
		resp.Error = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

// SavePersona handles POST /research/{researchId}/personas.
func (s *Server) SavePersona(w http.ResponseWriter, r *http.Request, researchID ResearchID) {
	var req SavePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.ClusterName) == "" {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "cluster_name is required")
		return
	}

	var keywords []string
	if req.Keywords != nil {
		keywords = *req.Keywords
	}
	model := ""
	if req.Model != nil {
		model = *req.Model
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res := s.personas.SavePersona(ctx, researchID, req.ClusterName, keywords, model)
	setLLMHeaders(w, usage)
	if !res.Success {
		s.handleDomainError(w, r, res.Err)
		return
	}

	resp := SavePersonaResponse{Success: true}
	if rec, err := s.research.Get(r.Context(), researchID); err == nil {
		if p, ok := persona.NewSet(rec.Personas()).Get(req.ClusterName); ok {
			out := personaToAPI(p)
			resp.Persona = &out
		}
	} else {
		logpkg.FromContext(r.Context(), s.logger).Warn("Persona saved but record reload failed",
			zap.String("research_id", researchID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	var rawPeriod, rawResource string
	if params.Period != nil {
		rawPeriod = string(*params.Period)
	}
	if params.Resource != nil {
		rawResource = string(*params.Resource)
	}
	period, err := domusage.ParsePeriod(rawPeriod)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}
	resource, err := domusage.ParseResource(rawResource)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), resource, period)

	resp := UsageResponse{
		Period:   string(report.Period()),
		Resource: string(report.Resource()),
		Usage: UsageMetrics{
			Requests: report.Metrics().Requests(),
			Units:    report.Metrics().Units(),
		},
		Budget: BudgetStatus{
			Limit:       report.Budget().Limit(),
			Remaining:   report.Budget().Remaining(),
			IsExhausted: report.Budget().IsExhausted(),
		},
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setLLMHeaders(w http.ResponseWriter, usage *domain.LLMUsage) {
	tokens, calls := usage.Snapshot()
	if calls > 0 {
		w.Header().Set("X-LLM-Tokens", strconv.Itoa(tokens))
		w.Header().Set("X-LLM-Calls", strconv.Itoa(calls))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Caller-caused errors keep their
// detail; upstream and storage failures collapse to the sentinel text.
func safeDomainMessage(err error) string {
	detailed := []error{
		domain.ErrInvalidInput,
		domain.ErrInsufficientKeywords,
		domain.ErrClusterNotFound,
	}
	for _, s := range detailed {
		if errors.Is(err, s) {
			return err.Error()
		}
	}

	sentinels := []error{
		domain.ErrResearchNotFound,
		domain.ErrClusteringInProgress,
		domain.ErrClusteringCompleted,
		domain.ErrRateLimited,
		domain.ErrQuotaExceeded,
		domain.ErrMalformedOutput,
		domain.ErrLLMProviderError,
		domain.ErrVolumeProviderError,
		domain.ErrSuggestProviderError,
		domain.ErrUnavailable,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		WriteError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New("operation failed without error")
	}
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}

	log.Error("internal error", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func requestFromAPI(req CreateResearchRequest) keyworduc.Request {
	return keyworduc.Request{
		Input: research.Input{
			Query:        req.Query,
			Region:       req.Region,
			Language:     req.Language,
			SearchEngine: req.SearchEngine,
			Device:       req.Device,
			Name:         req.Name,
			Description:  req.Description,
			Tags:         req.Tags,
			IsFavorite:   req.IsFavorite,
		},
		FilterZeroVolume: req.FilterZeroVolume,
		Alphabet:         req.Alphabet,
		Symbols:          req.Symbols,
	}
}

func batchResultToAPI(res dombatch.Result) BatchResultItem {
	item := BatchResultItem{
		Index:  res.Index(),
		Query:  res.Query(),
		Status: string(res.Status()),
	}
	if id := res.ResearchID(); id != "" {
		item.ResearchID = &id
	}
	if res.Err() != nil {
		msg := safeDomainMessage(res.Err())
		item.Error = &msg
	}
	return item
}

func researchToAPI(rec *research.Research) Research {
	in := rec.Input()
	sorted := rec.SortedKeywords()
	keywords := make([]KeywordItem, len(sorted))
	for i, k := range sorted {
		keywords[i] = KeywordItem{
			Text:         k.Text,
			SearchVolume: k.SearchVolume,
			Competition:  k.Competition,
			CPC:          k.CPC,
		}
	}

	clusters := make(map[string]Cluster, len(rec.Clusters()))
	for name, c := range rec.Clusters() {
		clusters[name] = Cluster{Keywords: c.Keywords, TotalVolume: c.TotalVolume}
	}

	personas := make([]Persona, len(rec.Personas()))
	for i, p := range rec.Personas() {
		personas[i] = personaToAPI(p)
	}

	out := Research{
		ID:               rec.ID(),
		Query:            in.Query,
		Name:             in.Name,
		Description:      in.Description,
		Region:           in.Region,
		Language:         in.Language,
		SearchEngine:     in.SearchEngine,
		Device:           in.Device,
		Tags:             nonNil(in.Tags),
		IsFavorite:       in.IsFavorite,
		Keywords:         keywords,
		Clusters:         clusters,
		Personas:         personas,
		ClusteringStatus: string(rec.Status().Effective()),
		CreatedAt:        time.UnixMilli(rec.CreatedAt()).UTC(),
		UpdatedAt:        time.UnixMilli(rec.UpdatedAt()).UTC(),
	}
	if msg := rec.StatusError(); msg != "" {
		out.ClusteringError = &msg
	}
	return out
}

func summaryToAPI(rec *research.Research) ResearchSummary {
	in := rec.Input()
	return ResearchSummary{
		ID:               rec.ID(),
		Query:            in.Query,
		Name:             in.Name,
		Region:           in.Region,
		Language:         in.Language,
		Tags:             nonNil(in.Tags),
		IsFavorite:       in.IsFavorite,
		KeywordCount:     len(rec.Keywords()),
		ClusterCount:     len(rec.Clusters()),
		ClusteringStatus: string(rec.Status().Effective()),
		CreatedAt:        time.UnixMilli(rec.CreatedAt()).UTC(),
		UpdatedAt:        time.UnixMilli(rec.UpdatedAt()).UTC(),
	}
}

func personaToAPI(p persona.Persona) Persona {
	return Persona{
		Name:            p.Name,
		Description:     p.Description,
		Keywords:        nonNil(p.Keywords),
		Characteristics: nonNil(p.Characteristics),
		Interests:       nonNil(p.Interests),
		PainPoints:      nonNil(p.PainPoints),
		Goals:           nonNil(p.Goals),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
