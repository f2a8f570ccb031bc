package keywordlab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/app"
	"github.com/kailas-cloud/keywordlab/internal/config"
	dombatch "github.com/kailas-cloud/keywordlab/internal/domain/batch"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	clusteringuc "github.com/kailas-cloud/keywordlab/internal/usecase/clustering"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
	personauc "github.com/kailas-cloud/keywordlab/internal/usecase/persona"
)

// Use case seams, replaced in tests.
type researchUseCase interface {
	ProcessAndSaveQuery(ctx context.Context, req keyworduc.Request) keyworduc.Result
	Get(ctx context.Context, id string) (research.Research, error)
	List(ctx context.Context, cursor string, limit int) ([]research.Research, string, error)
	Delete(ctx context.Context, id string) error
}

type batchUseCase interface {
	Research(ctx context.Context, items []keyworduc.Request) []dombatch.Result
}

type clusteringUseCase interface {
	RequestClustering(ctx context.Context, researchID string) (clusteringuc.Result, *clusteringuc.Task)
	FetchClusteringStatus(ctx context.Context, researchID string) (clusteringuc.StatusReport, error)
}

type personaUseCase interface {
	SavePersona(ctx context.Context, researchID, clusterName string, keywords []string, model string) personauc.Result
}

// Client is the keywordlab SDK entry point.
type Client struct {
	researchSvc   researchUseCase
	batchSvc      batchUseCase
	clusteringSvc clusteringUseCase
	personaSvc    personaUseCase
	usageSvc      usageUseCase
	healthSvc     healthUseCase
	closer        func(ctx context.Context) error
	obs           *observer
}

// New creates a keywordlab Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("keywordlab: database address required (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg.appConfig(), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("keywordlab: %w", err)
	}
	return wireClient(a, obs), nil
}

// appConfig maps options onto the service configuration, defaults included.
func (c *clientConfig) appConfig() *config.Config {
	var cfg config.Config
	cfg.Database.Addrs = c.addrs
	cfg.Database.Password = c.password
	cfg.Database.DB = c.db
	cfg.LLM.Provider = c.llmProvider
	cfg.LLM.APIKey = c.llmAPIKey
	cfg.LLM.BaseURL = c.llmBaseURL
	cfg.LLM.Model = c.llmModel
	cfg.LLM.CacheTTLSec = c.cacheTTLSec
	cfg.Volume.BaseURL = c.volumeBaseURL
	cfg.Volume.APIKey = c.volumeAPIKey
	cfg.Autosuggest.BaseURL = c.suggestBaseURL
	cfg.Storage.KeyPrefix = c.keyPrefix
	cfg.Index.MaxBatchSize = c.maxBatchSize
	cfg.Clustering.GeneratePersonas = c.generatePersonas
	cfg.ApplyDefaults()
	return &cfg
}

func wireClient(a *app.App, obs *observer) *Client {
	return &Client{
		researchSvc:   a.Research,
		batchSvc:      a.Batch,
		clusteringSvc: a.Clustering,
		personaSvc:    a.Personas,
		usageSvc:      a.Usage,
		healthSvc:     a.Health,
		closer:        a.Close,
		obs:           obs,
	}
}

// Close waits for background clustering runs (bounded by ctx) and releases all resources.
func (c *Client) Close(ctx context.Context) error {
	if c.closer == nil {
		return nil
	}
	if err := c.closer(ctx); err != nil {
		return fmt.Errorf("keywordlab: close: %w", err)
	}
	return nil
}

// Research runs the keyword pipeline for q and returns the saved record ID.
// When the record was saved but a later step failed, the ID is returned with the error.
func (c *Client) Research(ctx context.Context, q Query) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("research", start, err) }()

	res := c.researchSvc.ProcessAndSaveQuery(ctx, q.request())
	if !res.Success {
		return res.ResearchID, res.Err
	}
	return res.ResearchID, nil
}

// Batch runs queries in order and reports each outcome.
func (c *Client) Batch(ctx context.Context, queries []Query) []BatchItem {
	start := time.Now()

	reqs := make([]keyworduc.Request, len(queries))
	for i := range queries {
		reqs[i] = queries[i].request()
	}
	results := c.batchSvc.Research(ctx, reqs)

	out := make([]BatchItem, len(results))
	var failed error
	for i, r := range results {
		out[i] = BatchItem{Index: r.Index(), Query: r.Query(), ResearchID: r.ResearchID(), Err: r.Err()}
		if r.Err() != nil && failed == nil {
			failed = r.Err()
		}
	}
	c.obs.observe("batch", start, failed)
	return out
}

// Get returns one research record.
func (c *Client) Get(ctx context.Context, id string) (r Research, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err) }()

	rec, err := c.researchSvc.Get(ctx, id)
	if err != nil {
		return Research{}, fmt.Errorf("get research: %w", err)
	}
	return researchFromDomain(&rec), nil
}

// List returns a page of records, newest first, and the cursor of the next page ("" at the end).
// A limit of 0 uses the default page size.
func (c *Client) List(ctx context.Context, cursor string, limit int) (page []Research, next string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list", start, err) }()

	recs, next, err := c.researchSvc.List(ctx, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list research: %w", err)
	}
	page = make([]Research, len(recs))
	for i := range recs {
		page[i] = researchFromDomain(&recs[i])
	}
	return page, next, nil
}

// Delete removes a research record.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	if err = c.researchSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete research: %w", err)
	}
	return nil
}

// Cluster claims the record for clustering and starts the run in the background.
func (c *Client) Cluster(ctx context.Context, id string) (t *ClusteringTask, err error) {
	start := time.Now()
	defer func() { c.obs.observe("cluster", start, err) }()

	res, task := c.clusteringSvc.RequestClustering(ctx, id)
	if !res.Success {
		return nil, res.Err
	}
	return &ClusteringTask{researchID: id, task: task}, nil
}

// ClusteringStatus returns the stored clustering state of a record.
func (c *Client) ClusteringStatus(ctx context.Context, id string) (s ClusteringState, err error) {
	start := time.Now()
	defer func() { c.obs.observe("clustering_status", start, err) }()

	rep, err := c.clusteringSvc.FetchClusteringStatus(ctx, id)
	if err != nil {
		return ClusteringState{}, fmt.Errorf("clustering status: %w", err)
	}
	return ClusteringState{
		ResearchID: rep.ResearchID,
		Status:     ClusteringStatus(rep.Status),
		Error:      rep.Error,
		Clusters:   rep.Clusters,
		UpdatedAt:  time.UnixMilli(rep.UpdatedAt).UTC(),
	}, nil
}

// SavePersona generates the persona of one cluster and stores it on the record.
// keywords and model are optional overrides.
func (c *Client) SavePersona(ctx context.Context, id, clusterName string, keywords []string, model string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("save_persona", start, err) }()

	if res := c.personaSvc.SavePersona(ctx, id, clusterName, keywords, model); !res.Success {
		return res.Err
	}
	return nil
}
