// Package app is the composition root shared by the API server and the operator CLI:
// config -> store -> repositories -> collaborators -> decorators -> use cases.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/config"
	"github.com/kailas-cloud/keywordlab/internal/db"
	dbRedis "github.com/kailas-cloud/keywordlab/internal/db/redis"
	"github.com/kailas-cloud/keywordlab/internal/domain"
	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
	budgetrepo "github.com/kailas-cloud/keywordlab/internal/repository/budget"
	"github.com/kailas-cloud/keywordlab/internal/repository/completioncache"
	researchrepo "github.com/kailas-cloud/keywordlab/internal/repository/research"
	"github.com/kailas-cloud/keywordlab/internal/repository/researchcache"
	"github.com/kailas-cloud/keywordlab/internal/transport/autosuggest"
	"github.com/kailas-cloud/keywordlab/internal/transport/gemini"
	openaiLLM "github.com/kailas-cloud/keywordlab/internal/transport/openai"
	"github.com/kailas-cloud/keywordlab/internal/transport/volume"
	assistantuc "github.com/kailas-cloud/keywordlab/internal/usecase/assistant"
	batchuc "github.com/kailas-cloud/keywordlab/internal/usecase/batch"
	budgetuc "github.com/kailas-cloud/keywordlab/internal/usecase/budget"
	clusteringuc "github.com/kailas-cloud/keywordlab/internal/usecase/clustering"
	healthuc "github.com/kailas-cloud/keywordlab/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
	personauc "github.com/kailas-cloud/keywordlab/internal/usecase/persona"
	usageuc "github.com/kailas-cloud/keywordlab/internal/usecase/usage"
)

// researchRepository is the full research storage surface the use cases share.
//
//nolint:interfacebloat // union of the use case repository contracts
type researchRepository interface {
	keyworduc.Repository
	clusteringuc.Repository
	personauc.Repository
}

// llmProvider is a base completion client.
type llmProvider interface {
	domain.Completer
	domain.HealthChecker
}

// App holds the wired use cases.
type App struct {
	Research   *keyworduc.Service
	Batch      *batchuc.Service
	Clustering *clusteringuc.Orchestrator
	Personas   *personauc.Service
	Usage      *usageuc.Service
	Health     *healthuc.Service

	store  db.Store
	logger *zap.Logger
}

// New connects to the database and wires every use case.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	a, err := Build(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// Build wires the use cases over an open store.
func Build(ctx context.Context, cfg *config.Config, store db.Store, logger *zap.Logger) (*App, error) {
	domain.SetKeyPrefix(cfg.Storage.KeyPrefix)

	// Repositories
	var repo researchRepository = researchrepo.New(store)
	// rmw serves read-merge-write paths (clustering, personas) with uncached reads.
	rmw := repo
	if cfg.Cache.Enabled {
		cached := researchcache.New(repo, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.ResearchCacheTotal, logger)
		repo, rmw = cached, cached.Direct()
	}

	// Budgets are always tracked; zero limits only disable enforcement.
	counters := budgetrepo.New(store, 0, 0)
	llmBudget := newTracker(ctx, domusage.ResourceLLM, cfg.LLM.Budget, counters, logger)
	volumeBudget := newTracker(ctx, domusage.ResourceVolume, cfg.Volume.Budget, counters, logger)

	// LLM chain: provider -> completion cache -> budget
	provider, err := newLLMProvider(ctx, &cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	var completer domain.Completer = provider
	if cfg.LLM.CacheTTLSec > 0 {
		completer = completioncache.New(completer, store,
			time.Duration(cfg.LLM.CacheTTLSec)*time.Second, metrics.CompletionCacheTotal, logger)
	}
	completer = budgetuc.NewCompleter(completer, cfg.LLM.Provider, llmBudget, logger)

	assistant := assistantuc.New(completer, assistantuc.Models{
		Suggest: cfg.LLM.Models.Suggest,
		Cluster: cfg.LLM.Models.Cluster,
		Persona: cfg.LLM.Models.Persona,
	}, logger).WithTemperature(cfg.LLM.Temperature)

	// Search engine collaborators
	suggest := autosuggest.New(&autosuggest.Config{
		BaseURL:     cfg.Autosuggest.BaseURL,
		Client:      cfg.Autosuggest.Client,
		Timeout:     time.Duration(cfg.Autosuggest.TimeoutSec) * time.Second,
		Concurrency: cfg.Autosuggest.Concurrency,
		Alphabet:    cfg.Autosuggest.Alphabet,
		Symbols:     cfg.Autosuggest.Symbols,
		Logger:      logger,
	})
	if cfg.Volume.APIKey == "" {
		logger.Warn("volume.api_key is empty, keyword volumes will be missing")
	}
	lookup := budgetuc.NewVolumeLookup(volume.New(&volume.Config{
		BaseURL:    cfg.Volume.BaseURL,
		APIKey:     cfg.Volume.APIKey,
		Country:    cfg.Volume.Country,
		Currency:   cfg.Volume.Currency,
		DataSource: cfg.Volume.DataSource,
		Timeout:    time.Duration(cfg.Volume.TimeoutSec) * time.Second,
		Logger:     logger,
	}), volumeBudget, logger)

	// Use cases
	research := keyworduc.New(repo,
		keyworduc.NewAggregator(assistant, suggest, cfg.LLM.SuggestionCount, logger),
		keyworduc.NewEnricher(lookup, logger),
		logger,
	).
		WithMaxVolumeKeywords(cfg.Volume.MaxKeywords).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)

	personas := personauc.New(rmw, assistant, logger)

	orchestrator := clusteringuc.New(rmw, assistant, logger).
		WithMinKeywords(cfg.Clustering.MinKeywords).
		WithTimeout(time.Duration(cfg.Clustering.TimeoutSec) * time.Second)
	if cfg.Clustering.GeneratePersonas {
		orchestrator.WithPersonas(personas)
	}

	return &App{
		Research:   research,
		Batch:      batchuc.New(research, logger).WithMaxBatchSize(cfg.Index.MaxBatchSize),
		Clustering: orchestrator,
		Personas:   personas,
		Usage: usageuc.New(map[domusage.Resource]usageuc.BudgetReader{
			domusage.ResourceLLM:    llmBudget,
			domusage.ResourceVolume: volumeBudget,
		}),
		Health: healthuc.New(store, provider),
		store:  store,
		logger: logger,
	}, nil
}

// Close waits for background clustering tasks, then closes the store.
func (a *App) Close(ctx context.Context) error {
	err := a.Clustering.Shutdown(ctx)
	if err != nil {
		a.logger.Error("Clustering tasks still running at shutdown", zap.Error(err))
	}
	a.store.Close()
	return err
}

func newTracker(
	ctx context.Context,
	res domusage.Resource,
	cfg config.BudgetConfig,
	counters *budgetrepo.Store,
	logger *zap.Logger,
) *budgetuc.Tracker {
	action := budgetuc.ActionWarn
	if cfg.Action == string(budgetuc.ActionReject) {
		action = budgetuc.ActionReject
	}
	t := budgetuc.NewTracker(string(res), cfg.DailyLimit, cfg.MonthlyLimit, action, logger)
	if cfg.Enabled() {
		logger.Info("Budget configured",
			zap.String("resource", string(res)),
			zap.Int64("daily_limit", cfg.DailyLimit),
			zap.Int64("monthly_limit", cfg.MonthlyLimit),
			zap.String("action", string(action)),
		)
	}
	return t.WithStore(ctx, counters)
}

func newLLMProvider(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (llmProvider, error) {
	switch cfg.Provider {
	case "gemini":
		c, err := gemini.NewCompleter(ctx, &gemini.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Provider:  cfg.Provider,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create llm provider: %w", err)
		}
		return c, nil
	case "openai", "":
		return openaiLLM.NewCompleter(&openaiLLM.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Provider:  cfg.Provider,
			Logger:    logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
