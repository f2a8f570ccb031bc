package clustering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

// DefaultMinKeywords is the smallest unique keyword set worth clustering.
const DefaultMinKeywords = 5

const terminalWriteTimeout = 10 * time.Second

// Result reports whether a clustering request was accepted.
type Result struct {
	Success bool
	Err     error
}

// Message returns the failure message, "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// StatusReport is the clustering state of one record.
type StatusReport struct {
	ResearchID string
	Status     research.Status
	Error      string
	Clusters   int
	UpdatedAt  int64
}

// Orchestrator claims records for clustering and runs the clustering collaborator
// in the background.
type Orchestrator struct {
	repo      Repository
	clusterer Clusterer
	personas  PersonaGenerator

	minKeywords int
	timeout     time.Duration
	model       string
	newID       func() string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	logger *zap.Logger
}

// New creates an orchestrator.
func New(repo Repository, clusterer Clusterer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:        repo,
		clusterer:   clusterer,
		minKeywords: DefaultMinKeywords,
		newID:       uuid.NewString,
		logger:      logger,
	}
}

// WithMinKeywords configures the unique keyword minimum.
func (o *Orchestrator) WithMinKeywords(n int) *Orchestrator {
	if n > 0 {
		o.minKeywords = n
	}
	return o
}

// WithTimeout bounds the clustering collaborator call. Zero means no bound.
func (o *Orchestrator) WithTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.timeout = d
	}
	return o
}

// WithModel selects the model passed to the collaborators.
func (o *Orchestrator) WithModel(model string) *Orchestrator {
	o.model = model
	return o
}

// WithPersonas enables persona generation for every cluster after a successful run.
func (o *Orchestrator) WithPersonas(p PersonaGenerator) *Orchestrator {
	o.personas = p
	return o
}

// RequestClustering claims the record and starts a background clustering run.
// The returned task is nil when the request was rejected before the claim.
// Records with too few unique keywords are settled as failed within the call.
func (o *Orchestrator) RequestClustering(ctx context.Context, researchID string) (res Result, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			o.log(ctx).Error("Clustering request panicked",
				zap.String("research_id", researchID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err := fmt.Errorf("unexpected failure: %v", r)
			if task != nil {
				o.settle(ctx, task, research.StatusFailed, err)
			}
			res = Result{Err: err}
		}
	}()

	if researchID == "" {
		return Result{Err: fmt.Errorf("research id is required: %w", domain.ErrInvalidInput)}, nil
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return Result{Err: fmt.Errorf("clustering: %w", domain.ErrUnavailable)}, nil
	}
	o.wg.Add(1)
	o.mu.Unlock()
	started := false
	defer func() {
		if !started {
			o.wg.Done()
		}
	}()

	if err := o.repo.ClaimClustering(ctx, researchID); err != nil {
		if errors.Is(err, domain.ErrClusteringInProgress) || errors.Is(err, domain.ErrClusteringCompleted) {
			metrics.ClusteringRunsTotal.WithLabelValues("rejected").Inc()
			o.log(ctx).Info("Clustering request rejected",
				zap.String("research_id", researchID),
				zap.Error(err),
			)
		}
		return Result{Err: fmt.Errorf("claim clustering: %w", err)}, nil
	}

	task = newTask(o.newID(), researchID)

	rec, err := o.repo.Get(ctx, researchID)
	if err != nil {
		err = fmt.Errorf("load keywords: %w", err)
		o.settle(ctx, task, research.StatusFailed, err)
		return Result{Err: err}, task
	}

	items := rec.UniqueKeywords()
	if len(items) < o.minKeywords {
		err := domain.NewInsufficientKeywords(len(items), o.minKeywords)
		metrics.ClusteringRunsTotal.WithLabelValues("insufficient").Inc()
		o.settle(ctx, task, research.StatusFailed, err)
		return Result{Err: err}, task
	}

	started = true
	metrics.ClusteringInFlight.Inc()
	go o.run(context.WithoutCancel(ctx), task, items)

	o.log(ctx).Info("Clustering started",
		zap.String("research_id", researchID),
		zap.String("task_id", task.ID()),
		zap.Int("keywords", len(items)),
	)
	return Result{Success: true}, task
}

func (o *Orchestrator) run(ctx context.Context, task *Task, items []keyword.Item) {
	defer o.wg.Done()
	defer metrics.ClusteringInFlight.Dec()
	defer func() {
		if r := recover(); r != nil {
			o.log(ctx).Error("Clustering run panicked",
				zap.String("research_id", task.ResearchID()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			o.settle(ctx, task, research.StatusFailed, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	start := time.Now()
	clusters, err := o.cluster(ctx, items)
	if err == nil {
		err = o.repo.UpdateClusters(ctx, task.ResearchID(), clusters)
		if err != nil {
			err = fmt.Errorf("save clusters: %w", err)
		}
	}
	if err != nil {
		o.log(ctx).Warn("Clustering failed",
			zap.String("research_id", task.ResearchID()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		o.settle(ctx, task, research.StatusFailed, err)
		return
	}

	o.settle(ctx, task, research.StatusCompleted, nil)
	o.log(ctx).Info("Clustering completed",
		zap.String("research_id", task.ResearchID()),
		zap.Int("clusters", len(clusters)),
		zap.Duration("duration", time.Since(start)),
	)

	if o.personas != nil {
		o.generatePersonas(ctx, task.ResearchID(), clusters)
	}
}

func (o *Orchestrator) cluster(ctx context.Context, items []keyword.Item) (map[string]research.Cluster, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	raw, err := o.clusterer.ClusterKeywords(ctx, keyword.Texts(items), o.model)
	if err != nil {
		return nil, fmt.Errorf("cluster keywords: %w", err)
	}
	clusters := research.BuildClusters(raw, items)
	if len(clusters) == 0 {
		return nil, fmt.Errorf("cluster keywords: no clusters returned: %w", domain.ErrMalformedOutput)
	}
	return clusters, nil
}

// generatePersonas runs one persona call per cluster, largest first. A failed
// cluster is logged and skipped.
func (o *Orchestrator) generatePersonas(ctx context.Context, researchID string, clusters map[string]research.Cluster) {
	for _, name := range research.ClusterNames(clusters) {
		if err := o.personas.Generate(ctx, researchID, name, clusters[name].Keywords, o.model); err != nil {
			o.log(ctx).Warn("Persona generation failed",
				zap.String("research_id", researchID),
				zap.String("cluster", name),
				zap.Error(err),
			)
		}
	}
}

// settle writes the terminal status once per task. A failing status write is
// logged and does not change the recorded outcome.
func (o *Orchestrator) settle(ctx context.Context, task *Task, status research.Status, runErr error) {
	task.settle(status, runErr, func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
		defer cancel()

		msg := ""
		if runErr != nil {
			msg = runErr.Error()
		}
		if err := o.repo.UpdateStatus(wctx, task.ResearchID(), status, msg); err != nil {
			o.log(ctx).Error("Failed to write clustering status",
				zap.String("research_id", task.ResearchID()),
				zap.String("status", string(status)),
				zap.Error(err),
			)
		}
		if status == research.StatusCompleted {
			metrics.ClusteringRunsTotal.WithLabelValues("completed").Inc()
		} else if !errors.Is(runErr, domain.ErrInsufficientKeywords) {
			metrics.ClusteringRunsTotal.WithLabelValues("failed").Inc()
		}
	})
}

// FetchClusteringStatus reads the clustering state of a record.
func (o *Orchestrator) FetchClusteringStatus(ctx context.Context, researchID string) (StatusReport, error) {
	rec, err := o.repo.Get(ctx, researchID)
	if err != nil {
		return StatusReport{}, fmt.Errorf("get research: %w", err)
	}
	return StatusReport{
		ResearchID: rec.ID(),
		Status:     rec.Status().Effective(),
		Error:      rec.StatusError(),
		Clusters:   len(rec.Clusters()),
		UpdatedAt:  rec.UpdatedAt(),
	}, nil
}

// Shutdown stops accepting requests and waits for running tasks or ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("clustering shutdown: %w", ctx.Err())
	}
}

// log returns the request logger carried by ctx, or the service logger.
func (o *Orchestrator) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, o.logger)
}
