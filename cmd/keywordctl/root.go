package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/app"
	"github.com/kailas-cloud/keywordlab/internal/config"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
	logpkg "github.com/kailas-cloud/keywordlab/internal/logger"
	clusteringuc "github.com/kailas-cloud/keywordlab/internal/usecase/clustering"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
	personauc "github.com/kailas-cloud/keywordlab/internal/usecase/persona"
)

type researchService interface {
	ProcessAndSaveQuery(ctx context.Context, req keyworduc.Request) keyworduc.Result
	Get(ctx context.Context, id string) (research.Research, error)
	List(ctx context.Context, cursor string, limit int) ([]research.Research, string, error)
	Delete(ctx context.Context, id string) error
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

// cli carries the flags shared by every subcommand and the services they run against.
// connect fills the services; tests replace it with fakes.
type cli struct {
	configPath string
	env        string

	research   researchService
	clustering clusteringService
	personas   personaService
	usage      usageService

	connect func(ctx context.Context) error
	close   func(ctx context.Context) error
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "keywordctl",
		Short:         "Operate the keyword research pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.connect == nil {
				c.connect = c.connectApp
			}
			return c.connect(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.close == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 30*time.Second)
			defer cancel()
			return c.close(ctx)
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a config file (default config/<env>.yaml)")
	root.PersistentFlags().StringVar(&c.env, "env", "", "config environment when --config is not set (default $ENV or local)")

	root.AddCommand(
		newResearchCmd(c),
		newListCmd(c),
		newShowCmd(c),
		newDeleteCmd(c),
		newClusterCmd(c),
		newStatusCmd(c),
		newPersonaCmd(c),
		newUsageCmd(c),
	)
	return root
}

func (c *cli) connectApp(ctx context.Context) error {
	var (
		cfg config.Config
		err error
	)
	env := c.env
	if env == "" {
		env = config.GetEnv()
	}
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	c.research = a.Research
	c.clustering = a.Clustering
	c.personas = a.Personas
	c.usage = a.Usage
	c.close = func(ctx context.Context) error {
		defer func() { _ = logger.Sync() }()
		if err := a.Close(ctx); err != nil {
			logger.Warn("Shutdown incomplete", zap.Error(err))
			return fmt.Errorf("close: %w", err)
		}
		return nil
	}
	return nil
}
