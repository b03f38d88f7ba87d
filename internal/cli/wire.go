package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/okravets/shepard/internal/analyzer"
	"github.com/okravets/shepard/internal/graph"
	"github.com/okravets/shepard/internal/model"
	"github.com/okravets/shepard/internal/oracle"
	"github.com/okravets/shepard/internal/store"
	"github.com/okravets/shepard/internal/worker"
)

// components bundles everything a command needs, plus the store handle that
// must be closed when the command finishes
type components struct {
	analyzer *analyzer.Analyzer
	store    *store.Store
	logger   *zap.Logger
}

func (c *components) Close() {
	_ = c.logger.Sync()
	if err := c.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
	}
}

// buildComponents wires the full stack from configuration
func buildComponents(cfg *model.Config) (*components, error) {
	logger, err := buildLogger(cfg.Output.Verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := store.Open(store.Config{
		Dir:      cfg.Store.Dir,
		InMemory: cfg.Store.InMemory,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.Store.Dir, err)
	}

	limiter := worker.NewLimiter(worker.PerHour(cfg.API.RequestsPerHour), 1)

	source := graph.NewHTTPSource(graph.HTTPSourceOptions{
		BaseURL:     cfg.API.BaseURL,
		Token:       cfg.API.Token,
		UserAgent:   cfg.API.UserAgent,
		Timeout:     cfg.API.Timeout,
		MaxBytes:    cfg.API.MaxBodyBytes,
		MaxRetries:  cfg.API.MaxRetries,
		NotFoundTTL: cfg.Cache.NotFoundTTL,
		Limiter:     limiter,
	})

	provider, err := oracle.NewProvider(oracle.ConfigFromModel(cfg.Oracle))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("configure oracle: %w", err)
	}

	a := analyzer.New(analyzer.Options{
		Source:  source,
		Oracle:  oracle.NewClient(provider, limiter, logger),
		Store:   st,
		Nodes:   store.NewNodeCache(st, cfg.Cache.MemoryTTL),
		Workers: cfg.Analysis.Workers,
		Logger:  logger,
	})

	return &components{analyzer: a, store: st, logger: logger}, nil
}

// buildLogger writes structured logs to stderr, leaving stdout for results
func buildLogger(verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
