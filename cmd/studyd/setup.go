package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/study/config"
	"github.com/aschepis/backscratcher/study/llm"
	studylogger "github.com/aschepis/backscratcher/study/logger"
	"github.com/aschepis/backscratcher/study/memory"
	"github.com/aschepis/backscratcher/study/retrieval"
	"github.com/aschepis/backscratcher/study/workflow"
)

// app holds what every subcommand needs. close must be called when done.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *memory.Store
	close  func() error
}

func newApp(opts *rootOptions) (*app, error) {
	logger, err := studylogger.InitWithOptions(opts.logFile, opts.pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug().
		Str("config", opts.configPath).
		Str("memory_backend", cfg.Memory.Backend).
		Strs("llm_providers", cfg.LLMProviders).
		Msg("Loaded configuration")

	store, closeFn, err := config.OpenMemory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory: %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: store, close: closeFn}, nil
}

// gateway resolves the configured provider and wraps it with logging and retries.
func (a *app) gateway() (*llm.Gateway, error) {
	client, key, err := config.NewClient(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Str("provider", key.Provider).Str("model", key.Model).Msg("Using LLM provider")

	client = llm.WrapWithMiddleware(client, llm.NewLoggingMiddleware(a.logger))
	client = llm.WithRetry(client, a.cfg.RetryPolicy(), a.logger)
	return llm.NewGateway(client, a.cfg.GatewayConfig(), a.logger), nil
}

// index chunks and embeds each document into a fresh in-memory index.
func (a *app) index(ctx context.Context, docs []string, count retrieval.TokenCounter) (*retrieval.Index, error) {
	embedder, err := config.NewEmbedder(a.cfg)
	if err != nil {
		return nil, err
	}
	idx, err := retrieval.NewIndex(embedder, a.logger)
	if err != nil {
		return nil, err
	}
	chunkCfg := retrieval.ChunkerConfig{
		MaxTokens:     a.cfg.Retrieval.ChunkTokens,
		OverlapTokens: a.cfg.Retrieval.ChunkOverlap,
	}
	for _, path := range docs {
		data, err := os.ReadFile(path) //#nosec G304 -- user-selected study material
		if err != nil {
			return nil, fmt.Errorf("failed to read document %q: %w", path, err)
		}
		n, err := idx.Ingest(ctx, string(data), chunkCfg, count)
		if err != nil {
			return nil, fmt.Errorf("failed to index document %q: %w", path, err)
		}
		a.logger.Info().Str("path", path).Int("chunks", n).Msg("Indexed document")
	}
	return idx, nil
}

// engine builds the study engine over gen and the given documents.
func (a *app) engine(ctx context.Context, gen workflow.Generator, docs []string) (*workflow.Engine, error) {
	count := retrieval.DefaultTokenCounter(a.logger)
	idx, err := a.index(ctx, docs, count)
	if err != nil {
		return nil, err
	}
	return workflow.NewStudyEngine(workflow.Deps{
		Generator:     gen,
		Retriever:     idx,
		Memory:        a.store,
		Logger:        a.logger,
		TopK:          a.cfg.Retrieval.TopK,
		QuizLimit:     a.cfg.Workflow.QuizLimit,
		ContextTokens: a.cfg.Workflow.ContextTokens,
		TokenCounter:  count,
	})
}
