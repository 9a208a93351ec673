package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/accounts"
	"github.com/hyperjump/kotae/internal/chunker"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/prompts"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

// Components holds everything a command needs to answer questions.
type Components struct {
	Users     *storage.SQLiteUserStore
	Accounts  *accounts.Service
	Embedder  embedding.Embedder
	Generator llm.Generator
	Prompts   *prompts.Store
	Stores    *vectorstore.Manager
	Pipeline  *rag.Pipeline
	Extractor *extract.Extractor
}

func (c *Components) Close() {
	if c.Prompts != nil {
		c.Prompts.Close()
	}
	if c.Stores != nil {
		_ = c.Stores.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Users != nil {
		_ = c.Users.Close()
	}
}

func openAccounts(cfg *config.Config, logger *zap.Logger) (*storage.SQLiteUserStore, *accounts.Service, error) {
	users, err := storage.NewSQLiteUserStore(cfg.Storage.UsersDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open user store: %w", err)
	}
	svc, err := accounts.NewService(users, accounts.WithLogger(logger))
	if err != nil {
		_ = users.Close()
		return nil, nil, err
	}
	return users, svc, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Extractor: extract.NewExtractor()}
	var err error
	fail := func(e error) (*Components, error) {
		c.Close()
		return nil, e
	}

	if c.Users, c.Accounts, err = openAccounts(cfg, logger); err != nil {
		return fail(err)
	}

	if c.Embedder, err = embedding.New(ctx, cfg.Embedding); err != nil {
		return fail(fmt.Errorf("failed to initialize embedder: %w", err))
	}
	if c.Generator, err = llm.New(ctx, cfg.LLM); err != nil {
		return fail(fmt.Errorf("failed to initialize llm: %w", err))
	}
	logger.Info("models initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", c.Generator.Model()),
	)

	if c.Prompts, err = prompts.New(cfg.Storage.PromptsDir, prompts.WithLogger(logger)); err != nil {
		return fail(fmt.Errorf("failed to load prompts: %w", err))
	}

	c.Stores = vectorstore.NewManager(cfg.Storage.UsersDir(),
		vectorstore.WithLogger(logger),
		vectorstore.WithIndexType(cfg.Retrieval.Index),
	)

	chunks, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.OverlapOrDefault())
	if err != nil {
		return fail(err)
	}
	retriever, err := rag.NewRetriever(c.Embedder, cfg.Retrieval.K, cfg.Retrieval.FetchK, cfg.Retrieval.LambdaOrDefault())
	if err != nil {
		return fail(err)
	}
	synth := rag.NewSynthesizer(c.Generator, c.Prompts, cfg.LLM.ResponseLanguage)
	c.Pipeline = rag.NewPipeline(chunks, c.Stores, c.Embedder, retriever, synth, rag.WithLogger(logger))
	return c, nil
}
