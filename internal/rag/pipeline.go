// Package rag answers questions about user documents: it chunks and stores the
// document in the user's vector store, retrieves context and asks the model.
package rag

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chunker"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

// Pipeline is safe for concurrent use; requests for different users never contend.
type Pipeline struct {
	chunker   *chunker.Chunker
	stores    *vectorstore.Manager
	embedder  embedding.Embedder
	retriever *Retriever
	synth     *Synthesizer
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for ingestion, retrieval and failure events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(
	c *chunker.Chunker,
	stores *vectorstore.Manager,
	embedder embedding.Embedder,
	retriever *Retriever,
	synth *Synthesizer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		chunker:   c,
		stores:    stores,
		embedder:  embedder,
		retriever: retriever,
		synth:     synth,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stores returns the per-user store manager.
func (p *Pipeline) Stores() *vectorstore.Manager { return p.stores }

// Process answers req. Without a document the model answers from its own
// knowledge and the user's store is never touched. With one, the document is
// ingested first; a later generation failure does not undo the ingestion.
func (p *Pipeline) Process(ctx context.Context, req *models.AskRequest) (*models.Answer, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, newError(KindInvalidInput, "process", req.User, err)
	}
	log := p.logger.With(zap.String("user", req.User))

	if !req.HasDocument() {
		text, err := p.synth.Ungrounded(ctx, req.Question)
		if err != nil {
			log.Warn("ungrounded generation failed", zap.Error(err))
			return nil, withUser(err, req.User)
		}
		log.Info("answered", zap.String("mode", string(models.ModeUngrounded)), zap.Duration("took", time.Since(start)))
		return &models.Answer{Text: text, Mode: models.ModeUngrounded}, nil
	}

	h, res, err := p.ingest(ctx, req.User, req.Document)
	if err != nil {
		return nil, err
	}

	entries, err := p.retriever.Retrieve(ctx, h, req.Question, 0)
	if err != nil {
		log.Warn("retrieval failed", zap.Error(err))
		return nil, err
	}
	chunks := make([]string, len(entries))
	sources := make([]string, len(entries))
	for i, e := range entries {
		chunks[i] = e.Content
		sources[i] = e.ID
	}
	log.Debug("retrieved context", zap.Int("retrieved", len(entries)))

	text, err := p.synth.Grounded(ctx, req.Question, chunks)
	if err != nil {
		log.Warn("grounded generation failed; ingestion kept", zap.Int("inserted", res.Inserted), zap.Error(err))
		return nil, withUser(err, req.User)
	}
	log.Info("answered",
		zap.String("mode", string(models.ModeGrounded)),
		zap.Int("retrieved", len(entries)),
		zap.Duration("took", time.Since(start)))
	return &models.Answer{Text: text, Mode: models.ModeGrounded, Sources: sources, Ingest: res}, nil
}

// Ingest stores document in user's store without answering anything.
// A blank document is a no-op and creates no store.
func (p *Pipeline) Ingest(ctx context.Context, user, document string) (*models.IngestResult, error) {
	if user == "" {
		return nil, newError(KindInvalidInput, "ingest", user, errors.New("user cannot be empty"))
	}
	if !(&models.AskRequest{Document: document}).HasDocument() {
		return &models.IngestResult{}, nil
	}
	_, res, err := p.ingest(ctx, user, document)
	return res, err
}

func (p *Pipeline) ingest(ctx context.Context, user, document string) (*vectorstore.Handle, *models.IngestResult, error) {
	log := p.logger.With(zap.String("user", user))
	chunks := p.chunker.Split(document)

	h, err := p.stores.OpenOrCreate(ctx, user)
	if err != nil {
		log.Error("open store failed", zap.Error(err))
		if errors.Is(err, vectorstore.ErrInvalidUser) {
			return nil, nil, newError(KindInvalidInput, "open store", user, err)
		}
		return nil, nil, newError(KindStorageUnavailable, "open store", user, err)
	}

	res, err := h.Ingest(ctx, chunks, p.embedder)
	if err != nil {
		log.Error("ingest failed", zap.Int("chunks", len(chunks)), zap.Error(err))
		if errors.Is(err, vectorstore.ErrEmbedding) {
			return nil, nil, newError(KindEmbeddingFailure, "ingest", user, err)
		}
		return nil, nil, newError(KindStorageUnavailable, "ingest", user, err)
	}
	log.Info("ingested document",
		zap.Int("chunks", res.Chunks),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("total", res.Total))
	return h, res, nil
}

func withUser(err error, user string) error {
	var e *Error
	if errors.As(err, &e) && e.User == "" {
		e.User = user
	}
	return err
}
