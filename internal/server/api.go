package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes)
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large", rag.KindInvalidInput)
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body", rag.KindInvalidInput)
		return
	}
	req.User = currentUser(r)
	s.logger.Debug("ask request", zap.String("user", req.User), zap.Bool("document", req.HasDocument()))

	answer, err := s.pipeline.Process(r.Context(), &req)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userCount, err := s.accounts.Count(ctx)
	if err != nil {
		s.logger.Error("status: count users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	resp := map[string]interface{}{
		"users": userCount,
	}
	if n, err := storage.CountSubdirs(s.config.Storage.UsersDir()); err == nil {
		resp["stores"] = n
	}
	if bytes, err := storage.DiskUsageBytes(s.config.Storage.DataDir); err == nil {
		resp["disk_usage_bytes"] = bytes
	}

	// only report a store that already exists; status must not create one
	if user := currentUser(r); user != "" {
		resp["user"] = user
		stores := s.pipeline.Stores()
		var entries int64
		if stores.Exists(user) {
			h, err := stores.OpenOrCreate(ctx, user)
			if err == nil {
				entries, err = h.Count(ctx)
			}
			if err != nil {
				s.logger.Warn("status: count entries failed", zap.String("user", user), zap.Error(err))
			}
		}
		resp["entries"] = entries
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"chunk_size":         cfg.Chunking.ChunkSize,
		"chunk_overlap":      cfg.Chunking.OverlapOrDefault(),
		"k":                  cfg.Retrieval.K,
		"fetch_k":            cfg.Retrieval.FetchK,
		"lambda":             cfg.Retrieval.LambdaOrDefault(),
		"vector_index_type":  cfg.Retrieval.Index,
		"embedding_provider": cfg.Embedding.Provider,
		"embedding_model":    cfg.Embedding.Model,
		"llm_provider":       cfg.LLM.Provider,
		"llm_model":          cfg.LLM.Model,
		"response_language":  cfg.LLM.ResponseLanguage,
	}
	s.respondJSON(w, http.StatusOK, resp)
}
