package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/rag"
)

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch rag.KindOf(err) {
	case rag.KindInvalidInput:
		return http.StatusBadRequest
	case rag.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case rag.KindEmbeddingFailure, rag.KindGenerationFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// publicMessage is what clients see for err; internal details stay in the logs.
func publicMessage(err error) string {
	switch rag.KindOf(err) {
	case rag.KindInvalidInput:
		return err.Error()
	case rag.KindStorageUnavailable:
		return "document store is unavailable"
	case rag.KindEmbeddingFailure:
		return "embedding model request failed"
	case rag.KindGenerationFailure:
		return "language model request failed"
	}
	return "internal error"
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, kind rag.Kind) {
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = string(kind)
	}
	s.respondJSON(w, status, body)
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, publicMessage(err), rag.KindOf(err))
}
