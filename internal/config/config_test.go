package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: "45s"
storage:
  data_dir: "./data"
llm:
  model: "llama3.2"
  response_language: "English"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout.Duration != 45*time.Second {
		t.Errorf("request_timeout = %v, want 45s", cfg.Server.RequestTimeout)
	}
	if cfg.LLM.Model != "llama3.2" || cfg.LLM.ResponseLanguage != "English" {
		t.Errorf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_toml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
debug = true

[server]
port = 9100
session_ttl = "1h"

[retrieval]
k = 3
fetch_k = 12
lambda = 0.0
index = "chromem"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Server.Port != 9100 || cfg.Server.SessionTTL.Duration != time.Hour {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Retrieval.K != 3 || cfg.Retrieval.FetchK != 12 || cfg.Retrieval.Index != "chromem" {
		t.Errorf("unexpected retrieval config: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.LambdaOrDefault() != 0 {
		t.Errorf("explicit lambda 0 should be kept, got %v", cfg.Retrieval.LambdaOrDefault())
	}
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.OverlapOrDefault() != 100 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  data_dir: "./var/data"
  prompts_dir: "./prompts"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantData := filepath.Join(dir, "var", "data")
	if cfg.Storage.DataDir != wantData {
		t.Errorf("data_dir = %s, want %s", cfg.Storage.DataDir, wantData)
	}
	if cfg.Storage.UsersDBPath != filepath.Join(wantData, "users.db") {
		t.Errorf("users_db_path = %s", cfg.Storage.UsersDBPath)
	}
	if cfg.Storage.UsersDir() != filepath.Join(wantData, "users") {
		t.Errorf("users dir = %s", cfg.Storage.UsersDir())
	}
	if cfg.Storage.PromptsDir != filepath.Join(dir, "prompts") {
		t.Errorf("prompts_dir = %s", cfg.Storage.PromptsDir)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"overlap not below size", "chunking:\n  chunk_size: 100\n  chunk_overlap: 100\n"},
		{"fetch_k below k", "retrieval:\n  k: 5\n  fetch_k: 3\n"},
		{"lambda out of range", "retrieval:\n  lambda: 1.5\n"},
		{"unknown index", "retrieval:\n  index: faiss\n"},
		{"unknown embedding provider", "embedding:\n  provider: word2vec\n"},
		{"unknown llm provider", "llm:\n  provider: eliza\n"},
		{"bad duration", "server:\n  request_timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.CookieName != "session_id" {
		t.Errorf("default cookie name: got %s", cfg.Server.CookieName)
	}
	if cfg.Retrieval.K != 2 || cfg.Retrieval.FetchK != 10 || cfg.Retrieval.LambdaOrDefault() != 0.5 {
		t.Errorf("retrieval defaults: got %+v", cfg.Retrieval)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "gemma2:9b" || cfg.LLM.Temperature != 0 {
		t.Errorf("llm defaults: got %+v", cfg.LLM)
	}
	if cfg.LLM.BaseURL != DefaultOllamaURL || cfg.Embedding.BaseURL != DefaultOllamaURL {
		t.Errorf("ollama base urls: %s, %s", cfg.LLM.BaseURL, cfg.Embedding.BaseURL)
	}
	if cfg.LLM.ResponseLanguage != "Chinese" {
		t.Errorf("response language: got %s", cfg.LLM.ResponseLanguage)
	}
	if cfg.Server.WriteTimeout.Duration <= cfg.Server.RequestTimeout.Duration {
		t.Error("write timeout should exceed request timeout")
	}
}

func TestApplyDefaults_providerSpecific(t *testing.T) {
	cfg := &Config{
		Embedding: EmbeddingConfig{Provider: "openai"},
		LLM:       LLMConfig{Provider: "gemini"},
	}
	ApplyDefaults(cfg)
	if cfg.Embedding.Model != "text-embedding-3-small" || cfg.Embedding.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("openai embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.BaseURL != "" {
		t.Errorf("openai should not get the ollama base url, got %s", cfg.Embedding.BaseURL)
	}
	if cfg.LLM.Model != "gemini-2.5-flash" || cfg.LLM.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("gemini llm defaults: %+v", cfg.LLM)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("KOTAE_TEST_KEY", "secret")
	if got := APIKey("KOTAE_TEST_KEY"); got != "secret" {
		t.Errorf("APIKey = %q", got)
	}
	if got := APIKey(""); got != "" {
		t.Errorf("empty env name should give empty key, got %q", got)
	}
}

func TestSave(t *testing.T) {
	for _, name := range []string{"saved.yaml", "saved.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 9090}}
			ApplyDefaults(cfg)
			if err := Save(path, cfg); err != nil {
				t.Fatal(err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if loaded.Server.Port != 9090 {
				t.Errorf("loaded port: got %d", loaded.Server.Port)
			}
			if loaded.Server.SessionTTL != cfg.Server.SessionTTL {
				t.Errorf("session ttl: got %v, want %v", loaded.Server.SessionTTL, cfg.Server.SessionTTL)
			}
		})
	}
}
