// Package config provides configuration loading and structs for the kotae server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" toml:"debug"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking" toml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" toml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding" toml:"embedding"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host" toml:"host"`
	Port           int      `yaml:"port" toml:"port"`
	ReadTimeout    Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout" toml:"write_timeout"`
	RequestTimeout Duration `yaml:"request_timeout" toml:"request_timeout"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	CookieName     string   `yaml:"cookie_name" toml:"cookie_name"`
	SecureCookie   bool     `yaml:"secure_cookie" toml:"secure_cookie"`
	SessionTTL     Duration `yaml:"session_ttl" toml:"session_ttl"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataDir holds users.db and one directory per user under users/.
	DataDir     string `yaml:"data_dir" toml:"data_dir"`
	UsersDBPath string `yaml:"users_db_path" toml:"users_db_path"`
	// PromptsDir optionally holds <name>.tmpl files overriding the built-in prompts.
	PromptsDir string `yaml:"prompts_dir" toml:"prompts_dir"`
}

// UsersDir is the parent directory of the per-user vector stores.
func (s *StorageConfig) UsersDir() string {
	return filepath.Join(s.DataDir, "users")
}

// ChunkingConfig holds chunker settings, in characters.
type ChunkingConfig struct {
	ChunkSize    int  `yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap" toml:"chunk_overlap"`
}

// OverlapOrDefault returns the configured overlap; 100 when unset.
func (c *ChunkingConfig) OverlapOrDefault() int {
	if c.ChunkOverlap != nil {
		return *c.ChunkOverlap
	}
	return 100
}

// RetrievalConfig holds maximal marginal relevance settings and the index backend.
type RetrievalConfig struct {
	K      int      `yaml:"k" toml:"k"`
	FetchK int      `yaml:"fetch_k" toml:"fetch_k"`
	Lambda *float64 `yaml:"lambda" toml:"lambda"`
	Index  string   `yaml:"index" toml:"index"`
}

// LambdaOrDefault returns the configured lambda; 0.5 when unset.
func (r *RetrievalConfig) LambdaOrDefault() float64 {
	if r.Lambda != nil {
		return *r.Lambda
	}
	return 0.5
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" toml:"provider"`
	Model      string `yaml:"model" toml:"model"`
	BaseURL    string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env" toml:"api_key_env"`
	Dimensions int    `yaml:"dimensions" toml:"dimensions"`
	// ModelPath and MaxTokens apply to the onnx provider.
	ModelPath   string   `yaml:"model_path" toml:"model_path"`
	MaxTokens   int      `yaml:"max_tokens" toml:"max_tokens"`
	CacheSize   int      `yaml:"cache_size" toml:"cache_size"`
	Concurrency int      `yaml:"concurrency" toml:"concurrency"`
	Timeout     Duration `yaml:"timeout" toml:"timeout"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider    string   `yaml:"provider" toml:"provider"`
	Model       string   `yaml:"model" toml:"model"`
	BaseURL     string   `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env" toml:"api_key_env"`
	Temperature float64  `yaml:"temperature" toml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens" toml:"max_tokens"`
	Timeout     Duration `yaml:"timeout" toml:"timeout"`
	// ResponseLanguage is the language grounded answers are written in.
	ResponseLanguage string `yaml:"response_language" toml:"response_language"`
	// RateLimit caps model calls per second across all requests; 0 disables it.
	RateLimit float64 `yaml:"rate_limit" toml:"rate_limit"`
	Burst     int     `yaml:"burst" toml:"burst"`
}

// APIKey resolves an api_key_env setting to its value.
func APIKey(env string) string {
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

// Load reads and parses the config file at path, applies defaults, expands paths and validates.
// The format is TOML for a .toml extension and YAML otherwise. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := unmarshal(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	if cfg.Storage.UsersDBPath == "" {
		cfg.Storage.UsersDBPath = filepath.Join(cfg.Storage.DataDir, "users.db")
	} else {
		cfg.Storage.UsersDBPath = expandPath(cfg.Storage.UsersDBPath, configDir)
	}
	if cfg.Storage.PromptsDir != "" {
		cfg.Storage.PromptsDir = expandPath(cfg.Storage.PromptsDir, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path, as TOML for a .toml extension and YAML otherwise.
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
