package config

const DefaultOllamaURL = "http://127.0.0.1:11434"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout.Duration == 0 {
		cfg.Server.ReadTimeout = Seconds(30)
	}
	if cfg.Server.RequestTimeout.Duration == 0 {
		cfg.Server.RequestTimeout = Seconds(180)
	}
	if cfg.Server.WriteTimeout.Duration == 0 {
		cfg.Server.WriteTimeout = Duration{cfg.Server.RequestTimeout.Duration + Seconds(10).Duration}
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	if cfg.Server.CookieName == "" {
		cfg.Server.CookieName = "session_id"
	}
	if cfg.Server.SessionTTL.Duration == 0 {
		cfg.Server.SessionTTL = Seconds(24 * 60 * 60)
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = ".kotae/data"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == nil {
		overlap := cfg.Chunking.OverlapOrDefault()
		cfg.Chunking.ChunkOverlap = &overlap
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 2
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = 10
	}
	if cfg.Retrieval.Lambda == nil {
		lambda := cfg.Retrieval.LambdaOrDefault()
		cfg.Retrieval.Lambda = &lambda
	}
	if cfg.Retrieval.Index == "" {
		cfg.Retrieval.Index = "memory"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaultEmbeddingModel(cfg.Embedding.Provider)
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == "ollama" {
		cfg.Embedding.BaseURL = DefaultOllamaURL
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = defaultAPIKeyEnv(cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = defaultDimensions(cfg.Embedding.Provider)
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = ".kotae/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Embedding.Timeout.Duration == 0 {
		cfg.Embedding.Timeout = Seconds(30)
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel(cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = DefaultOllamaURL
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = defaultAPIKeyEnv(cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout.Duration == 0 {
		cfg.LLM.Timeout = Seconds(120)
	}
	if cfg.LLM.ResponseLanguage == "" {
		cfg.LLM.ResponseLanguage = "Chinese"
	}
	if cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = 1
	}
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case "openai":
		return "text-embedding-3-small"
	case "gemini":
		return "text-embedding-004"
	default:
		return "nomic-embed-text"
	}
}

func defaultLLMModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "gemma2:9b"
	}
}

func defaultAPIKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	}
	return ""
}

func defaultDimensions(provider string) int {
	switch provider {
	case "openai":
		return 1536
	case "onnx", "mock", "hashing":
		return 384
	default:
		return 768
	}
}
