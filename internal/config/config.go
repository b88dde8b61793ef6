package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures one model endpoint (embedding or chat).
type LLMConfig struct {
	Provider    string `yaml:"provider"` // "openai" (OpenRouter-compatible) or "ollama"
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RAGConfig holds the chunking and retrieval budgets.
type RAGConfig struct {
	ChunkTokens   int    `yaml:"chunk_tokens"`
	OverlapTokens int    `yaml:"overlap_tokens"`
	TopK          int    `yaml:"top_k"`
	Encoding      string `yaml:"encoding"`
}

// StorageConfig locates uploads and the vector database on disk.
type StorageConfig struct {
	DataDir     string `yaml:"data_dir"`
	Collection  string `yaml:"collection"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// DatabaseConfig connects the file registry and history store.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Storage  StorageConfig  `yaml:"storage"`
}

// LoadConfig reads the YAML config at path, fills defaults, and lets
// OPENROUTER_API_KEY and DATABASE_URL override the file so secrets can stay
// out of it.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.EmbedLLM.Key = key
		cfg.ChatLLM.Key = key
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return &cfg, nil
}

// UploadDir is where stored uploads live under the data dir.
func (c *Config) UploadDir() string {
	return filepath.Join(c.Storage.DataDir, "uploads")
}

// VectorDir is where the chromem database persists under the data dir.
func (c *Config) VectorDir() string {
	return filepath.Join(c.Storage.DataDir, "chromem")
}

// MaxUploadBytes is the hard cap on one uploaded file.
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB * 1024 * 1024
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5555
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "openai/text-embedding-3-large"
	}
	if cfg.EmbedLLM.BatchSize == 0 {
		cfg.EmbedLLM.BatchSize = 64
	}
	if cfg.EmbedLLM.TimeoutSecs == 0 {
		cfg.EmbedLLM.TimeoutSecs = 120
	}
	if cfg.ChatLLM.BaseURL == "" {
		cfg.ChatLLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.ChatLLM.Model == "" {
		cfg.ChatLLM.Model = "openai/gpt-4o"
	}
	if cfg.ChatLLM.TimeoutSecs == 0 {
		cfg.ChatLLM.TimeoutSecs = 180
	}
	if cfg.RAG.ChunkTokens == 0 {
		cfg.RAG.ChunkTokens = 2000
	}
	if cfg.RAG.OverlapTokens == 0 {
		cfg.RAG.OverlapTokens = 200
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 6
	}
	if cfg.RAG.Encoding == "" {
		cfg.RAG.Encoding = "cl100k_base"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Storage.Collection == "" {
		cfg.Storage.Collection = "rag_chunks"
	}
	if cfg.Storage.MaxUploadMB == 0 {
		cfg.Storage.MaxUploadMB = 200
	}
}
