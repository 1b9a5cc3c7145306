package config

import (
	"os"
	"time"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./storage/metadata.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "./storage/vector_index.bin"
	}
	if cfg.Storage.LockPath == "" {
		cfg.Storage.LockPath = cfg.Storage.DatabasePath + ".lock"
	}
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = "./data"
	}
	if cfg.Source.Extensions == nil {
		cfg.Source.Extensions = []string{".txt"}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.Model == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.QueryCacheSize == 0 {
		cfg.Embedding.QueryCacheSize = 1000
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.PreviewLength == 0 {
		cfg.Search.PreviewLength = 150
	}
	if cfg.Refresh.Workers == 0 {
		cfg.Refresh.Workers = 4
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}
