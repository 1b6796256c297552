package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Guide content source
	SiteURL   string
	SiteAppID string
	SiteID    string

	// API auth
	APIKey string

	// Embedding / answer provider
	ProviderBaseURL     string
	ProviderAPIKey      string
	EmbeddingModel      string
	ChatModel           string
	EmbeddingDimensions int

	// Qdrant
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	DefaultTopK int

	// Progress retention
	ProgressTTL time.Duration

	// CORS
	AllowedOrigins string
}

func Load() Config {
	// Local development reads a .env file when present.
	_ = godotenv.Load()

	return Config{
		Port: envOr("PORT", "8090"),

		SiteURL:   os.Getenv("SITE_URL"),
		SiteAppID: os.Getenv("SITE_APP_ID"),
		SiteID:    envOr("SITE_ID", "default"),

		APIKey: os.Getenv("API_KEY"),

		ProviderBaseURL:     envOr("PROVIDER_BASE_URL", "https://api.openai.com/v1"),
		ProviderAPIKey:      os.Getenv("PROVIDER_API_KEY"),
		EmbeddingModel:      envOr("EMBEDDING_MODEL", "text-embedding-3-large"),
		ChatModel:           envOr("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingDimensions: envInt("EMBEDDING_DIMENSIONS", 1024),

		QdrantURL:        envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "docs"),

		ChunkSize:    envInt("CHUNK_SIZE", 1000),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 200),

		DefaultTopK: envInt("DEFAULT_TOP_K", 5),

		ProgressTTL: envDuration("PROGRESS_TTL", 24*time.Hour),

		AllowedOrigins: envOr("CHAT_ALLOWED_ORIGINS", "*"),
	}
}

func (c Config) Validate() error {
	if c.SiteURL == "" {
		return fmt.Errorf("SITE_URL is required")
	}
	if c.SiteAppID == "" {
		return fmt.Errorf("SITE_APP_ID is required")
	}
	if c.ProviderAPIKey == "" {
		return fmt.Errorf("PROVIDER_API_KEY is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
