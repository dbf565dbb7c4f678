// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds runtime settings.
type Config struct {
	Provider  string
	LLMModel  string
	APIKey    string
	BaseURL   string
	Character string

	DataPath    string
	DatabaseURL string

	EmbeddingBackend string
	EmbeddingModel   string
	GoogleAPIKey     string
	OllamaURL        string

	TopK                int
	ShortTermDepth      int
	SimilarityThreshold float64

	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Load reads env vars and applies defaults. Call Validate before use.
func Load() Config {
	cfg := Config{
		Provider:         os.Getenv("PROVIDER"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		APIKey:           os.Getenv("API_KEY"),
		BaseURL:          os.Getenv("BASE_URL"),
		Character:        os.Getenv("CHARACTER"),
		DataPath:         os.Getenv("DATA_PATH"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		EmbeddingBackend: os.Getenv("EMBEDDING_BACKEND"),
		EmbeddingModel:   os.Getenv("EMBEDDING_MODEL"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		OllamaURL:        os.Getenv("OLLAMA_URL"),
	}

	cfg.TopK = getEnvInt("TOP_K", 4)
	cfg.ShortTermDepth = getEnvInt("SHORT_TERM_DEPTH", 3)
	cfg.SimilarityThreshold = getEnvFloat("SIMILARITY_THRESHOLD", 0.7)
	cfg.MaxTokens = getEnvInt("MAX_TOKENS", 512)
	cfg.Temperature = getEnvFloat("TEMPERATURE", 0.9)
	cfg.TopP = getEnvFloat("TOP_P", 0.95)
	cfg.FrequencyPenalty = getEnvFloat("FREQUENCY_PENALTY", 0)
	cfg.PresencePenalty = getEnvFloat("PRESENCE_PENALTY", 0)

	if cfg.Provider == "" {
		cfg.Provider = "local"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "local-model"
	}
	if cfg.DataPath == "" {
		cfg.DataPath = "companion.json"
	}
	if cfg.EmbeddingBackend == "" {
		cfg.EmbeddingBackend = "ollama"
	}
	return cfg
}

// Validate reports configuration the adapters would reject anyway, so the
// process fails at startup instead of on the first message.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "mistral", "gemini":
		if c.APIKey == "" {
			return fmt.Errorf("API_KEY is required for provider %q", c.Provider)
		}
	case "local":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.EmbeddingBackend == "genai" && c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required for the genai embedding backend")
	}
	if c.Character == "" {
		return fmt.Errorf("CHARACTER is required")
	}
	return nil
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}
