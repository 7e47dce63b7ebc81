package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port          int
	OpenAIBaseURL string
	OpenAIAPIKey  string
	ChatModel     string
	VisionModel   string
	ContextWindow int
	TavilyAPIKey  string
	MongoURI      string
	DataDir       string
	UploadsDir    string
	MaxToolRounds int
	ModelTimeout  time.Duration
	ToolTimeout   time.Duration
}

// NewConfig loads configuration from a .env file (when present) and the
// process environment. The returned value is passed down explicitly; there
// is no package-level instance.
func NewConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No .env file found; using system environment variables")
		} else {
			logger.Warn("Failed to load .env file", zap.Error(err))
		}
	}

	cfg := &Config{
		Port:          envInt("PORT", 8000),
		OpenAIBaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		ChatModel:     envString("CHAT_MODEL", "gpt-4o"),
		VisionModel:   envString("VISION_MODEL", "gpt-4o"),
		ContextWindow: envInt("CONTEXT_WINDOW", 128000),
		TavilyAPIKey:  strings.TrimSpace(os.Getenv("TAVILY_API_KEY")),
		MongoURI:      os.Getenv("MONGO_URI"),
		DataDir:       envString("DATA_DIR", "data"),
		UploadsDir:    envString("UPLOADS_DIR", "uploads/meals"),
		MaxToolRounds: envInt("MAX_TOOL_ROUNDS", 10),
		ModelTimeout:  envDuration("MODEL_TIMEOUT", 120*time.Second),
		ToolTimeout:   envDuration("TOOL_TIMEOUT", 60*time.Second),
	}

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set in environment variables")
	}
	if cfg.TavilyAPIKey == "" {
		logger.Warn("TAVILY_API_KEY not set; web search tool will be disabled")
	}

	logger.Debug("Loaded configuration",
		zap.Int("port", cfg.Port),
		zap.String("chat_model", cfg.ChatModel),
		zap.String("vision_model", cfg.VisionModel),
		zap.String("openai_api_key", maskKey(cfg.OpenAIAPIKey)))

	return cfg, nil
}

func envString(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(name string, fallback time.Duration) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
