/**
 * Configuration for the math solver service
 *
 * Loads configuration from environment variables (optionally seeded from .env)
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DefaultSiliconFlowURL = "https://api.siliconflow.cn/v1/chat/completions"
	DefaultModel          = "deepseek-ai/DeepSeek-R1-Distill-Qwen-7B"
)

// Config holds service configuration
type Config struct {
	// HTTP listener
	Host string
	Port int

	// SiliconFlow chat-completion API
	SiliconFlowAPIKey string
	SiliconFlowAPIURL string
	Model             string
	Temperature       float64
	MaxTokens         int
	SolverTimeout     time.Duration

	// OCR configuration
	OCRLanguages []string

	// Upload limits
	MaxUploadSize  int64
	MaxImagePixels int

	// Static frontend directory served under /
	FrontendDir string

	// Runtime
	GinMode   string
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables.
// SILICONFLOW_API_KEY is optional here: a missing key is reported per request.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Host:              getEnvOrDefault("MCP_HOST", getEnvOrDefault("HOST", "0.0.0.0")),
		Port:              getEnvAsIntOrDefault("MCP_PORT", getEnvAsIntOrDefault("PORT", 8000)),
		SiliconFlowAPIKey: os.Getenv("SILICONFLOW_API_KEY"),
		SiliconFlowAPIURL: getEnvOrDefault("SILICONFLOW_API_URL", DefaultSiliconFlowURL),
		Model:             getEnvOrDefault("SILICONFLOW_MODEL", DefaultModel),
		Temperature:       getEnvAsFloatOrDefault("SOLVER_TEMPERATURE", 0.2),
		MaxTokens:         getEnvAsIntOrDefault("SOLVER_MAX_TOKENS", 1000),
		SolverTimeout:     time.Duration(getEnvAsIntOrDefault("SOLVER_TIMEOUT_SECONDS", 60)) * time.Second,
		OCRLanguages:      getEnvAsListOrDefault("OCR_LANGUAGES", []string{"chi_sim", "eng"}),
		MaxUploadSize:     getEnvAsInt64OrDefault("MAX_UPLOAD_SIZE", 10<<20), // 10MB
		MaxImagePixels:    getEnvAsIntOrDefault("MAX_IMAGE_PIXELS", 89478485),
		FrontendDir:       getEnvOrDefault("FRONTEND_DIR", "../frontend"),
		GinMode:           getEnvOrDefault("GIN_MODE", "release"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	if c.SiliconFlowAPIURL == "" {
		return fmt.Errorf("SILICONFLOW_API_URL is required")
	}

	if c.Model == "" {
		return fmt.Errorf("SILICONFLOW_MODEL is required")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("SOLVER_TEMPERATURE must be between 0 and 2, got %v", c.Temperature)
	}

	if c.MaxTokens < 1 {
		return fmt.Errorf("SOLVER_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}

	if c.SolverTimeout <= 0 {
		return fmt.Errorf("SOLVER_TIMEOUT_SECONDS must be positive")
	}

	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one language")
	}

	if c.MaxUploadSize < 1024 || c.MaxUploadSize > 100<<20 { // 1KB to 100MB
		return fmt.Errorf("MAX_UPLOAD_SIZE must be between 1KB and 100MB, got %d", c.MaxUploadSize)
	}

	if c.MaxImagePixels < 1 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be positive, got %d", c.MaxImagePixels)
	}

	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("GIN_MODE must be one of debug, release, test, got %q", c.GinMode)
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault splits a comma or plus separated list ("chi_sim+eng")
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.FieldsFunc(valueStr, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
