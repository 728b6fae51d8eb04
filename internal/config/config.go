package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Advisor  AdvisorConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Geoapify    string
	GeocoderRPS float64
}

type AIConfig struct {
	LLMProvider string // "ollama", "anthropic" or "huggingface"
	LLMModel    string
	LLMBaseURL  string
	LLMApiKey   string
	LLMTimeout  time.Duration
}

type AdvisorConfig struct {
	DefaultRadiusKm  float64
	DefaultBudgetMin float64
	DefaultBudgetMax float64
	ResultLimit      int
	MatcherTimeout   time.Duration
	TurnLockBackend  string // "memory" or "redis"
	TurnLockWait     time.Duration
	SessionTTL       time.Duration
	AnalyticsTopic   string
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.json"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Geoapify:    getEnv("GEOAPIFY_API_KEY", ""),
			GeocoderRPS: getEnvAsFloat("GEOCODER_RPS", 5),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:    getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
			LLMApiKey:   getEnv("LLM_API_KEY", ""),
			LLMTimeout:  time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Advisor: AdvisorConfig{
			DefaultRadiusKm:  getEnvAsFloat("ADVISOR_DEFAULT_RADIUS_KM", 80),
			DefaultBudgetMin: getEnvAsFloat("ADVISOR_DEFAULT_BUDGET_MIN", 0),
			DefaultBudgetMax: getEnvAsFloat("ADVISOR_DEFAULT_BUDGET_MAX", 10000),
			ResultLimit:      getEnvAsInt("ADVISOR_RESULT_LIMIT", 5),
			MatcherTimeout:   time.Duration(getEnvAsInt("MATCHER_TIMEOUT_SECONDS", 20)) * time.Second,
			TurnLockBackend:  strings.ToLower(getEnv("TURN_LOCK_BACKEND", "memory")),
			TurnLockWait:     time.Duration(getEnvAsInt("TURN_LOCK_WAIT_SECONDS", 60)) * time.Second,
			SessionTTL:       time.Duration(getEnvAsInt("ADVISOR_SESSION_TTL_MINUTES", 60)) * time.Minute,
			AnalyticsTopic:   getEnv("ADVISOR_ANALYTICS_TOPIC", "RECOMMENDATIONS_SERVED"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "sponsor-advisor-be"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
