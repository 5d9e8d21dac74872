package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port           string
	Env            string
	DatabaseURL    string
	AllowedOrigins []string

	// Object storage for raw contract files and extracted text.
	StorageBackend string // "local" or "s3"
	LocalStorePath string
	AWSRegion      string
	S3Bucket       string
	S3Prefix       string

	// Task dispatch. Empty queue URL selects the in-process dispatcher.
	SQSQueueURL string
	WorkerCount int

	// Webhook boundary for terminal task notifications.
	WebhookURL string

	// Inference boundary.
	OpenAIAPIKey   string
	LLMModel       string
	EmbeddingModel string
	LLMTimeout     time.Duration

	// Chunking.
	ChunkSize    int
	ChunkOverlap int
	ChunkMinSize int

	// Retrieval.
	RetrievalTopK     int
	RetrievalMinScore float64
}

// Load reads configuration from the environment, consulting .env files first.
func Load() Config {
	_ = godotenv.Load(".env.local", ".env")

	env := normalizeEnv(getEnv("ENV", "development"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Fatal("DATABASE_URL is required in production")
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		Env:            env,
		DatabaseURL:    dbURL,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		LocalStorePath: getEnv("LOCAL_STORE_PATH", "./data/contracts"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Prefix:       getEnv("S3_PREFIX", "contracts/"),

		SQSQueueURL: os.Getenv("SQS_QUEUE_URL"),
		WorkerCount: getEnvInt("WORKER_COUNT", 4),

		WebhookURL: os.Getenv("WEBHOOK_URL"),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		ChunkMinSize: getEnvInt("CHUNK_MIN_SIZE", 120),

		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 5),
		RetrievalMinScore: getEnvFloat("RETRIEVAL_MIN_SCORE", 0.25),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "development"
	}
}
