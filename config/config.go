package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds all runtime configuration, loaded once at startup.
type Settings struct {
	Port string

	// OpenAI
	OpenAIAPIKey string
	VideoModel   string
	VideoSeconds int
	VideoSize    string

	// Image generation provider: "falai" or "replicate"
	ImageProvider     string
	FalKey            string
	ReplicateAPIToken string

	// Polling
	PollInterval   time.Duration
	PollMaxWait    time.Duration
	RequestTimeout time.Duration

	// Supabase
	SupabaseURL string
	SupabaseKey string

	// Local cache directory for remixed videos
	RemixCacheDir string

	// Background worker pool
	MaxWorkers   int
	JobQueueSize int

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (*Settings, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	s := &Settings{
		Port:              getEnv("PORT", "8001"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		VideoModel:        getEnv("OPENAI_VIDEO_MODEL", "sora-2"),
		VideoSeconds:      getEnvInt("OPENAI_VIDEO_SECONDS", 12),
		VideoSize:         getEnv("OPENAI_VIDEO_SIZE", "720x1280"),
		ImageProvider:     getEnv("SERVICE_TYPE", "falai"),
		FalKey:            os.Getenv("FAL_KEY"),
		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_SEC", 5)) * time.Second,
		PollMaxWait:       time.Duration(getEnvInt("POLL_MAX_MIN", 10)) * time.Minute,
		RequestTimeout:    time.Duration(getEnvInt("REQ_TIMEOUT", 60)) * time.Second,
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseKey:       os.Getenv("SUPABASE_KEY"),
		RemixCacheDir:     getEnv("REMIX_CACHE_DIR", "remixes"),
		MaxWorkers:        getEnvInt("MAX_WORKERS", 4),
		JobQueueSize:      getEnvInt("JOB_QUEUE_SIZE", 64),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if s.SupabaseURL == "" || s.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set")
	}
	if s.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set")
	}

	return s, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
