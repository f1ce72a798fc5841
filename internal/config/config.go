package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AuthBaseURL    string
	ContentBaseURL string

	HTTPTimeout time.Duration

	// TokenStore selects the durable token backend: "file" or "redis".
	TokenStore string
	TokenFile  string
	RedisURL   string

	// MetricsAddr enables the Prometheus scrape listener when non-empty.
	MetricsAddr string

	Environment string

	// GenerateRatePerMin throttles artifact generation requests client-side.
	GenerateRatePerMin int
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	authBaseURL := os.Getenv("AUTH_BASE_URL")
	if authBaseURL == "" {
		authBaseURL = "http://localhost:8080/api"
	}

	contentBaseURL := os.Getenv("CONTENT_BASE_URL")
	if contentBaseURL == "" {
		contentBaseURL = authBaseURL
	}

	timeoutSec, err := strconv.Atoi(os.Getenv("HTTP_TIMEOUT_SECONDS"))
	if err != nil || timeoutSec <= 0 {
		timeoutSec = 10
	}

	tokenStore := os.Getenv("TOKEN_STORE")
	if tokenStore != "redis" {
		tokenStore = "file"
	}

	tokenFile := os.Getenv("TOKEN_FILE")
	if tokenFile == "" {
		tokenFile = defaultTokenFile()
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	generateRate, err := strconv.Atoi(os.Getenv("GENERATE_RATE_PER_MIN"))
	if err != nil || generateRate <= 0 {
		generateRate = 5
	}

	return &Config{
		AuthBaseURL:    authBaseURL,
		ContentBaseURL: contentBaseURL,

		HTTPTimeout: time.Duration(timeoutSec) * time.Second,

		TokenStore: tokenStore,
		TokenFile:  tokenFile,
		RedisURL:   os.Getenv("REDIS_URL"),

		MetricsAddr: os.Getenv("METRICS_ADDR"),

		Environment: environment,

		GenerateRatePerMin: generateRate,
	}, nil
}

// defaultTokenFile places the persisted session under the user config
// directory, falling back to the working directory when it is unknown.
func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".koma-session.json"
	}
	return filepath.Join(dir, "koma", "session.json")
}
