package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL string

	StorePostgres    bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency     int
	RateLimitMs        int
	PageDelayMs        int
	CombinationDelayMs int
	MaxRetries         int
	MaxProperties      int
	ResultLimit        int

	FetchBackend string
	ChromeBin    string

	RawDir      string
	CleanDir    string
	CombinedDir string

	LogLevel   string
	FluentHost string
	FluentPort int

	DictionaryFile string
	Dictionary     Dictionary
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "https://www.otodom.pl"), "/"),

		StorePostgres:    getEnvBool("STORE_POSTGRES", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "warsaw_property"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency:     getEnvInt("MAX_CONCURRENCY", 5),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 250),
		PageDelayMs:        getEnvInt("PAGE_DELAY_MS", 2000),
		CombinationDelayMs: getEnvInt("COMBINATION_DELAY_MS", 10000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		MaxProperties:      getEnvInt("MAX_PROPERTIES", 500),
		ResultLimit:        getEnvInt("RESULT_LIMIT", 72),

		FetchBackend: strings.ToLower(getEnv("FETCH_BACKEND", "http")),
		ChromeBin:    getEnv("CHROME_BIN", ""),

		RawDir:      getEnv("RAW_DIR", "./data/raw"),
		CleanDir:    getEnv("CLEAN_DIR", "./data/clean"),
		CombinedDir: getEnv("COMBINED_DIR", "./data/clean/combined"),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		FluentHost: getEnv("FLUENT_HOST", ""),
		FluentPort: getEnvInt("FLUENT_PORT", 24224),

		DictionaryFile: getEnv("DICTIONARY_FILE", ""),
	}

	cfg.Dictionary = DefaultDictionary()
	if cfg.DictionaryFile != "" {
		dict, err := LoadDictionary(cfg.DictionaryFile)
		if err != nil {
			log.Printf("[config] %v (using built-in dictionary)", err)
		} else {
			cfg.Dictionary = dict
		}
	}

	return cfg
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
