package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultListenAddr            = ":8090"
	DefaultSourceTimeoutSeconds  = 10
	DefaultNutritionCacheTTLDays = 7
	DefaultConfidenceBoost       = 1.15
	DefaultConfidenceCeiling     = 95.0
	DefaultTopK                  = 10
)

// Config holds the application configuration.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   string
	LogFile    string

	// Nutrition sources
	USDAAPIKey            string
	USDABaseURL           string
	OpenFoodFactsBaseURL  string
	WebSearchBaseURL      string
	SourceTimeoutSeconds  int
	NutritionCacheTTLDays int

	// Classifiers
	RekognitionEnabled bool
	AWSRegion          string
	InferenceEndpoints []InferenceEndpoint
	TopK               int

	// Learning
	ConfidenceBoost   float64
	ConfidenceCeiling float64

	ConfigPath string
	DataDir    string
}

// InferenceEndpoint describes one HTTP inference engine in the classifier roster.
type InferenceEndpoint struct {
	ID      string  `toml:"id"`
	URL     string  `toml:"url"`
	Weight  float64 `toml:"weight"`
	Resize  int     `toml:"resize"`
	Enabled bool    `toml:"enabled"`
}

type fileConfig struct {
	Server struct {
		ListenAddr string `toml:"listen_addr"`
	} `toml:"server"`
	Storage struct {
		DBPath string `toml:"db_path"`
	} `toml:"storage"`
	Logging struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"logging"`
	Nutrition struct {
		USDABaseURL          string `toml:"usda_base_url"`
		OpenFoodFactsBaseURL string `toml:"openfoodfacts_base_url"`
		WebSearchBaseURL     string `toml:"websearch_base_url"`
		SourceTimeoutSeconds int    `toml:"source_timeout_seconds"`
		CacheTTLDays         int    `toml:"cache_ttl_days"`
	} `toml:"nutrition"`
	Vision struct {
		RekognitionEnabled bool                `toml:"rekognition_enabled"`
		TopK               int                 `toml:"top_k"`
		Engines            []InferenceEndpoint `toml:"engines"`
	} `toml:"vision"`
	Learning struct {
		ConfidenceBoost   float64 `toml:"confidence_boost"`
		ConfidenceCeiling float64 `toml:"confidence_ceiling"`
	} `toml:"learning"`
}

// Load reads configuration from .env, config.toml and environment variables,
// in that order of increasing precedence.
func Load() (*Config, error) {
	// Best effort: a missing .env is not an error (same as the dotenv usage upstream).
	_ = godotenv.Load()

	dataDir := os.Getenv("PLATEWISE_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".platewise")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		ListenAddr:            DefaultListenAddr,
		DBPath:                filepath.Join(dataDir, "platewise.sqlite3"),
		LogLevel:              "info",
		USDABaseURL:           "https://api.nal.usda.gov/fdc/v1",
		OpenFoodFactsBaseURL:  "https://world.openfoodfacts.org",
		WebSearchBaseURL:      "https://www.google.com/search",
		SourceTimeoutSeconds:  DefaultSourceTimeoutSeconds,
		NutritionCacheTTLDays: DefaultNutritionCacheTTLDays,
		TopK:                  DefaultTopK,
		ConfidenceBoost:       DefaultConfidenceBoost,
		ConfidenceCeiling:     DefaultConfidenceCeiling,
		ConfigPath:            filepath.Join(dataDir, "config.toml"),
		DataDir:               dataDir,
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.loadEnv()

	return cfg, nil
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.ConfigPath, err)
	}

	if fc.Server.ListenAddr != "" {
		c.ListenAddr = fc.Server.ListenAddr
	}
	if fc.Storage.DBPath != "" {
		c.DBPath = fc.Storage.DBPath
	}
	if fc.Logging.Level != "" {
		c.LogLevel = fc.Logging.Level
	}
	if fc.Logging.File != "" {
		c.LogFile = fc.Logging.File
	}
	if fc.Nutrition.USDABaseURL != "" {
		c.USDABaseURL = fc.Nutrition.USDABaseURL
	}
	if fc.Nutrition.OpenFoodFactsBaseURL != "" {
		c.OpenFoodFactsBaseURL = fc.Nutrition.OpenFoodFactsBaseURL
	}
	if fc.Nutrition.WebSearchBaseURL != "" {
		c.WebSearchBaseURL = fc.Nutrition.WebSearchBaseURL
	}
	if fc.Nutrition.SourceTimeoutSeconds > 0 {
		c.SourceTimeoutSeconds = fc.Nutrition.SourceTimeoutSeconds
	}
	if fc.Nutrition.CacheTTLDays > 0 {
		c.NutritionCacheTTLDays = fc.Nutrition.CacheTTLDays
	}
	if fc.Vision.TopK > 0 {
		c.TopK = fc.Vision.TopK
	}
	c.RekognitionEnabled = fc.Vision.RekognitionEnabled
	for _, e := range fc.Vision.Engines {
		if e.Enabled {
			c.InferenceEndpoints = append(c.InferenceEndpoints, e)
		}
	}
	if fc.Learning.ConfidenceBoost > 0 {
		c.ConfidenceBoost = fc.Learning.ConfidenceBoost
	}
	if fc.Learning.ConfidenceCeiling > 0 {
		c.ConfidenceCeiling = fc.Learning.ConfidenceCeiling
	}

	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("PLATEWISE_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("PLATEWISE_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PLATEWISE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PLATEWISE_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	c.USDAAPIKey = os.Getenv("USDA_API_KEY")
	c.AWSRegion = os.Getenv("AWS_REGION")
	if v := os.Getenv("PLATEWISE_REKOGNITION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RekognitionEnabled = b
		}
	}
	if v := os.Getenv("PLATEWISE_SOURCE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SourceTimeoutSeconds = n
		}
	}
}

// SourceTimeout returns the per-source timeout as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSeconds) * time.Second
}

// NutritionCacheTTL returns the nutrition cache freshness window.
func (c *Config) NutritionCacheTTL() time.Duration {
	return time.Duration(c.NutritionCacheTTLDays) * 24 * time.Hour
}
