package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Redis     RedisConfig
	Lot       LotConfig
	Reference ReferenceConfig
	AI        AIConfig
	Sheets    SheetsConfig
	Admin     AdminConfig
	Backend   string // record store: database or sheets
	LogLevel  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	Username   string
	Password   string
	Database   string
	SQLitePath string
	Quiet      bool
}

// RedisConfig enables the Redis lot sequencer when URL is set
type RedisConfig struct {
	URL string
	Key string
}

// LotConfig holds lot numbering settings
type LotConfig struct {
	Prefix string
}

// ReferenceConfig controls how the SAP reference table is loaded
type ReferenceConfig struct {
	File               string // optional file loaded at startup
	RequireDescription bool
}

// AIConfig holds Gemini settings for label extraction
type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
}

// SheetsConfig holds the remote spreadsheet backend settings
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	SheetName       string
}

// AdminConfig holds the admin gate password
type AdminConfig struct {
	Password string
}

// Record backends
const (
	BackendDatabase = "database"
	BackendSheets   = "sheets"
)

// RecordBackend returns which record store to use
func (c *Config) RecordBackend() string {
	if c.Backend == BackendSheets && c.Sheets.SpreadsheetID != "" {
		return BackendSheets
	}
	return BackendDatabase
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := LoadTools()
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// LoadTools loads configuration for offline tools, which issue no tokens
// and therefore run without JWT_SECRET
func LoadTools() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3210"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("PG_HOST", "localhost"),
			Port:       getEnv("PG_PORT", "5432"),
			Username:   getEnv("PG_USERNAME", "postgres"),
			Password:   os.Getenv("PG_PASSWORD"),
			Database:   getEnv("PG_DATABASE", "scraprecon"),
			SQLitePath: getEnv("SQLITE_PATH", "scraprecon.db"),
			Quiet:      getBool("DB_QUIET", true),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
			Key: getEnv("REDIS_LOT_KEY", "scraprecon:lots"),
		},
		Lot: LotConfig{
			Prefix: getEnv("LOT_PREFIX", "DEV"),
		},
		Reference: ReferenceConfig{
			File:               os.Getenv("REFERENCE_FILE"),
			RequireDescription: getBool("REFERENCE_REQUIRE_DESCRIPTION", false),
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
			CredentialsFile: os.Getenv("SHEETS_CREDENTIALS_FILE"),
			SheetName:       getEnv("SHEETS_SHEET_NAME", "Registros"),
		},
		Admin: AdminConfig{
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Backend:  getEnv("RECORD_BACKEND", BackendDatabase),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
