package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Result shapes the query service can answer record queries with.
const (
	ShapeRecords = "records"
	ShapeDetails = "details"
)

type Config struct {
	Port        string
	DBPath      string
	SQLFilesDir string
	ResultsDir  string
	SaveResults bool
	ResultShape string
	CacheTTL    time.Duration
	LLM         LLMConfig
	SQLServer   SQLServerConfig
}

type LLMConfig struct {
	APIKey    string
	ModelName string
	APIURL    string
	Timeout   time.Duration
}

type SQLServerConfig struct {
	Server   string
	Port     string
	Database string
	UserID   string
	Password string
	Encrypt  bool
}

// Enabled reports whether enough settings are present to connect.
func (c SQLServerConfig) Enabled() bool {
	return c.Server != "" && c.Database != ""
}

// LoadEnv loads .env from the working directory. A missing file is ignored.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func GetConfig() Config {
	shape := getEnv("QUERY_RESULT_SHAPE", ShapeRecords)
	if shape != ShapeDetails {
		shape = ShapeRecords
	}

	return Config{
		Port:        getEnv("PORT", "9090"),
		DBPath:      getEnv("DB_PATH", "./data/badger"),
		SQLFilesDir: getEnv("SQL_FILES_DIR", "./sql_files"),
		ResultsDir:  getEnv("RESULTS_DIR", "./results"),
		SaveResults: getBool("SAVE_RESULTS", false),
		ResultShape: shape,
		CacheTTL:    getDuration("CACHE_TTL", 5*time.Minute),
		LLM: LLMConfig{
			APIKey:    getEnv("LLM_API_KEY", ""),
			ModelName: getEnv("LLM_MODEL", "qwen-max"),
			APIURL:    getEnv("LLM_API_URL", "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"),
			Timeout:   getDuration("LLM_TIMEOUT", 120*time.Second),
		},
		SQLServer: SQLServerConfig{
			Server:   getEnv("SQL_SERVER", ""),
			Port:     getEnv("SQL_PORT", "1433"),
			Database: getEnv("SQL_DATABASE", ""),
			UserID:   getEnv("SQL_USER", ""),
			Password: getEnv("SQL_PASSWORD", ""),
			Encrypt:  getBool("SQL_ENCRYPT", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
