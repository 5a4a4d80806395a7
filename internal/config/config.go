package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the report tools.
type Config struct {
	App    AppConfig
	Store  StoreConfig
	Logger LoggerConfig
	Report ReportConfig
	Inputs InputConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name      string
	Env       string
	Host      string
	Port      string
	OutputDir string
}

// StoreConfig locates the sqlite job database.
type StoreConfig struct {
	Path string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// ReportConfig tunes the pipeline.
type ReportConfig struct {
	Partitions      int
	Workers         int
	EmployeeType    string
	TransactionType string
	JobTimeout      time.Duration
}

// InputConfig holds default input file paths.
type InputConfig struct {
	Employees    string
	Transactions string
	Departments  string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("REPORT_JOB_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_JOB_TIMEOUT: %w", err)
	}
	partitions, err := getEnvAsInt("REPORT_PARTITIONS", 10, 1)
	if err != nil {
		return nil, err
	}
	// 0 workers lets every partition run at once
	workers, err := getEnvAsInt("REPORT_WORKERS", 4, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:      getEnv("APP_NAME", "revenue-report"),
			Env:       getEnv("APP_ENV", "development"),
			Host:      getEnv("APP_HOST", "0.0.0.0"),
			Port:      getEnv("APP_PORT", "8080"),
			OutputDir: getEnv("OUTPUT_DIR", "output"),
		},
		Store: StoreConfig{
			Path: getEnv("DB_PATH", "pipeline.db"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Report: ReportConfig{
			Partitions:      partitions,
			Workers:         workers,
			EmployeeType:    getEnv("REPORT_EMPLOYEE_TYPE", "Sales"),
			TransactionType: getEnv("REPORT_TRANSACTION_TYPE", "Sale"),
			JobTimeout:      timeout,
		},
		Inputs: InputConfig{
			Employees:    getEnv("EMPLOYEES_CSV", "src/main/resources/exployees.csv"),
			Transactions: getEnv("TRANSACTIONS_CSV", "src/main/resources/transactions.csv"),
			Departments:  getEnv("DEPARTMENTS_CSV", "src/main/resources/departments.csv"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvAsInt parses key as an integer no smaller than least. An unset key
// yields fallback; anything else that does not parse is an error.
func getEnvAsInt(key string, fallback, least int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < least {
		return 0, fmt.Errorf("invalid %s: %q", key, val)
	}
	return parsed, nil
}
