package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage backend selection
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// Octopus (Kraken) API
	APIURL            string
	OctopusEmail      string
	OctopusPassword   string
	OctopusPropertyID string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	ExtractInterval time.Duration

	// Optional Google Sheets summary export
	SheetsSpreadsheetID string
	SheetsSheetName     string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "7000"),

		DataBackend:  getEnv("DATA_BACKEND", "jsonfile"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/consumo.db"),

		APIURL:            getEnv("API_URL", "https://api.octopus.energy/v1/graphql/"),
		OctopusEmail:      getEnv("OCTOPUS_EMAIL", ""),
		OctopusPassword:   getEnv("OCTOPUS_PASSWORD", ""),
		OctopusPropertyID: getEnv("OCTOPUS_PROPERTY_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "consumo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "extract_requests"),

		ExtractInterval: getEnvDuration("EXTRACT_INTERVAL", 24*time.Hour),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:     getEnv("SHEETS_SHEET_NAME", "Consumption"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "jsonfile", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "jsonfile" && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using jsonfile backend")
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.APIURL == "" {
		errors = append(errors, "API URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.OctopusEmail == "" {
		errors = append(errors, "OCTOPUS_EMAIL is required")
	}
	if c.OctopusPassword == "" {
		errors = append(errors, "OCTOPUS_PASSWORD is required")
	}
	if c.OctopusPropertyID == "" {
		errors = append(errors, "OCTOPUS_PROPERTY_ID is required")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExtractInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid extract interval %v: must be at least 1 minute", c.ExtractInterval))
	} else if c.ExtractInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid extract interval %v: must be at most 7 days", c.ExtractInterval))
	}

	if c.SheetsSpreadsheetID != "" && c.SheetsSheetName == "" {
		errors = append(errors, "sheet name cannot be empty when a spreadsheet ID is provided")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
