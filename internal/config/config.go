// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"billing/internal/core"
	"billing/internal/log"
)

const (
	SheetsBackendMemory = "memory"
	SheetsBackendGoogle = "google"
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	// HTTP Server
	Port               string `envconfig:"PORT" default:"8081"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	// TrustedProxies are CIDR ranges, beyond loopback and private ones,
	// whose forwarding headers are believed.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// Database
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/billing.db"`

	// Bills
	SerialPrefix       string   `envconfig:"SERIAL_PREFIX" default:"BILL"`
	PaymentModes       []string `envconfig:"PAYMENT_MODES" default:"CASH,ACCOUNT,UPI,CARD"`
	RecordBillPayments bool     `envconfig:"RECORD_BILL_PAYMENTS" default:"true"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"billing"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"record_changes"`

	// Google Sheets mirror
	SheetsBackend                string `envconfig:"SHEETS_BACKEND" default:"memory"`
	GoogleSpreadsheetID          string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleServiceAccountJSON     string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile     string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleBillsSheet             string `envconfig:"GOOGLE_BILLS_SHEET" default:"Bills"`
	GoogleIncomeSheet            string `envconfig:"GOOGLE_INCOME_SHEET" default:"Income"`
	GoogleExpensesSheet          string `envconfig:"GOOGLE_EXPENSES_SHEET" default:"Expenses"`
	GoogleApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Worker
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"5m"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads the configuration from the environment. It does not validate.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.SerialPrefix = strings.TrimSpace(cfg.SerialPrefix)
	cfg.PaymentModes = normalizeModes(cfg.PaymentModes)
	cfg.TrustedProxies = trimAll(cfg.TrustedProxies)
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(c.AppEnv, "production")
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.SerialPrefix == "" {
		errors = append(errors, "serial prefix cannot be empty")
	} else if strings.ContainsAny(c.SerialPrefix, " \t,%_\\") {
		errors = append(errors, fmt.Sprintf("invalid serial prefix '%s': must not contain spaces, commas or wildcards", c.SerialPrefix))
	}

	if len(c.PaymentModes) == 0 {
		errors = append(errors, "at least one payment mode is required")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be positive", c.RateLimitPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR range", cidr))
		}
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

	switch c.SheetsBackend {
	case SheetsBackendMemory:
	case SheetsBackendGoogle:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using the google sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredentials == "" {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for the google sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); err != nil {
				errors = append(errors, fmt.Sprintf("service account file '%s' is not readable: %v", c.GoogleServiceAccountFile, err))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid sheets backend '%s': must be one of [%s %s]", c.SheetsBackend, SheetsBackendMemory, SheetsBackendGoogle))
	}

	for name, tab := range map[string]string{
		"GOOGLE_BILLS_SHEET":    c.GoogleBillsSheet,
		"GOOGLE_INCOME_SHEET":   c.GoogleIncomeSheet,
		"GOOGLE_EXPENSES_SHEET": c.GoogleExpensesSheet,
	} {
		if strings.TrimSpace(tab) == "" {
			errors = append(errors, name+" cannot be empty")
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %s: must be at least 1s", c.SyncInterval))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetTabs maps each record category to its spreadsheet tab.
func (c *Config) SheetTabs() map[core.Category]string {
	return map[core.Category]string{
		core.CategoryBills:    c.GoogleBillsSheet,
		core.CategoryIncome:   c.GoogleIncomeSheet,
		core.CategoryExpenses: c.GoogleExpensesSheet,
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeModes(modes []string) []string {
	out := make([]string, 0, len(modes))
	seen := make(map[string]bool, len(modes))
	for _, m := range modes {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
