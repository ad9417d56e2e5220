package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Data backends for the dashboard and the plot worker.
const (
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

type Config struct {
	// Files
	Workdir               string     `mapstructure:"workdir"`
	FilenameToProcess     string     `mapstructure:"filename_to_process"`
	UserToAnalyse         string     `mapstructure:"user_to_analyse"`
	ExpensesExcelFilename string     `mapstructure:"expenses_excel_filename"`
	ExpensesSheet         string     `mapstructure:"expenses_sheet"`
	CategoryFilters       [][]string `mapstructure:"category_filters"`
	CheckSplitTotals      bool       `mapstructure:"check_split_totals"`

	// Prediction
	RentCategory  string  `mapstructure:"rent_category"`
	CurrentRent   float64 `mapstructure:"current_rent"`
	SavingsTarget float64 `mapstructure:"savings_target"`

	// HTTP Server
	Port           string        `mapstructure:"port"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	UploadRate     int           `mapstructure:"upload_rate"`

	// Backend selection
	DataBackend  string `mapstructure:"data_backend"`
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`

	// AMQP
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Google Sheets
	GoogleSpreadsheetID   string `mapstructure:"google_spreadsheet_id"`
	GoogleLedgerSheet     string `mapstructure:"google_ledger_sheet"`
	GoogleExpensesSheet   string `mapstructure:"google_expenses_sheet"`
	GoogleSharesSheet     string `mapstructure:"google_shares_sheet"`
	GoogleCredentialsFile string `mapstructure:"google_credentials_file"`

	// Plot worker
	PlotWorkers int `mapstructure:"plot_workers"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

var defaults = map[string]any{
	"workdir":                 ".",
	"filename_to_process":     "",
	"user_to_analyse":         "",
	"expenses_excel_filename": "expenses.xlsx",
	"expenses_sheet":          "",
	"category_filters":        [][]string{},
	"check_split_totals":      false,
	"rent_category":           "Alquiler",
	"current_rent":            350.0,
	"savings_target":          500.0,
	"port":                    "8081",
	"cache_ttl":               5 * time.Minute,
	"max_upload_bytes":        int64(10 << 20),
	"upload_rate":             10,
	"data_backend":            BackendXLSX,
	"sqlite_db_path":          "./data/expenses.db",
	"amqp_url":                "",
	"amqp_exchange":           "expenses",
	"amqp_queue":              "render_plots",
	"google_spreadsheet_id":   "",
	"google_ledger_sheet":     "Settle Up",
	"google_expenses_sheet":   "Expenses",
	"google_shares_sheet":     "Shares",
	"google_credentials_file": "",
	"plot_workers":            2,
	"log_level":               "info",
	"log_file":                "",
}

// Load reads settings.toml and .secrets.toml from dir, when present, and
// applies EXPENSES_ environment overrides (EXPENSES_WORKDIR, EXPENSES_PORT,
// ...). EXPENSES_SETTINGS points at a different settings file.
func Load(dir string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigType("toml")
	if path := os.Getenv("EXPENSES_SETTINGS"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(filepath.Join(dir, "settings.toml"))
	}

	v.SetEnvPrefix("EXPENSES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	secrets := filepath.Join(dir, ".secrets.toml")
	if _, err := os.Stat(secrets); err == nil {
		v.SetConfigFile(secrets)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read secrets: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.Workdir) == "" {
		errs = append(errs, "workdir cannot be empty")
	}

	validBackends := []string{BackendXLSX, BackendSQLite, BackendSheets, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendXLSX:
		if c.ExpensesExcelFilename == "" {
			errs = append(errs, "expenses_excel_filename is required when using xlsx backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	for i, group := range c.CategoryFilters {
		if len(group) == 0 {
			errs = append(errs, fmt.Sprintf("category_filters[%d] is empty", i))
		}
	}

	if c.CurrentRent < 0 {
		errs = append(errs, fmt.Sprintf("invalid current rent %v: must not be negative", c.CurrentRent))
	}
	if c.PlotWorkers < 1 || c.PlotWorkers > 64 {
		errs = append(errs, fmt.Sprintf("invalid plot workers %d: must be between 1 and 64", c.PlotWorkers))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache ttl %v: must not be negative", c.CacheTTL))
	}
	if c.MaxUploadBytes < 1 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d: must be positive", c.MaxUploadBytes))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateSettleUp checks the settings the settle-up preprocessing needs.
func (c *Config) ValidateSettleUp() error {
	var errs []string
	if strings.TrimSpace(c.FilenameToProcess) == "" {
		errs = append(errs, "filename_to_process is required")
	}
	if strings.TrimSpace(c.UserToAnalyse) == "" {
		errs = append(errs, "user_to_analyse is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ProcessPath is the Settle Up export to reshape.
func (c *Config) ProcessPath() string {
	return c.inWorkdir(c.FilenameToProcess)
}

// ProcessedPath is where the reshaped workbook is written: the export name
// up to its first dot, suffixed with _processed.xlsx.
func (c *Config) ProcessedPath() string {
	base, _, _ := strings.Cut(c.FilenameToProcess, ".")
	return c.inWorkdir(base + "_processed.xlsx")
}

// ExpensesPath is the expenses workbook read by the analyzer.
func (c *Config) ExpensesPath() string {
	return c.inWorkdir(c.ExpensesExcelFilename)
}

// PlotsDir is the root of the rendered charts.
func (c *Config) PlotsDir() string {
	return filepath.Join(c.Workdir, "plots")
}

// UserTotalsPlotPath is the per-user monthly totals chart of the settle-up run.
func (c *Config) UserTotalsPlotPath() string {
	return filepath.Join(c.Workdir, "total_expenses.png")
}

// LogFilePath resolves log_file against the workdir; empty disables it.
func (c *Config) LogFilePath() string {
	if c.LogFile == "" {
		return ""
	}
	return c.inWorkdir(c.LogFile)
}

func (c *Config) inWorkdir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Workdir, name)
}
