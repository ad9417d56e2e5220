package backend

import (
	"errors"
	"fmt"

	"expenses/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// XLSX, and seed data for the memory backend
	ExpensesPath  string
	ExpensesSheet string

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleLedgerSheet     string
	GoogleExpensesSheet   string
	GoogleSharesSheet     string
	GoogleCredentialsFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		ExpensesPath:  appConfig.ExpensesPath(),
		ExpensesSheet: appConfig.ExpensesSheet,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleLedgerSheet:     appConfig.GoogleLedgerSheet,
		GoogleExpensesSheet:   appConfig.GoogleExpensesSheet,
		GoogleSharesSheet:     appConfig.GoogleSharesSheet,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case XLSXBackend:
		if c.ExpensesPath == "" {
			return errors.New("expenses workbook path is required for xlsx backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	}
	return nil
}
