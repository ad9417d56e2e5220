package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	gsheet "expenses/internal/sheets/google"
	"expenses/internal/sheets/memory"
	"expenses/internal/sheets/xlsx"
	"expenses/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case XLSXBackend:
		res = f.createXLSXBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(res, config)
	return res, nil
}

func (f *DefaultFactory) createXLSXBackend(config Config) *BackendResult {
	f.logger.Info("Initialized xlsx backend", log.FieldFile, config.ExpensesPath)
	return &BackendResult{Backend: xlsx.New(config.ExpensesPath, config.ExpensesSheet)}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Backend: repo,
		Imports: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		LedgerSheet:     config.GoogleLedgerSheet,
		ExpensesSheet:   config.GoogleExpensesSheet,
		SharesSheet:     config.GoogleSharesSheet,
		CredentialsFile: config.GoogleCredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Backend: cli}, nil
}

// createMemoryBackend seeds the store from the expenses workbook when it
// exists.
func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var seed []core.Entry
	if config.ExpensesPath != "" {
		entries, err := xlsx.New(config.ExpensesPath, config.ExpensesSheet).ListEntries(ctx)
		switch {
		case err == nil:
			seed = entries
		case errors.Is(err, os.ErrNotExist):
			f.logger.Info("No expenses workbook to seed from", log.FieldFile, config.ExpensesPath)
		default:
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
	}

	f.logger.Info("Initialized memory backend", log.FieldRows, len(seed))
	return &BackendResult{Backend: memory.New(nil, seed)}, nil
}

// attachPublisher connects to the broker when configured. A broker that is
// down leaves the backend usable without render jobs.
func (f *DefaultFactory) attachPublisher(res *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without render jobs", log.FieldError, err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Publisher = client
	cleanup := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
		if cleanup != nil {
			if err := cleanup(); err != nil {
				errs = append(errs, fmt.Errorf("backend: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}
