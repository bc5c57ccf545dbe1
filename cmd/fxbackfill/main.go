package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/fx-ledger-backfill/internal/application/service"
	"github.com/damon-houk/fx-ledger-backfill/internal/domain/repository"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/api"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/config"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/db"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/logger"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/middleware"
	"github.com/dgraph-io/badger/v3"
	"github.com/robfig/cron/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// badgerLedgerName is the key under which the badger backend keeps the ledger
const badgerLedgerName = "rates"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid LOG_LEVEL: %v\n", err)
		return 1
	}

	log, err := logger.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer log.Sync()
	logger.SetDefaultLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		if err := runOnce(ctx, cfg, log); err != nil {
			log.Error("Backfill failed", map[string]interface{}{
				"error": err.Error(),
			})
			return 1
		}
		return 0
	}

	return runScheduled(ctx, cfg, log)
}

// runScheduled triggers a backfill on every SCHEDULE tick until interrupted
func runScheduled(ctx context.Context, cfg *config.Config, log logger.Logger) int {
	cl := cronLogger{log: log.WithField("component", "scheduler")}
	c := cron.New(cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))

	_, err := c.AddFunc(cfg.Schedule, func() {
		if err := runOnce(ctx, cfg, log); err != nil {
			log.Error("Scheduled backfill failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		log.Error("Failed to register schedule", map[string]interface{}{
			"schedule": cfg.Schedule,
			"error":    err.Error(),
		})
		return 1
	}

	log.Info("Scheduler started", map[string]interface{}{
		"schedule": cfg.Schedule,
	})
	c.Start()

	<-ctx.Done()
	log.Info("Shutting down scheduler", nil)
	<-c.Stop().Done()

	return 0
}

// runOnce opens the ledger, performs one backfill pass and closes it again
func runOnce(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	ctx = middleware.WithRunID(ctx, middleware.NewRunID())
	runLog := log.WithField("run_id", middleware.GetRunID(ctx))

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: middleware.NewLoggingTransport(http.DefaultTransport, log),
	}
	source := api.NewOpenExchangeRatesClient(cfg.RatesBaseURL, cfg.APIKey, httpClient)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			runLog.Warn("Error closing ledger", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	if cfg.DryRun {
		table, err := store.ReadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to read ledger for dry run: %w", err)
		}
		store = db.NewMemoryLedgerStore(table)
		runLog.Info("Dry run, ledger changes will not be saved", nil)
	}

	svc := service.NewBackfillService(source, store, service.BackfillOptions{
		BaseCurrency:   cfg.BaseCurrency,
		Currencies:     cfg.Currencies,
		RetentionDays:  cfg.RetentionDays,
		CleanupEnabled: cfg.CleanupEnabled,
		PartialRows:    service.PartialRowPolicy(cfg.PartialRows),
	}, log)

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	for _, skipped := range report.Skipped {
		runLog.Warn("Date left unfilled", map[string]interface{}{
			"date":  skipped.Date.Format("2006-01-02"),
			"error": skipped.Reason.Error(),
		})
	}
	return nil
}

// openStore connects the configured ledger backend
func openStore(ctx context.Context, cfg *config.Config) (repository.LedgerStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.LedgerBackend {
	case config.BackendBadger:
		if err := os.MkdirAll(cfg.LedgerPath, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		badgerDB, err := badger.Open(badger.DefaultOptions(cfg.LedgerPath).WithLogger(nil))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open ledger database: %w", err)
		}
		return db.NewBadgerLedgerStore(badgerDB, badgerLedgerName), badgerDB.Close, nil

	case config.BackendXLSX:
		return db.NewXLSXLedgerStore(cfg.LedgerPath), noop, nil

	default:
		opts := []option.ClientOption{
			option.WithCredentialsJSON(cfg.ServiceAccountKey),
			option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope),
		}

		sheetsService, err := sheets.NewService(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sheets client: %w", err)
		}

		spreadsheetID := cfg.SpreadsheetID
		if spreadsheetID == "" {
			driveService, err := drive.NewService(ctx, opts...)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create drive client: %w", err)
			}
			if spreadsheetID, err = db.FindSpreadsheetID(ctx, driveService, cfg.SpreadsheetName); err != nil {
				return nil, nil, err
			}
		}

		store, err := db.NewSheetsLedgerStore(ctx, sheetsService, spreadsheetID)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	}
}

// cronLogger adapts the application logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keyValueFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := keyValueFields(keysAndValues)
	fields["error"] = err.Error()
	l.log.Error(msg, fields)
}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
