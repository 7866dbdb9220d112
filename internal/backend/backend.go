package backend

import (
	"fmt"
	"log/slog"

	"billetera/internal/config"
	"billetera/internal/events"
	"billetera/internal/store"
	"billetera/internal/store/memory"
	"billetera/internal/store/sqlite"
)

// Type selects which store implementation backs the ledger.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the wired store, the optional events client, and a
// cleanup function to run on shutdown.
type Result struct {
	Store   store.Store
	Events  *events.Client
	Cleanup CleanupFunc
}

// Factory creates stores based on the application config.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the store selected by cfg.DataBackend. The AMQP client
// is optional for both backends: a missing broker logs a warning and
// the application runs without event publishing.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	eventsClient := f.connectEvents(cfg)

	switch backendType {
	case SQLiteBackend:
		return f.createSQLite(cfg, eventsClient)
	case MemoryBackend:
		return f.createMemory(eventsClient)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}

func (f *Factory) connectEvents(cfg *config.Config) *events.Client {
	if cfg.AMQPURL == "" {
		return nil
	}

	cli, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return cli
}

func (f *Factory) createSQLite(cfg *config.Config, eventsClient *events.Client) (*Result, error) {
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	repo, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", eventsClient != nil)

	return &Result{
		Store:  repo,
		Events: eventsClient,
		Cleanup: func() error {
			if err := eventsClient.Close(); err != nil {
				return err
			}
			return repo.Close()
		},
	}, nil
}

func (f *Factory) createMemory(eventsClient *events.Client) (*Result, error) {
	st := memory.New()

	f.logger.Info("Initialized memory backend", "amqp_enabled", eventsClient != nil)

	return &Result{
		Store:   st,
		Events:  eventsClient,
		Cleanup: eventsClient.Close,
	}, nil
}
