package store

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tvkeep/tvkeep/internal/shared"
)

// Store is the persistence layer for user collections and video metadata.
//
// It holds only the startup configuration and a logger; there is no long-lived
// connection or cache. The configuration is read-only after construction.
type Store struct {
	cfg    *shared.Config
	seeds  *SeedLocator
	logger *log.Logger
}

// New creates a Store from the startup configuration.
func New(cfg *shared.Config, logger *log.Logger) *Store {
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		cfg:    cfg,
		seeds:  NewSeedLocator(cfg.Resources),
		logger: shared.WithLogger(logger, "component", "store"),
	}
}

// Path returns the database file path the store operates on.
func (s *Store) Path() string {
	return s.cfg.Database.Path
}

// withConn opens a connection, provisions schema and template, runs fn, and
// closes the connection. Schema failure is fatal for the calling operation.
func (s *Store) withConn(fn func(db *sql.DB) error) error {
	db, err := shared.NewDatabase(s.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorageFault, err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, s.cfg.Database.MaxOpenConns, s.cfg.Database.MaxIdleConns)

	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorageFault, err)
	}

	if err := s.ensureTemplate(db); err != nil {
		return err
	}

	return fn(db)
}

// Setup provisions the schema and template once, without performing any other
// operation. Useful as an explicit first-run step.
func (s *Store) Setup() error {
	return s.withConn(func(db *sql.DB) error { return nil })
}
