// Package postgres implements the storage.Backend interface on a database
// server (PostgreSQL or MySQL) through the GORM backend. When the server is
// unreachable it records into a local SQLite file instead.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/drivesim/internal/database"
	"github.com/OCAP2/drivesim/internal/geo"
	gormstorage "github.com/OCAP2/drivesim/internal/storage/gorm"
)

// Config holds configuration for the server storage backend.
type Config struct {
	Database     database.Config
	FallbackPath string // SQLite file used when the server cannot be reached
	BatchSize    int
}

// Backend wraps the GORM backend with connection management.
type Backend struct {
	*gormstorage.Backend
	cfg       Config
	manager   *database.Manager
	logger    *slog.Logger
	projector *geo.Projector
}

// New creates a new server storage backend. The connection is opened by Init.
func New(cfg Config, logger *slog.Logger, proj *geo.Projector) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:       cfg,
		manager:   database.NewManager(logger),
		logger:    logger,
		projector: proj,
	}
}

// Init connects, migrates and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if err := b.manager.Connect(b.cfg.Database, b.cfg.FallbackPath); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", b.cfg.Database.Driver, err)
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:        b.manager.DB,
		Logger:    b.logger,
		Projector: b.projector,
		BatchSize: b.cfg.BatchSize,
	})
	if err := b.Backend.Init(); err != nil {
		b.manager.Close()
		return err
	}
	return nil
}

// Close flushes pending frames and closes the connection pool.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	err := b.Backend.Close()
	if cerr := b.manager.Close(); err == nil {
		err = cerr
	}
	return err
}

// UsingFallback reports whether frames are going to the local SQLite file.
func (b *Backend) UsingFallback() bool {
	return b.cfg.Database.Driver != database.DriverSQLite && b.manager.ShouldSaveLocal
}

// GetExportedFilePath is the SQLite file in use, if any.
func (b *Backend) GetExportedFilePath() string {
	if !b.manager.ShouldSaveLocal {
		return ""
	}
	return b.manager.SqliteFilePath
}
