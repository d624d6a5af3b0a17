// Package backends builds the configured storage.Backend.
package backends

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/OCAP2/drivesim/internal/config"
	"github.com/OCAP2/drivesim/internal/database"
	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/storage"
	"github.com/OCAP2/drivesim/internal/storage/memory"
	"github.com/OCAP2/drivesim/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/drivesim/internal/storage/sqlite"
	"github.com/OCAP2/drivesim/internal/storage/websocket"
)

// Storage types accepted in storage.type.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeMySQL     = "mysql"
	TypeWebSocket = "websocket"
)

// New returns an uninitialized backend for cfg.Type. anchor may be nil, in
// which case database backends store empty geometry.
func New(cfg config.StorageConfig, logger *slog.Logger, anchor *geo.Anchor) (storage.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var proj *geo.Projector
	if anchor != nil {
		p, err := geo.NewProjector(*anchor)
		if err != nil {
			return nil, err
		}
		proj = p
	}

	switch strings.ToLower(cfg.Type) {
	case TypeMemory, "":
		return memory.New(memory.Config{
			OutputDir:      cfg.Memory.OutputDir,
			CompressOutput: cfg.Memory.CompressOutput,
			SampleEvery:    cfg.Memory.SampleEvery,
		}, anchor), nil

	case TypeSQLite:
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpPath:     cfg.SQLite.DumpPath,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, logger, proj)

	case TypePostgres, TypeMySQL:
		driver := strings.ToLower(cfg.Type)
		if cfg.DB.Driver != "" {
			driver = strings.ToLower(cfg.DB.Driver)
		}
		if driver != database.DriverPostgres && driver != database.DriverMySQL {
			return nil, fmt.Errorf("%w: db driver %q", storage.ErrUnknownBackend, cfg.DB.Driver)
		}
		return postgres.New(postgres.Config{
			Database: database.Config{
				Driver:   driver,
				Host:     cfg.DB.Host,
				Port:     cfg.DB.Port,
				Username: cfg.DB.Username,
				Password: cfg.DB.Password,
				Database: cfg.DB.Database,
			},
			FallbackPath: cfg.DB.FallbackPath,
			BatchSize:    cfg.DB.BatchSize,
		}, logger, proj), nil

	case TypeWebSocket:
		if cfg.WebSocket.URL == "" {
			return nil, fmt.Errorf("storage.websocket.url is required")
		}
		return websocket.New(websocket.Config{
			URL:         cfg.WebSocket.URL,
			Token:       cfg.WebSocket.Token,
			SampleEvery: cfg.WebSocket.SampleEvery,
		}, logger), nil
	}

	return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Type)
}
