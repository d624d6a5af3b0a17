package backends

import (
	"path/filepath"
	"testing"

	"github.com/OCAP2/drivesim/internal/config"
	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/storage"
	"github.com/OCAP2/drivesim/internal/storage/memory"
	"github.com/OCAP2/drivesim/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/drivesim/internal/storage/sqlite"
	"github.com/OCAP2/drivesim/internal/storage/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestNew_Types(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{
		Memory:    config.MemoryConfig{OutputDir: dir},
		SQLite:    config.SQLiteConfig{DumpPath: filepath.Join(dir, "dump.db")},
		DB:        config.DBConfig{Host: "localhost", Port: "5432"},
		WebSocket: config.WebSocketConfig{URL: "ws://localhost:1/stream"},
	}

	tests := []struct {
		typ  string
		want any
	}{
		{"", &memory.Backend{}},
		{"memory", &memory.Backend{}},
		{"SQLite", &sqlitestorage.Backend{}},
		{"postgres", &postgres.Backend{}},
		{"mysql", &postgres.Backend{}},
		{"websocket", &websocket.Backend{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg.Type = tt.typ
			b, err := New(cfg, nil, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(config.StorageConfig{Type: "tape"}, nil, nil)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)

	_, err = New(config.StorageConfig{Type: "postgres", DB: config.DBConfig{Driver: "oracle"}}, nil, nil)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestNew_WebSocketNeedsURL(t *testing.T) {
	_, err := New(config.StorageConfig{Type: "websocket"}, nil, nil)
	assert.ErrorContains(t, err, "url is required")
}

func TestNew_InvalidAnchor(t *testing.T) {
	_, err := New(config.StorageConfig{}, nil, &geo.Anchor{Longitude: 400})
	assert.Error(t, err)
}

func TestNew_DefaultsInit(t *testing.T) {
	config.LoadDefaults()
	t.Cleanup(viper.Reset)
	cfg := config.GetStorageConfig()
	cfg.Memory.OutputDir = t.TempDir()

	b, err := New(cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
}
