package postgres

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/internal/database"
	"github.com/OCAP2/drivesim/internal/model"
	"github.com/OCAP2/drivesim/internal/storage"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

var unreachable = database.Config{
	Driver:   database.DriverPostgres,
	Host:     "127.0.0.1",
	Port:     "1",
	Username: "drivesim",
	Database: "drivesim",
}

func TestInit_NoServerNoFallback(t *testing.T) {
	b := New(Config{Database: unreachable}, nil, nil)
	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
	assert.NoError(t, b.Close())
}

func TestInit_FallsBackToSqlite(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "fallback.db")
	b := New(Config{Database: unreachable, FallbackPath: fallback}, nil, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.True(t, b.UsingFallback())
	assert.Equal(t, fallback, b.GetExportedFilePath())

	run := &core.Run{Name: "fallback", StartTime: time.Now().UTC()}
	require.NoError(t, b.StartRun(run, nil))
	require.NoError(t, b.RecordFrame(&core.Frame{Tick: 1, Vehicle: core.VehiclePose{Position: mgl64.Vec3{0, 0, -1}}}))
	require.NoError(t, b.EndRun(&core.RunSummary{Ticks: 1}))

	var count int64
	require.NoError(t, b.DB().Model(&model.Frame{}).Where("run_id = ?", run.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInit_SqliteDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "direct.db")
	b := New(Config{Database: database.Config{Driver: database.DriverSQLite, Path: path}}, nil, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.False(t, b.UsingFallback())
	assert.Equal(t, path, b.GetExportedFilePath())
}
