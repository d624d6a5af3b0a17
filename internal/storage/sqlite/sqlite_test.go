package sqlitestorage

import (
	"os"
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

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func TestEndRun_DumpsToDisk(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "run.db")

	b, err := New(Config{Path: filepath.Join(dir, "live.db"), DumpPath: dump}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.Run{Name: "dump", StartTime: time.Now().UTC()}
	require.NoError(t, b.StartRun(run, []core.Obstacle{{ID: 1, X: 3, Z: 4}}))
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, b.RecordFrame(&core.Frame{
			Tick:    i,
			Time:    run.StartTime,
			Vehicle: core.VehiclePose{Position: mgl64.Vec3{0, 0, -float64(i)}},
		}))
	}
	require.NoError(t, b.EndRun(&core.RunSummary{Ticks: 3}))

	_, err = os.Stat(dump)
	require.NoError(t, err)
	assert.Equal(t, dump, b.GetExportedFilePath())

	dumped, err := database.OpenSqlite(dump)
	require.NoError(t, err)
	var count int64
	require.NoError(t, dumped.Model(&model.Frame{}).Where("run_id = ?", run.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
	if sqlDB, err := dumped.DB(); err == nil {
		sqlDB.Close()
	}
}

func TestDump_NoPathIsNoop(t *testing.T) {
	b, err := New(Config{Path: filepath.Join(t.TempDir(), "live.db")}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.NoError(t, b.Dump())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestDumpLoop_WritesPeriodically(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "periodic.db")

	b, err := New(Config{Path: filepath.Join(dir, "live.db"), DumpPath: dump, DumpInterval: 20 * time.Millisecond}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(dump)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}
