package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/storage"
	v1 "github.com/OCAP2/drivesim/internal/storage/memory/export/v1"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func testRun(name string) *core.Run {
	return &core.Run{
		Name:      name,
		Seed:      11,
		StartTime: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		Version:   "test",
	}
}

func record(t *testing.T, b *Backend, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, b.RecordFrame(&core.Frame{
			Tick:    uint64(i),
			Vehicle: core.VehiclePose{Position: mgl64.Vec3{0, 0, -float64(i)}},
		}))
	}
}

func TestStartRun_ResetsState(t *testing.T) {
	b := New(Config{OutputDir: t.TempDir()}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(testRun("first"), nil))
	record(t, b, 3)
	assert.Len(t, b.Frames(), 3)

	require.NoError(t, b.StartRun(testRun("second"), nil))
	assert.Empty(t, b.Frames())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestFrames_ReturnsCopy(t *testing.T) {
	b := New(Config{OutputDir: t.TempDir()}, nil)
	require.NoError(t, b.StartRun(testRun("copy"), nil))
	record(t, b, 1)

	frames := b.Frames()
	frames[0].Tick = 99
	assert.Equal(t, uint64(1), b.Frames()[0].Tick)
}

func TestEndRun_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	anchor := &geo.Anchor{Longitude: 13.4, Latitude: 52.5}
	b := New(Config{OutputDir: dir}, anchor)

	require.NoError(t, b.StartRun(testRun("Evening: loop"), []core.Obstacle{{ID: 1, X: 5, Z: 5}}))
	record(t, b, 4)
	require.NoError(t, b.EndRun(&core.RunSummary{Ticks: 4, Distance: 4}))

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Evening__loop_20260203_040506.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var export v1.Export
	require.NoError(t, json.Unmarshal(data, &export))

	assert.Equal(t, "Evening: loop", export.RunName)
	assert.Equal(t, uint64(4), export.EndTick)
	assert.Len(t, export.Vehicle, 4)
	assert.Len(t, export.Obstacles, 1)
	require.NotNil(t, export.Anchor)
	assert.Equal(t, *anchor, *export.Anchor)
	require.NotNil(t, export.Summary)
	assert.Equal(t, 4.0, export.Summary.Distance)
}

func TestEndRun_WritesGzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	b := New(Config{OutputDir: dir, CompressOutput: true, SampleEvery: 2}, nil)

	require.NoError(t, b.StartRun(testRun("gz"), nil))
	record(t, b, 5)
	require.NoError(t, b.EndRun(&core.RunSummary{Ticks: 5}))

	path := b.GetExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var export v1.Export
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, 2, export.SampleEvery)
	assert.Len(t, export.Vehicle, 3)
	assert.Nil(t, export.Anchor)
}

func TestEndRun_WithoutStart(t *testing.T) {
	b := New(Config{OutputDir: t.TempDir()}, nil)
	err := b.EndRun(&core.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run started")
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"plain":         "plain",
		" spaced name ": "spaced_name",
		"a/b\\c:d*e?f":  "a_b_c_d_e_f",
		`q"<>|`:         "q____",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), "input %q", in)
	}
}

func TestFilename_DefaultsToRun(t *testing.T) {
	b := New(Config{}, nil)
	require.NoError(t, b.StartRun(testRun("  "), nil))
	assert.Equal(t, "run_20260203_040506.json", b.filename())
}
