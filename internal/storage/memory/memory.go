package memory

import (
	"sync"

	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/pkg/core"
)

// Config holds configuration for the memory backend.
type Config struct {
	OutputDir      string
	CompressOutput bool
	SampleEvery    int
}

// Backend stores run data in memory and exports to JSON
type Backend struct {
	cfg       Config
	anchor    *geo.Anchor
	run       *core.Run
	summary   *core.RunSummary
	obstacles []core.Obstacle
	frames    []core.Frame

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. anchor may be nil.
func New(cfg Config, anchor *geo.Anchor) *Backend {
	return &Backend{
		cfg:    cfg,
		anchor: anchor,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run
func (b *Backend) StartRun(run *core.Run, obstacles []core.Obstacle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.run = run
	b.summary = nil
	b.obstacles = append([]core.Obstacle(nil), obstacles...)
	b.frames = nil
	b.lastExportPath = ""

	return nil
}

// RecordFrame appends a frame
func (b *Backend) RecordFrame(f *core.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frames = append(b.frames, *f)
	return nil
}

// EndRun finalizes and exports the run data
func (b *Backend) EndRun(summary *core.RunSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.summary = summary
	return b.exportJSON()
}

// GetExportedFilePath returns the path of the last export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// Frames returns a copy of the recorded frames
func (b *Backend) Frames() []core.Frame {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Frame(nil), b.frames...)
}
