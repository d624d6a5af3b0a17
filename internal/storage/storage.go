package storage

import (
	"errors"

	"github.com/OCAP2/drivesim/pkg/core"
)

// ErrUnknownBackend is returned by NewBackend for an unrecognised storage type.
var ErrUnknownBackend = errors.New("unknown storage type")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management. StartRun assigns run.ID when the backend has one to give.
	StartRun(run *core.Run, obstacles []core.Obstacle) error
	EndRun(summary *core.RunSummary) error

	// State recording
	RecordFrame(f *core.Frame) error
}

// Exportable is an optional interface for backends that write a file per run.
type Exportable interface {
	GetExportedFilePath() string
}

// Flusher is an optional interface for backends that buffer writes.
type Flusher interface {
	Flush() error
}
