package worker

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/OCAP2/drivesim/internal/storage"
	"github.com/OCAP2/drivesim/pkg/core"
)

// DefaultFrameBuffer is the frame queue size when Dependencies leaves it unset.
const DefaultFrameBuffer = 4096

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Logger      *slog.Logger
	FrameBuffer int
}

// Manager writes dispatched run events to a storage backend.
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	written     atomic.Uint64
	frameErrors atomic.Uint64
	lastTick    atomic.Uint64
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FrameBuffer <= 0 {
		deps.FrameBuffer = DefaultFrameBuffer
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// Stats is a point-in-time view of the recording pipeline.
type Stats struct {
	FramesWritten uint64
	FrameErrors   uint64
	LastTick      uint64
	BackendQueue  int
	LastWrite     time.Duration
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	return Stats{
		FramesWritten: m.written.Load(),
		FrameErrors:   m.frameErrors.Load(),
		LastTick:      m.lastTick.Load(),
		BackendQueue:  m.BackendQueueLen(),
		LastWrite:     m.GetLastDBWriteDuration(),
	}
}

// WriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type WriteDurationProvider interface {
	LastWriteDuration() time.Duration
}

// QueueLenProvider is implemented by backends that buffer rows before writing.
type QueueLenProvider interface {
	QueueLen() int
}

// backends unwraps a storage.Multi so optional interfaces are found on its members.
func (m *Manager) backends() []storage.Backend {
	if multi, ok := m.backend.(*storage.Multi); ok {
		return multi.Backends()
	}
	return []storage.Backend{m.backend}
}

// GetLastDBWriteDuration returns the longest last write cycle among the
// backends. Returns 0 if none of them report it.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	var longest time.Duration
	for _, b := range m.backends() {
		if p, ok := b.(WriteDurationProvider); ok {
			longest = max(longest, p.LastWriteDuration())
		}
	}
	return longest
}

// BackendQueueLen sums the pending rows of buffering backends.
func (m *Manager) BackendQueueLen() int {
	n := 0
	for _, b := range m.backends() {
		if p, ok := b.(QueueLenProvider); ok {
			n += p.QueueLen()
		}
	}
	return n
}

// RunStart is the payload of a dispatcher.KindRunStart event.
type RunStart struct {
	Run       *core.Run
	Obstacles []core.Obstacle
}
