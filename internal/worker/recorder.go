package worker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/drivesim/internal/dispatcher"
	"github.com/OCAP2/drivesim/pkg/core"
)

// Recorder is a sim.FrameSink that hands frames to the dispatcher. OnFrame
// never blocks the tick: frames that do not fit in the queue are dropped.
type Recorder struct {
	d      *dispatcher.Dispatcher
	logger *slog.Logger
	warned bool
}

// NewRecorder wires m's handlers into d and returns the sink.
func NewRecorder(d *dispatcher.Dispatcher, m *Manager) *Recorder {
	m.RegisterHandlers(d)
	return &Recorder{d: d, logger: m.deps.Logger}
}

// Start records the run header and static world. run.ID is set by backends
// that assign one.
func (r *Recorder) Start(run *core.Run, obstacles []core.Obstacle) error {
	_, err := r.d.Dispatch(dispatcher.Event{
		Kind:    dispatcher.KindRunStart,
		Payload: RunStart{Run: run, Obstacles: obstacles},
	})
	return err
}

// OnFrame queues f for recording.
func (r *Recorder) OnFrame(f core.Frame) {
	_, err := r.d.Dispatch(dispatcher.Event{Kind: dispatcher.KindFrame, Payload: f, Timestamp: f.Time})
	if err == nil {
		return
	}
	if errors.Is(err, dispatcher.ErrQueueFull) {
		if !r.warned {
			r.warned = true
			r.logger.Warn("Frame queue full, dropping frames", "tick", f.Tick)
		}
		return
	}
	r.logger.Error("Failed to queue frame", "tick", f.Tick, "error", err)
}

// Dropped is the number of frames discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.d.Dropped(dispatcher.KindFrame)
}

// Finish waits for queued frames to be written and closes the run.
func (r *Recorder) Finish(summary core.RunSummary) error {
	r.d.Drain(dispatcher.KindFrame)
	if dropped := r.Dropped(); dropped > 0 {
		r.logger.Warn("Frames dropped during run", "count", dropped)
	}
	if _, err := r.d.Dispatch(dispatcher.Event{Kind: dispatcher.KindRunEnd, Payload: summary}); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Pending is the number of frames queued or being written.
func (r *Recorder) Pending() int {
	return r.d.Pending(dispatcher.KindFrame)
}
