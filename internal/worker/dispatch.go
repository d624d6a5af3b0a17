package worker

import (
	"fmt"

	"github.com/OCAP2/drivesim/internal/dispatcher"
	"github.com/OCAP2/drivesim/pkg/core"
)

// RegisterHandlers registers the run lifecycle handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Run boundaries are sync so the caller sees backend errors
	d.Register(dispatcher.KindRunStart, m.handleRunStart, dispatcher.Logged())
	d.Register(dispatcher.KindRunEnd, m.handleRunEnd, dispatcher.Logged())

	// Frames are high volume; buffered and dropped when the backend falls behind
	d.Register(dispatcher.KindFrame, m.handleFrame, dispatcher.Buffered(m.deps.FrameBuffer))
}

func (m *Manager) handleRunStart(e dispatcher.Event) (any, error) {
	start, ok := e.Payload.(RunStart)
	if !ok || start.Run == nil {
		return nil, fmt.Errorf("invalid run start payload: %T", e.Payload)
	}
	if err := m.backend.StartRun(start.Run, start.Obstacles); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	m.written.Store(0)
	m.frameErrors.Store(0)
	return start.Run.ID, nil
}

func (m *Manager) handleFrame(e dispatcher.Event) (any, error) {
	f, ok := e.Payload.(core.Frame)
	if !ok {
		return nil, fmt.Errorf("invalid frame payload: %T", e.Payload)
	}
	m.lastTick.Store(f.Tick)
	if err := m.backend.RecordFrame(&f); err != nil {
		if m.frameErrors.Add(1) == 1 {
			m.deps.Logger.Error("Failed to record frame", "tick", f.Tick, "error", err)
		}
		return nil, err
	}
	m.written.Add(1)
	return nil, nil
}

func (m *Manager) handleRunEnd(e dispatcher.Event) (any, error) {
	summary, ok := e.Payload.(core.RunSummary)
	if !ok {
		return nil, fmt.Errorf("invalid run end payload: %T", e.Payload)
	}
	if errs := m.frameErrors.Load(); errs > 0 {
		m.deps.Logger.Warn("Frames failed to record during run", "count", errs)
	}
	if err := m.backend.EndRun(&summary); err != nil {
		return nil, fmt.Errorf("failed to end run: %w", err)
	}
	return nil, nil
}
