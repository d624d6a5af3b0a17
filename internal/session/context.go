package session

import (
	"log/slog"
	"sync"

	"github.com/OCAP2/drivesim/pkg/core"
)

// Status is the latest tick seen by the session.
type Status struct {
	Tick     uint64
	GameTime float64
	Velocity float64
	Distance float64
}

// Context holds the run being recorded and the latest frame readout. It is
// a sim.FrameSink and a logging.ContextProvider source.
type Context struct {
	mu     sync.RWMutex
	run    *core.Run
	active bool
	status Status
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		run: &core.Run{Name: "No run started"},
	}
}

// GetRun returns the current run
func (c *Context) GetRun() *core.Run {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run
}

// SetRun sets the current run, marks it active and clears the tick readout.
// Backends that keep no database leave the run ID at zero; the run is still
// active.
func (c *Context) SetRun(run *core.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = run
	c.active = run != nil
	c.status = Status{}
}

// EndRun marks the current run finished. The run and last readout stay
// available for the summary.
func (c *Context) EndRun() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

// Active reports whether a run has been started and not yet ended.
func (c *Context) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Status returns the latest readout
func (c *Context) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// OnFrame records the frame's readout.
func (c *Context) OnFrame(f core.Frame) {
	c.mu.Lock()
	c.status = Status{
		Tick:     f.Tick,
		GameTime: f.Environment.GameTime,
		Velocity: f.Snapshot.Velocity,
		Distance: f.Snapshot.DistanceTraveled,
	}
	c.mu.Unlock()
}

// LogAttrs returns the attributes injected into every log record.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.run == nil || c.run.Name == "" || (!c.active && c.status.Tick == 0) {
		return nil
	}
	return []slog.Attr{
		slog.Uint64("runId", uint64(c.run.ID)),
		slog.Uint64("tick", c.status.Tick),
		slog.Float64("gameTime", c.status.GameTime),
	}
}
