package sim

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/OCAP2/drivesim/pkg/core"
)

// InputSource yields the input for the tick at elapsed simulated time.
// ok is false once the source has nothing more to play.
type InputSource interface {
	Next(elapsed time.Duration) (in core.Input, ok bool)
}

// InputFunc adapts a function to InputSource.
type InputFunc func(elapsed time.Duration) (core.Input, bool)

// Next calls f.
func (f InputFunc) Next(elapsed time.Duration) (core.Input, bool) { return f(elapsed) }

// Constant holds the same input forever.
func Constant(in core.Input) InputSource {
	return InputFunc(func(time.Duration) (core.Input, bool) { return in, true })
}

// DefaultRate is the tick rate used when Runner.Rate is unset.
const DefaultRate = 60

// Runner schedules ticks on a Simulation.
//
// In real-time mode a time.Ticker paces the loop at Rate and dt is the measured
// wall time between ticks. In fixed mode ticks run back to back with dt = 1/Rate,
// which makes recordings reproducible.
type Runner struct {
	Sim      *Simulation
	Rate     float64       // ticks per second
	Fixed    bool          // step with a constant dt as fast as possible
	Duration time.Duration // stop after this much simulated time, 0 for no limit
	Logger   *slog.Logger
}

// Run ticks until the source ends, Duration is reached or ctx is cancelled.
// Cancellation is a normal way to stop and is not reported as an error.
func (r *Runner) Run(ctx context.Context, src InputSource) core.RunSummary {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rate := r.Rate
	if rate <= 0 {
		rate = DefaultRate
	}
	step := time.Duration(float64(time.Second) / rate)
	started := time.Now()
	var simulated time.Duration

	logger.Info("Runner started", "rate", rate, "fixed", r.Fixed, "duration", r.Duration)

	tick := func(dt time.Duration) bool {
		if r.Duration > 0 && simulated >= r.Duration {
			return false
		}
		in, ok := src.Next(simulated)
		if !ok {
			return false
		}
		frame := r.Sim.Tick(in, dt.Seconds())
		simulated += time.Duration(math.Round(frame.DT * float64(time.Second)))
		return true
	}

	if r.Fixed {
		for ctx.Err() == nil && tick(step) {
		}
	} else {
		ticker := time.NewTicker(step)
		defer ticker.Stop()

		last := time.Now()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case now := <-ticker.C:
				dt := now.Sub(last)
				last = now
				if !tick(dt) {
					break loop
				}
			}
		}
	}

	summary := r.Sim.Summary()
	summary.WallTime = time.Since(started)
	logger.Info("Runner stopped",
		"ticks", summary.Ticks,
		"elapsed", summary.Elapsed,
		"distance", summary.Distance,
		"wallTime", summary.WallTime,
		"cancelled", ctx.Err() != nil)
	return summary
}
