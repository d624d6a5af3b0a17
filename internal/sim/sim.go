// Package sim runs the per-frame pipeline: environment, headlights, vehicle,
// camera, odometer, in that order, and hands each resulting frame to sinks.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"math/rand"
	"time"

	"github.com/OCAP2/drivesim/internal/camera"
	"github.com/OCAP2/drivesim/internal/environment"
	"github.com/OCAP2/drivesim/internal/vehicle"
	"github.com/OCAP2/drivesim/internal/world"
	"github.com/OCAP2/drivesim/pkg/core"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMaxDelta caps the integration step when a frame arrives late.
const DefaultMaxDelta = 0.1

// Config bundles everything needed to build a Simulation.
type Config struct {
	Seed        int64
	MaxDelta    float64
	StartTime   float64 // initial game time in seconds
	Vehicle     vehicle.Params
	Camera      camera.Params
	Environment environment.Params
	World       world.Config
}

// DefaultConfig returns the stock scene.
func DefaultConfig() Config {
	v := vehicle.DefaultParams()
	return Config{
		Seed:        1,
		MaxDelta:    DefaultMaxDelta,
		Vehicle:     v,
		Camera:      camera.DefaultParams(v.MaxForwardSpeed),
		Environment: environment.DefaultParams(),
		World:       world.DefaultConfig(),
	}
}

// Validate checks every component and returns all violations at once.
func (c Config) Validate() error {
	var errs []error
	if c.MaxDelta <= 0 {
		errs = append(errs, fmt.Errorf("sim.maxDelta must be positive, got %.3f", c.MaxDelta))
	}
	errs = append(errs,
		c.Vehicle.Validate(),
		c.Camera.Validate(),
		c.Environment.Validate(),
		c.World.Validate(),
	)
	return errors.Join(errs...)
}

// FrameSink receives every frame the simulation produces. OnFrame runs on the
// tick path and must not block.
type FrameSink interface {
	OnFrame(frame core.Frame)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(frame core.Frame)

// OnFrame calls f.
func (f FrameSinkFunc) OnFrame(frame core.Frame) { f(frame) }

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithMeter records tick metrics on meter.
func WithMeter(m metric.Meter) Option {
	return func(s *Simulation) { s.meter = m }
}

// WithSink registers a frame sink.
func WithSink(sink FrameSink) Option {
	return func(s *Simulation) { s.sinks = append(s.sinks, sink) }
}

// WithClock overrides the wall clock stamped on frames.
func WithClock(now func() time.Time) Option {
	return func(s *Simulation) { s.now = now }
}

// Simulation owns all mutable scene state. It is not safe for concurrent use;
// drive it from one goroutine.
type Simulation struct {
	cfg    Config
	world  *world.World
	envRNG *rand.Rand

	vehicle core.VehicleState
	camera  core.CameraState
	env     core.EnvironmentState
	parts   core.PartTransforms

	tick     uint64
	elapsed  float64
	distance float64
	maxSpeed float64
	clamped  uint64

	sinks   []FrameSink
	logger  *slog.Logger
	meter   metric.Meter
	metrics *tickMetrics
	now     func() time.Time
}

// New validates cfg, generates the world and places the vehicle at spawn.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:    cfg,
		parts:  make(core.PartTransforms, 5),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics, err := newTickMetrics(s.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create tick metrics: %w", err)
	}
	s.metrics = metrics

	started := time.Now()
	w, err := world.Generate(cfg.World, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate world: %w", err)
	}
	s.world = w

	info := w.Info()
	s.logger.Info("World generated",
		"seed", cfg.Seed,
		"requested", info.Requested,
		"placed", info.Placed,
		"attempts", info.Attempts,
		"took", time.Since(started))
	if info.UnderFilled() {
		s.logger.Warn("Obstacle placement under-filled",
			"requested", info.Requested,
			"placed", info.Placed)
	}

	s.envRNG = world.NewRNG(cfg.Seed, "environment.weather")
	s.env = environment.New(cfg.Environment, cfg.StartTime, s.envRNG)
	s.vehicle = vehicle.Spawn(cfg.Vehicle)
	s.camera = camera.Initial(cfg.Camera)
	vehicle.UpdateParts(cfg.Vehicle, s.vehicle, s.parts)

	return s, nil
}

// Tick advances the scene by dt seconds of wall time and returns the frame.
// dt above MaxDelta is clamped; non-positive dt integrates nothing but still
// produces a frame.
func (s *Simulation) Tick(in core.Input, dt float64) core.Frame {
	started := time.Now()

	clamped := false
	if dt > s.cfg.MaxDelta {
		dt = s.cfg.MaxDelta
		clamped = true
		s.clamped++
	}
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	s.env = environment.Step(s.cfg.Environment, s.env, dt, s.envRNG)

	if in.HeadlightToggle {
		s.vehicle.HeadlightsOn = !s.vehicle.HeadlightsOn
	}

	controls := vehicle.ResolveControls(s.cfg.Vehicle, s.vehicle.Velocity, in)
	var moved float64
	s.vehicle, moved = vehicle.Advance(s.cfg.Vehicle, s.vehicle, in, dt)
	s.camera = camera.Step(s.cfg.Camera, s.camera, s.vehicle, in, dt)
	s.distance += moved
	vehicle.UpdateParts(s.cfg.Vehicle, s.vehicle, s.parts)

	s.tick++
	s.elapsed += dt
	speed := math.Abs(s.vehicle.Velocity)
	s.maxSpeed = math.Max(s.maxSpeed, speed)

	lights := environment.Signals(s.cfg.Environment, s.env)
	lights.HeadlightsOn = s.vehicle.HeadlightsOn
	lights.RearLightsOn = vehicle.RearLightsOn(controls)

	frame := core.Frame{
		Tick:    s.tick,
		Time:    s.now(),
		Elapsed: s.elapsed,
		DT:      dt,
		Input:   in,
		Snapshot: core.Snapshot{
			Velocity:         s.vehicle.Velocity,
			DistanceTraveled: s.distance,
		},
		Vehicle:     s.vehicle.Pose(),
		Camera:      camera.Pose(s.cfg.Camera, s.camera, s.vehicle),
		Lights:      lights,
		Environment: s.env,
		Parts:       maps.Clone(s.parts),
	}

	for _, sink := range s.sinks {
		sink.OnFrame(frame)
	}

	s.metrics.record(time.Since(started), speed, clamped)
	return frame
}

// AddSink registers a sink after construction.
func (s *Simulation) AddSink(sink FrameSink) {
	s.sinks = append(s.sinks, sink)
}

// World is the static obstacle set.
func (s *Simulation) World() *world.World { return s.world }

// Config is the validated configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Vehicle is the current vehicle state.
func (s *Simulation) Vehicle() core.VehicleState { return s.vehicle }

// Camera is the current camera state.
func (s *Simulation) Camera() core.CameraState { return s.camera }

// Environment is the current environment state.
func (s *Simulation) Environment() core.EnvironmentState { return s.env }

// Snapshot is the HUD readout after the last tick.
func (s *Simulation) Snapshot() core.Snapshot {
	return core.Snapshot{Velocity: s.vehicle.Velocity, DistanceTraveled: s.distance}
}

// Summary describes the run so far.
func (s *Simulation) Summary() core.RunSummary {
	return core.RunSummary{
		Ticks:         s.tick,
		Elapsed:       s.elapsed,
		Distance:      s.distance,
		MaxSpeed:      s.maxSpeed,
		ClampedDeltas: s.clamped,
	}
}
