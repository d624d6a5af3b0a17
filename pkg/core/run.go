// pkg/core/run.go
package core

import "time"

// Snapshot is the minimal per-tick readout for HUDs.
type Snapshot struct {
	Velocity         float64 `json:"velocity"`
	DistanceTraveled float64 `json:"distanceTraveled"`
}

// Frame is everything one tick produced.
type Frame struct {
	Tick        uint64           `json:"tick"`
	Time        time.Time        `json:"time"`    // wall clock when the tick ran
	Elapsed     float64          `json:"elapsed"` // simulated seconds since start
	DT          float64          `json:"dt"`      // clamped delta used for integration
	Input       Input            `json:"input"`
	Snapshot    Snapshot         `json:"snapshot"`
	Vehicle     VehiclePose      `json:"vehicle"`
	Camera      CameraPose       `json:"camera"`
	Lights      LightSignals     `json:"lights"`
	Environment EnvironmentState `json:"environment"`
	Parts       PartTransforms   `json:"parts"`
}

// Run identifies one recorded simulation session.
type Run struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	Seed      int64          `json:"seed"`
	StartTime time.Time      `json:"startTime"`
	Version   string         `json:"version"`
	Config    map[string]any `json:"config,omitempty"`
	World     WorldInfo      `json:"world"`
}

// RunSummary is written when a run ends.
type RunSummary struct {
	Ticks         uint64        `json:"ticks"`
	Elapsed       float64       `json:"elapsed"`
	WallTime      time.Duration `json:"wallTime"`
	Distance      float64       `json:"distance"`
	MaxSpeed      float64       `json:"maxSpeed"`
	ClampedDeltas uint64        `json:"clampedDeltas"`
}
