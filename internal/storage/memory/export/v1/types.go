// Package v1 contains the v1 export format for recorded runs.
// Time series are stored as positional arrays to keep files small.
package v1

import (
	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/pkg/core"
)

// FormatVersion is written to every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int              `json:"formatVersion"`
	Version       string           `json:"version"`
	RunName       string           `json:"runName"`
	Seed          int64            `json:"seed"`
	StartTime     string           `json:"startTime"`
	EndTick       uint64           `json:"endTick"`
	SampleEvery   int              `json:"sampleEvery"`
	Anchor        *geo.Anchor      `json:"anchor,omitempty"`
	World         core.WorldInfo   `json:"world"`
	Summary       *core.RunSummary `json:"summary,omitempty"`

	// [id, x, z, trunkRadius, trunkHeight, canopyRadius, canopyHeight, leafOffset, "#rrggbb"]
	Obstacles [][]any `json:"obstacles"`
	// [tick, [x, y, z], heading, steering, velocity, distance, "input"]
	Vehicle [][]any `json:"vehicle"`
	// [tick, [x, y, z], [lookX, lookY, lookZ], fov]
	Camera [][]any `json:"camera"`
	// [tick, gameTime, dayFactor, ambient, directional, "#sky", rainIntensity, rainVisible]
	Environment [][]any `json:"environment"`
	// [tick, "type", value]
	Events [][]any `json:"events"`
	// [x, z] per sampled frame
	Track [][]float64 `json:"track"`
}

// Event types.
const (
	EventHeadlights = "headlights"
	EventRain       = "rain"
	EventReverse    = "reverse"
)
