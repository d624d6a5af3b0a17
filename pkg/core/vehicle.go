// pkg/core/vehicle.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Input is the set of control flags held during one tick.
// HeadlightToggle is edge-triggered: it is true only on the tick the key went down.
type Input struct {
	Forward         bool `json:"forward" yaml:"forward"`
	Back            bool `json:"back" yaml:"back"`
	Left            bool `json:"left" yaml:"left"`
	Right           bool `json:"right" yaml:"right"`
	Handbrake       bool `json:"handbrake" yaml:"handbrake"`
	HeadlightToggle bool `json:"headlightToggle" yaml:"headlightToggle"`
}

// Steer returns +1 for left, -1 for right and 0 for neither. Left wins when both are held.
func (in Input) Steer() float64 {
	switch {
	case in.Left:
		return 1
	case in.Right:
		return -1
	}
	return 0
}

// Idle reports whether no driving control is held.
func (in Input) Idle() bool {
	return !in.Forward && !in.Back && !in.Left && !in.Right && !in.Handbrake
}

// String encodes the flags compactly, e.g. "F.L..." for forward+left and
// ".....T" for a headlight press.
func (in Input) String() string {
	flags := []byte("......")
	for i, on := range in.flags() {
		if on {
			flags[i] = inputFlags[i]
		}
	}
	return string(flags)
}

const inputFlags = "FBLRHT"

func (in Input) flags() [6]bool {
	return [6]bool{in.Forward, in.Back, in.Left, in.Right, in.Handbrake, in.HeadlightToggle}
}

// ParseInput reads the String form back. Unknown characters are ignored.
func ParseInput(s string) Input {
	var in Input
	for i := 0; i < len(s) && i < len(inputFlags); i++ {
		if s[i] != inputFlags[i] {
			continue
		}
		switch i {
		case 0:
			in.Forward = true
		case 1:
			in.Back = true
		case 2:
			in.Left = true
		case 3:
			in.Right = true
		case 4:
			in.Handbrake = true
		case 5:
			in.HeadlightToggle = true
		}
	}
	return in
}

// Controls are the longitudinal commands resolved from Input for a single tick.
type Controls struct {
	Throttle  float64 // -1, 0 or +1
	Brake     float64 // 0 or 1
	Handbrake float64 // 0 or 1
}

// Braking reports whether either brake is applied.
func (c Controls) Braking() bool {
	return c.Brake > 0 || c.Handbrake > 0
}

// VehicleState is the kinematic state of the player vehicle.
// Position.Y() is the vertical axis.
type VehicleState struct {
	Position         mgl64.Vec3 `json:"position"`
	Heading          float64    `json:"heading"`  // yaw, radians
	Velocity         float64    `json:"velocity"` // signed, along the forward axis
	VerticalVelocity float64    `json:"verticalVelocity"`
	Steering         float64    `json:"steering"` // [-1, 1]
	HeadlightsOn     bool       `json:"headlightsOn"`
}

// Pose returns the externally visible part of the state.
func (s VehicleState) Pose() VehiclePose {
	return VehiclePose{
		Position: s.Position,
		Heading:  s.Heading,
		Steering: s.Steering,
	}
}

// VehiclePose is what renderers need to place the vehicle body.
type VehiclePose struct {
	Position mgl64.Vec3 `json:"position"`
	Heading  float64    `json:"heading"`
	Steering float64    `json:"steering"`
}

// Transform places one named part of the vehicle model in world space.
type Transform struct {
	Position mgl64.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw"`
}

// Part names used as PartTransforms keys.
const (
	PartBody            = "body"
	PartWheelFrontLeft  = "wheel.front_left"
	PartWheelFrontRight = "wheel.front_right"
	PartWheelRearLeft   = "wheel.rear_left"
	PartWheelRearRight  = "wheel.rear_right"
)

// PartTransforms maps logical part names to their transforms for the current tick.
type PartTransforms map[string]Transform
