// Package vehicle integrates the player car: longitudinal forces, steering,
// heading, gravity and map bounds.
package vehicle

import (
	"math"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	up          = mgl64.Vec3{0, 1, 0}
	forwardAxis = mgl64.Vec3{0, 0, -1}
)

// Spawn returns the vehicle at rest at the spawn point with headlights on.
func Spawn(p Params) core.VehicleState {
	return core.VehicleState{
		Position:     mgl64.Vec3(p.SpawnPoint),
		HeadlightsOn: true,
	}
}

// Forward is the unit direction the car faces for a heading.
func Forward(heading float64) mgl64.Vec3 {
	return mgl64.QuatRotate(heading, up).Rotate(forwardAxis)
}

// ResolveControls turns held input into throttle and brake commands. Back
// brakes while rolling forward faster than ReverseThreshold and reverses
// otherwise, overriding forward.
func ResolveControls(p Params, velocity float64, in core.Input) core.Controls {
	var c core.Controls
	if in.Handbrake {
		c.Handbrake = 1
	}
	if in.Forward {
		c.Throttle = 1
	}
	if in.Back {
		if velocity > p.ReverseThreshold {
			c.Brake = 1
		} else {
			c.Throttle = -1
		}
	}
	return c
}

// RearLightsOn reports whether the brake lights are lit for these controls.
func RearLightsOn(c core.Controls) bool {
	return c.Braking() || c.Throttle < 0
}

// Step advances s by dt seconds. Non-positive dt returns s unchanged.
func Step(p Params, s core.VehicleState, in core.Input, dt float64) core.VehicleState {
	next, _ := Advance(p, s, in, dt)
	return next
}

// Advance is Step that also reports the distance driven this step, |v*dt|.
// The distance is taken before the map bounds pin the car, so a step that
// ends against the wall still counts the ground it covered.
func Advance(p Params, s core.VehicleState, in core.Input, dt float64) (core.VehicleState, float64) {
	if dt <= 0 {
		return s, 0
	}

	next := s
	next.Position[1], next.VerticalVelocity = settle(p, s.Position.Y(), s.VerticalVelocity, dt)

	c := ResolveControls(p, s.Velocity, in)
	next.Velocity = integrate(p, s.Velocity, c, dt)
	next.Steering = steer(p, s.Steering, next.Velocity, in, dt)

	turn := next.Steering * p.SteeringAngle * (next.Velocity / p.MaxForwardSpeed)
	next.Heading = s.Heading + turn*dt

	next.Position = next.Position.Add(Forward(next.Heading).Mul(next.Velocity * dt))

	return confine(p, next), math.Abs(next.Velocity * dt)
}

// settle applies gravity and snaps the body onto the ground plane.
func settle(p Params, y, vy, dt float64) (float64, float64) {
	vy += p.Gravity * dt
	y += vy * dt
	if y-p.BottomOffset <= p.GroundY {
		return p.GroundY + p.BottomOffset, 0
	}
	return y, vy
}

func integrate(p Params, v float64, c core.Controls, dt float64) float64 {
	engine := c.Throttle * p.AccelerationRate * p.Mass
	braking := c.Brake*p.BrakeForce*p.Mass + c.Handbrake*p.BrakeForce*p.HandbrakeFactor*p.Mass
	air := p.Drag * v * math.Abs(v)
	rolling := p.RollingResist * v

	net := engine - braking*sign(v) - air - rolling
	next := v + net/p.Mass*dt

	// brakes stop the car, they never push it the other way
	if c.Braking() && sign(next) != sign(v) && sign(v) != 0 {
		next = 0
	}

	next = mgl64.Clamp(next, p.MaxReverseSpeed, p.MaxForwardSpeed)

	if math.Abs(next) < p.DeadZone && c == (core.Controls{}) {
		next = 0
	}
	return next
}

func steer(p Params, steering, v float64, in core.Input, dt float64) float64 {
	if math.Abs(v) <= p.SteeringThreshold {
		return steering * p.SteeringSettle
	}
	switch in.Steer() {
	case 1:
		return math.Min(steering+p.TurnSpeed*dt, 1)
	case -1:
		return math.Max(steering-p.TurnSpeed*dt, -1)
	}
	return steering * p.SteeringReturn
}

// confine pins the car inside the square map and kills its speed on contact.
func confine(p Params, s core.VehicleState) core.VehicleState {
	if p.Bounds != BoundsSquare {
		return s
	}
	if math.Abs(s.Position.X()) > p.MapLimit {
		s.Position[0] = math.Copysign(p.MapLimit, s.Position.X())
		s.Velocity = 0
	}
	if math.Abs(s.Position.Z()) > p.MapLimit {
		s.Position[2] = math.Copysign(p.MapLimit, s.Position.Z())
		s.Velocity = 0
	}
	return s
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
