// Package camera drives the chase camera that trails the vehicle.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

var up = mgl64.Vec3{0, 1, 0}

// Params tune the rig.
type Params struct {
	MinDistance    float64
	MaxDistance    float64
	MinFOV         float64
	MaxFOV         float64
	MaxAngleOffset float64 // swing towards the inside of a turn, radians
	AngleRate      float64 // per second
	ZoomRate       float64 // per second, for distance and FOV
	Height         float64
	LookHeight     float64
	ReferenceSpeed float64 // speed at which distance and FOV reach their maximum
}

// DefaultParams returns the stock rig for a vehicle with the given top speed.
func DefaultParams(topSpeed float64) Params {
	return Params{
		MinDistance:    7,
		MaxDistance:    7.6,
		MinFOV:         75,
		MaxFOV:         82,
		MaxAngleOffset: math.Pi / 40,
		AngleRate:      4,
		ZoomRate:       2,
		Height:         3,
		LookHeight:     1,
		ReferenceSpeed: topSpeed,
	}
}

// Validate reports every violated invariant.
func (p Params) Validate() error {
	var errs []error
	if p.MinDistance > p.MaxDistance {
		errs = append(errs, fmt.Errorf("camera.minDistance %.3f exceeds camera.maxDistance %.3f", p.MinDistance, p.MaxDistance))
	}
	if p.MinFOV > p.MaxFOV {
		errs = append(errs, fmt.Errorf("camera.minFov %.3f exceeds camera.maxFov %.3f", p.MinFOV, p.MaxFOV))
	}
	if p.MinFOV <= 0 || p.MaxFOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov range [%.3f, %.3f] must lie inside (0, 180)", p.MinFOV, p.MaxFOV))
	}
	if p.AngleRate <= 0 {
		errs = append(errs, fmt.Errorf("camera.angleRate must be positive, got %.3f", p.AngleRate))
	}
	if p.ZoomRate <= 0 {
		errs = append(errs, fmt.Errorf("camera.zoomRate must be positive, got %.3f", p.ZoomRate))
	}
	if p.ReferenceSpeed <= 0 {
		errs = append(errs, fmt.Errorf("camera reference speed must be positive, got %.3f", p.ReferenceSpeed))
	}
	return errors.Join(errs...)
}

// Initial is the rig at rest: closest distance, narrowest FOV, centred.
func Initial(p Params) core.CameraState {
	return core.CameraState{Distance: p.MinDistance, FOV: p.MinFOV}
}

// Step eases the rig towards the targets implied by the vehicle and input.
// Each smoothing factor is clamped to [0, 1] so a long frame lands on the
// target instead of overshooting it.
func Step(p Params, cam core.CameraState, v core.VehicleState, in core.Input, dt float64) core.CameraState {
	if dt <= 0 {
		return cam
	}

	target := in.Steer() * p.MaxAngleOffset
	cam.AngleOffset = approach(cam.AngleOffset, target, p.AngleRate*dt)

	ratio := math.Min(math.Abs(v.Velocity)/p.ReferenceSpeed, 1)
	cam.Distance = approach(cam.Distance, lerp(p.MinDistance, p.MaxDistance, ratio), p.ZoomRate*dt)
	cam.FOV = approach(cam.FOV, lerp(p.MinFOV, p.MaxFOV, ratio), p.ZoomRate*dt)
	return cam
}

// Pose places the camera behind the vehicle, swung by the angle offset, and
// aims it just above the vehicle origin.
func Pose(p Params, cam core.CameraState, v core.VehicleState) core.CameraPose {
	offset := mgl64.Vec3{0, p.Height, cam.Distance}
	rot := mgl64.QuatRotate(v.Heading, up).Mul(mgl64.QuatRotate(cam.AngleOffset, up))

	return core.CameraPose{
		Position: v.Position.Add(rot.Rotate(offset)),
		LookAt:   v.Position.Add(mgl64.Vec3{0, p.LookHeight, 0}),
		FOV:      cam.FOV,
	}
}

// approach moves current towards target by the fraction k. The result never
// leaves the closed interval between the two, and k >= 1 lands exactly on
// target.
func approach(current, target, k float64) float64 {
	k = mgl64.Clamp(k, 0, 1)
	if k == 1 {
		return target
	}
	return between(current+(target-current)*k, current, target)
}

func lerp(a, b, t float64) float64 {
	if t >= 1 {
		return b
	}
	return between(a+(b-a)*t, a, b)
}

func between(v, a, b float64) float64 {
	return mgl64.Clamp(v, math.Min(a, b), math.Max(a, b))
}
