package vehicle

import (
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// wheel mounts in the body frame; -Z is the nose.
var wheelMounts = []struct {
	name  string
	local mgl64.Vec3
	steer bool
}{
	{core.PartWheelFrontLeft, mgl64.Vec3{-0.95, 0, -1.5}, true},
	{core.PartWheelFrontRight, mgl64.Vec3{0.95, 0, -1.5}, true},
	{core.PartWheelRearLeft, mgl64.Vec3{-0.95, 0, 1.5}, false},
	{core.PartWheelRearRight, mgl64.Vec3{0.95, 0, 1.5}, false},
}

// WheelAngle is the yaw of the front wheels relative to the body.
func WheelAngle(p Params, s core.VehicleState) float64 {
	return s.Steering * p.MaxWheelSteer
}

// UpdateParts writes the world transform of every named part into parts.
// Front wheels yaw with the steering; rear wheels stay aligned with the body.
func UpdateParts(p Params, s core.VehicleState, parts core.PartTransforms) {
	rot := mgl64.QuatRotate(s.Heading, up)
	parts[core.PartBody] = core.Transform{Position: s.Position, Yaw: s.Heading}

	wheel := WheelAngle(p, s)
	for _, m := range wheelMounts {
		yaw := s.Heading
		if m.steer {
			yaw += wheel
		}
		parts[m.name] = core.Transform{
			Position: s.Position.Add(rot.Rotate(m.local)),
			Yaw:      yaw,
		}
	}
}
