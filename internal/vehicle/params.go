package vehicle

import (
	"errors"
	"fmt"
	"math"
)

// BoundsMode selects what happens at the edge of the map.
type BoundsMode string

const (
	BoundsNone   BoundsMode = "none"
	BoundsSquare BoundsMode = "square"
)

// Params are the fixed tuning values of the vehicle.
type Params struct {
	Mass             float64
	MaxForwardSpeed  float64
	MaxReverseSpeed  float64 // <= 0
	AccelerationRate float64
	BrakeForce       float64
	HandbrakeFactor  float64 // handbrake force relative to BrakeForce
	Drag             float64
	RollingResist    float64

	ReverseThreshold float64 // back brakes above this speed and reverses at or below it
	DeadZone         float64

	SteeringThreshold float64 // steering input is ignored at or below this speed
	SteeringAngle     float64
	TurnSpeed         float64
	SteeringReturn    float64 // per-tick decay with no steering input
	SteeringSettle    float64 // per-tick decay while nearly stopped
	MaxWheelSteer     float64

	Gravity      float64
	GroundY      float64
	BottomOffset float64 // distance from the body origin to the underside

	Bounds     BoundsMode
	MapLimit   float64
	SpawnPoint [3]float64
}

// DefaultParams returns the stock hatchback.
func DefaultParams() Params {
	return Params{
		Mass:              1350,
		MaxForwardSpeed:   70,
		MaxReverseSpeed:   -15,
		AccelerationRate:  10,
		BrakeForce:        40,
		HandbrakeFactor:   1.5,
		Drag:              5,
		RollingResist:     1.5,
		ReverseThreshold:  0.5,
		DeadZone:          0.08,
		SteeringThreshold: 0.2,
		SteeringAngle:     math.Pi * 2.2,
		TurnSpeed:         4.2,
		SteeringReturn:    0.9,
		SteeringSettle:    0.8,
		MaxWheelSteer:     math.Pi / 15,
		Gravity:           -9.81,
		GroundY:           0,
		BottomOffset:      0.55 - 0.375,
		Bounds:            BoundsSquare,
		MapLimit:          500,
		SpawnPoint:        [3]float64{0, 0, 0},
	}
}

// Validate reports every violated invariant.
func (p Params) Validate() error {
	var errs []error
	positive := map[string]float64{
		"mass":             p.Mass,
		"maxForwardSpeed":  p.MaxForwardSpeed,
		"accelerationRate": p.AccelerationRate,
		"turnSpeed":        p.TurnSpeed,
	}
	for _, name := range []string{"mass", "maxForwardSpeed", "accelerationRate", "turnSpeed"} {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("vehicle.%s must be positive, got %.3f", name, positive[name]))
		}
	}

	nonNegative := map[string]float64{
		"brakeForce":        p.BrakeForce,
		"handbrakeFactor":   p.HandbrakeFactor,
		"drag":              p.Drag,
		"rollingResistance": p.RollingResist,
		"deadZone":          p.DeadZone,
		"steeringThreshold": p.SteeringThreshold,
	}
	for _, name := range []string{"brakeForce", "handbrakeFactor", "drag", "rollingResistance", "deadZone", "steeringThreshold"} {
		if nonNegative[name] < 0 {
			errs = append(errs, fmt.Errorf("vehicle.%s must not be negative, got %.3f", name, nonNegative[name]))
		}
	}

	if p.MaxReverseSpeed > 0 {
		errs = append(errs, fmt.Errorf("vehicle.maxReverseSpeed must not be positive, got %.3f", p.MaxReverseSpeed))
	}
	if p.SteeringReturn < 0 || p.SteeringReturn > 1 {
		errs = append(errs, fmt.Errorf("vehicle.steeringReturn must be in [0, 1], got %.3f", p.SteeringReturn))
	}
	if p.SteeringSettle < 0 || p.SteeringSettle > 1 {
		errs = append(errs, fmt.Errorf("vehicle.steeringSettle must be in [0, 1], got %.3f", p.SteeringSettle))
	}

	switch p.Bounds {
	case BoundsNone:
	case BoundsSquare:
		if p.MapLimit <= 0 {
			errs = append(errs, fmt.Errorf("vehicle.mapLimit must be positive, got %.3f", p.MapLimit))
		}
	default:
		errs = append(errs, fmt.Errorf("vehicle.bounds %q is not one of none, square", p.Bounds))
	}
	return errors.Join(errs...)
}
