// Package placement scatters points over a square region by rejection sampling.
package placement

import (
	"errors"
	"fmt"
)

// DefaultAttemptFactor bounds the number of draws to count*DefaultAttemptFactor.
const DefaultAttemptFactor = 10

// Source is the randomness the sampler draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Point is a location on the ground plane.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func (p Point) distSq(o Point) float64 {
	dx := p.X - o.X
	dz := p.Z - o.Z
	return dx*dx + dz*dz
}

// Constraints describe one sampling request.
type Constraints struct {
	Count         int     // target number of points
	Min           float64 // lower bound on both axes
	Max           float64 // upper bound on both axes
	Spacing       float64 // minimum distance between any two accepted points
	Origin        Point   // keep-out centre
	Clearance     float64 // minimum distance from Origin
	AttemptFactor int     // draws per requested point, DefaultAttemptFactor when zero
}

// Validate reports every violated constraint.
func (c Constraints) Validate() error {
	var errs []error
	if c.Count < 0 {
		errs = append(errs, fmt.Errorf("count must not be negative, got %d", c.Count))
	}
	if c.Min > c.Max {
		errs = append(errs, fmt.Errorf("min %.3f exceeds max %.3f", c.Min, c.Max))
	}
	if c.Spacing < 0 {
		errs = append(errs, fmt.Errorf("spacing must not be negative, got %.3f", c.Spacing))
	}
	if c.Clearance < 0 {
		errs = append(errs, fmt.Errorf("clearance must not be negative, got %.3f", c.Clearance))
	}
	if c.AttemptFactor < 0 {
		errs = append(errs, fmt.Errorf("attempt factor must not be negative, got %d", c.AttemptFactor))
	}
	return errors.Join(errs...)
}

// MaxAttempts is the cap on candidate draws.
func (c Constraints) MaxAttempts() int {
	factor := c.AttemptFactor
	if factor == 0 {
		factor = DefaultAttemptFactor
	}
	return c.Count * factor
}

// Result is the immutable outcome of Sample.
type Result struct {
	points    []Point
	requested int
	attempts  int
}

// Points returns a copy of the accepted points in acceptance order.
func (r Result) Points() []Point {
	out := make([]Point, len(r.points))
	copy(out, r.points)
	return out
}

// Len is the number of accepted points.
func (r Result) Len() int { return len(r.points) }

// Requested is the target count the sampler was asked for.
func (r Result) Requested() int { return r.requested }

// Attempts is the number of candidates drawn.
func (r Result) Attempts() int { return r.attempts }

// Filled reports whether the target count was reached.
func (r Result) Filled() bool { return len(r.points) >= r.requested }

// Sample draws uniform candidates inside [Min, Max]² and keeps those at least
// Clearance from Origin and at least Spacing from every point kept so far. It
// stops when Count points are kept or MaxAttempts candidates were drawn, so the
// result may hold fewer points than requested.
//
// Each candidate is checked against all accepted points, which makes the whole
// run O(Count²). That is fine for the few thousand trees a world carries; a grid
// would be needed for much denser fills.
//
// Constraints are assumed valid; call Validate first when they come from config.
func Sample(src Source, c Constraints) Result {
	res := Result{requested: c.Count}
	if c.Count <= 0 {
		return res
	}

	res.points = make([]Point, 0, c.Count)
	span := c.Max - c.Min
	spacingSq := c.Spacing * c.Spacing
	clearanceSq := c.Clearance * c.Clearance
	maxAttempts := c.MaxAttempts()

	for len(res.points) < c.Count && res.attempts < maxAttempts {
		res.attempts++

		candidate := Point{
			X: c.Min + src.Float64()*span,
			Z: c.Min + src.Float64()*span,
		}

		if candidate.distSq(c.Origin) < clearanceSq {
			continue
		}

		tooClose := false
		for _, p := range res.points {
			if candidate.distSq(p) < spacingSq {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		res.points = append(res.points, candidate)
	}

	return res
}
