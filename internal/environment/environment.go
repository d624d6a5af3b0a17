// Package environment advances the day/night clock and the weather.
package environment

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Rand is the randomness weather timing draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Params tune the environment. Build them with DefaultParams and override fields.
type Params struct {
	DayLength float64 // seconds of game time per full cycle

	AmbientDay      float64
	AmbientDusk     float64
	DirectionalDay  float64
	DirectionalDusk float64
	SkyDay          colorful.Color
	SkyDusk         colorful.Color

	FirstRainMin    float64 // first weather change is drawn from [FirstRainMin, FirstRainMax)
	FirstRainMax    float64
	RainIntervalMin float64 // later changes from [RainIntervalMin, RainIntervalMax)
	RainIntervalMax float64
	RainRampRate    float64 // intensity change per second
	RainVisibleAt   float64 // intensity above which rain is drawn

	ClockScale float64 // game seconds per wall-clock second when seeding from a clock
}

// DefaultParams returns the stock 22.5 minute day with showers.
func DefaultParams() Params {
	day, _ := colorful.Hex("#87ceeb")
	dusk, _ := colorful.Hex("#e5910b")
	return Params{
		DayLength:       6 * 15 * 15,
		AmbientDay:      1,
		AmbientDusk:     0.8,
		DirectionalDay:  1,
		DirectionalDusk: 0.55,
		SkyDay:          day,
		SkyDusk:         dusk,
		FirstRainMin:    30,
		FirstRainMax:    80,
		RainIntervalMin: 15,
		RainIntervalMax: 40,
		RainRampRate:    0.15,
		RainVisibleAt:   0.05,
		ClockScale:      4,
	}
}

// Validate reports every violated invariant.
func (p Params) Validate() error {
	var errs []error
	if p.DayLength <= 0 {
		errs = append(errs, fmt.Errorf("environment.dayLength must be positive, got %.3f", p.DayLength))
	}
	if p.FirstRainMin < 0 || p.FirstRainMin > p.FirstRainMax {
		errs = append(errs, fmt.Errorf("environment.firstRain range [%.3f, %.3f] is invalid", p.FirstRainMin, p.FirstRainMax))
	}
	if p.RainIntervalMin <= 0 || p.RainIntervalMin > p.RainIntervalMax {
		errs = append(errs, fmt.Errorf("environment.rainInterval range [%.3f, %.3f] is invalid", p.RainIntervalMin, p.RainIntervalMax))
	}
	if p.RainRampRate <= 0 {
		errs = append(errs, fmt.Errorf("environment.rainRampRate must be positive, got %.3f", p.RainRampRate))
	}
	if p.ClockScale <= 0 {
		errs = append(errs, fmt.Errorf("environment.clockScale must be positive, got %.3f", p.ClockScale))
	}
	return errors.Join(errs...)
}

// New returns the environment at gameTime with the first weather change scheduled.
func New(p Params, gameTime float64, rng Rand) core.EnvironmentState {
	s := core.EnvironmentState{
		GameTime:       wrap(gameTime, p.DayLength),
		NextRainChange: draw(rng, p.FirstRainMin, p.FirstRainMax),
	}
	s.DayFactor = dayFactor(s.GameTime, p.DayLength)
	return s
}

// Step advances the clock and the weather by dt seconds. Non-positive dt is a no-op.
func Step(p Params, s core.EnvironmentState, dt float64, rng Rand) core.EnvironmentState {
	if dt <= 0 {
		return s
	}

	s.GameTime = wrap(s.GameTime+dt, p.DayLength)
	s.DayFactor = dayFactor(s.GameTime, p.DayLength)

	s.RainTimer += dt
	if s.RainTimer >= s.NextRainChange {
		s.Raining = !s.Raining
		s.RainTimer = 0
		s.NextRainChange = draw(rng, p.RainIntervalMin, p.RainIntervalMax)
	}

	if s.Raining {
		s.RainIntensity = mgl64.Clamp(s.RainIntensity+p.RainRampRate*dt, 0, 1)
	} else {
		s.RainIntensity = mgl64.Clamp(s.RainIntensity-p.RainRampRate*dt, 0, 1)
	}
	return s
}

// Signals derives the lighting outputs from the state.
func Signals(p Params, s core.EnvironmentState) core.LightSignals {
	f := s.DayFactor
	return core.LightSignals{
		Ambient:       lerp(p.AmbientDay, p.AmbientDusk, f),
		Directional:   lerp(p.DirectionalDay, p.DirectionalDusk, f),
		SkyBlend:      f,
		SkyColor:      p.SkyDay.BlendRgb(p.SkyDusk, f).Clamped().Hex(),
		Raining:       s.Raining,
		RainIntensity: s.RainIntensity,
		RainVisible:   s.RainIntensity > p.RainVisibleAt,
	}
}

// StartTimeFromClock maps a wall-clock time of day onto the game clock,
// running ClockScale times faster and wrapped into one day.
func StartTimeFromClock(p Params, t time.Time) float64 {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	seconds := t.Sub(midnight).Seconds()
	return wrap(seconds*p.ClockScale, p.DayLength)
}

func dayFactor(gameTime, dayLength float64) float64 {
	return math.Sin(gameTime / dayLength * math.Pi)
}

func wrap(t, period float64) float64 {
	t = math.Mod(t, period)
	if t < 0 {
		t += period
	}
	return t
}

func draw(rng Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
