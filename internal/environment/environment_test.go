package environment

import (
	"math/rand"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestNew_SchedulesFirstShower(t *testing.T) {
	p := DefaultParams()

	s := New(p, 0, fixedRand(0))
	assert.Equal(t, 30.0, s.NextRainChange)
	assert.False(t, s.Raining)
	assert.Zero(t, s.DayFactor)

	s = New(p, 0, fixedRand(0.5))
	assert.Equal(t, 55.0, s.NextRainChange)

	s = New(p, p.DayLength+10, fixedRand(0))
	assert.InDelta(t, 10, s.GameTime, 1e-9)
}

func TestStep_DayFactorPeaksAtMidday(t *testing.T) {
	p := DefaultParams()
	s := New(p, 0, fixedRand(0.99))

	s = Step(p, s, p.DayLength/2, fixedRand(0))
	assert.InDelta(t, 1, s.DayFactor, 1e-9)

	sig := Signals(p, s)
	assert.InDelta(t, 0.8, sig.Ambient, 1e-9)
	assert.InDelta(t, 0.55, sig.Directional, 1e-9)
	assert.Equal(t, "#e5910b", sig.SkyColor)
}

func TestSignals_Dawn(t *testing.T) {
	p := DefaultParams()
	sig := Signals(p, New(p, 0, fixedRand(0)))

	assert.Equal(t, 1.0, sig.Ambient)
	assert.Equal(t, 1.0, sig.Directional)
	assert.Equal(t, "#87ceeb", sig.SkyColor)
	assert.False(t, sig.RainVisible)
}

func TestStep_Periodic(t *testing.T) {
	p := DefaultParams()
	rng := rand.New(rand.NewSource(1))

	for _, start := range []float64{0, 100, 675, 1200} {
		a := New(p, start, rng)
		b := Step(p, a, p.DayLength, rng)
		assert.InDelta(t, a.DayFactor, b.DayFactor, 1e-9, "start %v", start)
		assert.InDelta(t, a.GameTime, b.GameTime, 1e-9, "start %v", start)
	}
}

func TestStep_GameTimeStaysInRange(t *testing.T) {
	p := DefaultParams()
	rng := rand.New(rand.NewSource(2))
	s := New(p, 0, rng)

	for i := 0; i < 100000; i++ {
		s = Step(p, s, 1.0/30, rng)
		require.GreaterOrEqual(t, s.GameTime, 0.0)
		require.Less(t, s.GameTime, p.DayLength)
		require.GreaterOrEqual(t, s.RainIntensity, 0.0)
		require.LessOrEqual(t, s.RainIntensity, 1.0)
	}
}

func TestStep_WeatherToggleAndRamp(t *testing.T) {
	p := DefaultParams()
	s := New(p, 0, fixedRand(0)) // first change after 30s

	s = Step(p, s, 29, fixedRand(0))
	assert.False(t, s.Raining)
	assert.Zero(t, s.RainIntensity)

	s = Step(p, s, 1, fixedRand(0))
	require.True(t, s.Raining)
	assert.Zero(t, s.RainTimer)
	assert.Equal(t, 15.0, s.NextRainChange)
	assert.InDelta(t, 0.15, s.RainIntensity, 1e-9)
	assert.True(t, Signals(p, s).RainVisible)

	// ramps to full and holds
	for i := 0; i < 14; i++ {
		s = Step(p, s, 1, fixedRand(0))
	}
	assert.True(t, s.Raining)
	assert.Equal(t, 1.0, s.RainIntensity)

	// 15s after starting it stops and ramps down
	s = Step(p, s, 1, fixedRand(0))
	assert.False(t, s.Raining)
	assert.InDelta(t, 0.85, s.RainIntensity, 1e-9)
}

func TestStep_NonPositiveDeltaIsNoop(t *testing.T) {
	p := DefaultParams()
	s := New(p, 42, fixedRand(0.3))
	assert.Equal(t, s, Step(p, s, 0, fixedRand(0)))
	assert.Equal(t, s, Step(p, s, -1, fixedRand(0)))
}

func TestSignals_RainVisibility(t *testing.T) {
	p := DefaultParams()
	assert.False(t, Signals(p, core.EnvironmentState{RainIntensity: 0.05}).RainVisible)
	assert.True(t, Signals(p, core.EnvironmentState{RainIntensity: 0.051}).RainVisible)
}

func TestStartTimeFromClock(t *testing.T) {
	p := DefaultParams()
	early := time.Date(2024, 5, 1, 0, 5, 0, 0, time.UTC)
	// 300s * 4 = 1200
	assert.InDelta(t, 1200, StartTimeFromClock(p, early), 1e-9)

	later := time.Date(2024, 5, 1, 0, 6, 0, 0, time.UTC)
	// 360s * 4 = 1440 -> 90
	assert.InDelta(t, 90, StartTimeFromClock(p, later), 1e-9)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.DayLength = 0
	p.RainIntervalMin = 50
	p.RainRampRate = -1
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dayLength")
	assert.Contains(t, err.Error(), "rainInterval")
	assert.Contains(t, err.Error(), "rainRampRate")
}
