package placement

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constSource always returns the same draw.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func forestConstraints(count int) Constraints {
	return Constraints{
		Count:     count,
		Min:       -500,
		Max:       500,
		Spacing:   12,
		Clearance: 25,
	}
}

func TestSample_TenObstacles(t *testing.T) {
	res := Sample(rand.New(rand.NewSource(42)), forestConstraints(10))

	require.Equal(t, 10, res.Len())
	assert.True(t, res.Filled())
	assert.Equal(t, 10, res.Requested())
	assert.LessOrEqual(t, res.Attempts(), 100)

	pts := res.Points()
	for i, p := range pts {
		assert.GreaterOrEqual(t, math.Hypot(p.X, p.Z), 25.0, "point %d inside spawn clearance", i)
		for j := i + 1; j < len(pts); j++ {
			assert.GreaterOrEqual(t, math.Hypot(p.X-pts[j].X, p.Z-pts[j].Z), 12.0, "points %d and %d too close", i, j)
		}
	}
}

func TestSample_PropertiesAcrossSeeds(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		c := forestConstraints(900)
		res := Sample(rand.New(rand.NewSource(seed)), c)

		assert.LessOrEqual(t, res.Len(), c.Count)
		assert.LessOrEqual(t, res.Attempts(), c.MaxAttempts())

		pts := res.Points()
		for i, p := range pts {
			require.True(t, p.X >= c.Min && p.X <= c.Max && p.Z >= c.Min && p.Z <= c.Max)
			require.GreaterOrEqual(t, p.distSq(c.Origin), c.Clearance*c.Clearance)
			for j := i + 1; j < len(pts); j++ {
				require.GreaterOrEqual(t, p.distSq(pts[j]), c.Spacing*c.Spacing)
			}
		}
	}
}

func TestSample_UnderFillStopsAtAttemptCap(t *testing.T) {
	// every candidate lands on the origin and is rejected by the clearance check
	c := forestConstraints(50)
	c.Min, c.Max = 0, 0
	res := Sample(constSource(0.5), c)

	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 500, res.Attempts())
	assert.False(t, res.Filled())
}

func TestSample_SpacingRejectsRepeatedDraws(t *testing.T) {
	c := Constraints{Count: 5, Min: 0, Max: 100, Spacing: 1}
	res := Sample(constSource(0.25), c)

	require.Equal(t, 1, res.Len())
	assert.Equal(t, Point{X: 25, Z: 25}, res.Points()[0])
	assert.Equal(t, 50, res.Attempts())
}

func TestSample_ZeroCount(t *testing.T) {
	res := Sample(constSource(0.1), forestConstraints(0))
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, res.Attempts())
	assert.True(t, res.Filled())
}

func TestSample_Deterministic(t *testing.T) {
	a := Sample(rand.New(rand.NewSource(7)), forestConstraints(200))
	b := Sample(rand.New(rand.NewSource(7)), forestConstraints(200))
	assert.Equal(t, a.Points(), b.Points())
	assert.Equal(t, a.Attempts(), b.Attempts())
}

func TestResult_PointsIsCopy(t *testing.T) {
	res := Sample(rand.New(rand.NewSource(3)), forestConstraints(3))
	pts := res.Points()
	pts[0].X = 9999
	assert.NotEqual(t, 9999.0, res.Points()[0].X)
}

func TestConstraints_MaxAttempts(t *testing.T) {
	assert.Equal(t, 100, forestConstraints(10).MaxAttempts())

	c := forestConstraints(10)
	c.AttemptFactor = 3
	assert.Equal(t, 30, c.MaxAttempts())
}

func TestConstraints_Validate(t *testing.T) {
	assert.NoError(t, forestConstraints(10).Validate())

	bad := Constraints{Count: -1, Min: 10, Max: -10, Spacing: -1, Clearance: -2, AttemptFactor: -1}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"count", "min", "spacing", "clearance", "attempt factor"} {
		assert.Contains(t, err.Error(), want)
	}
}
