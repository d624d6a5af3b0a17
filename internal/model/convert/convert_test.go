package convert

import (
	"math"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() core.Frame {
	return core.Frame{
		Tick:     42,
		Time:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:  0.7,
		DT:       1.0 / 60,
		Input:    core.Input{Forward: true, Left: true, HeadlightToggle: true},
		Snapshot: core.Snapshot{Velocity: 7, DistanceTraveled: 2.5},
		Vehicle:  core.VehiclePose{Position: mgl64.Vec3{3, 0.175, -4}, Heading: 0.2, Steering: 0.1},
		Camera:   core.CameraPose{Position: mgl64.Vec3{4, 3.175, 3}, FOV: 76},
		Lights: core.LightSignals{
			Ambient: 0.9, Directional: 0.8, SkyBlend: 0.5, SkyColor: "#b6b07b",
			Raining: true, RainIntensity: 0.3, RainVisible: true, HeadlightsOn: true,
		},
		Environment: core.EnvironmentState{GameTime: 300, DayFactor: 0.5, Raining: true, RainIntensity: 0.3},
		Parts: core.PartTransforms{
			core.PartBody: {Position: mgl64.Vec3{3, 0.175, -4}, Yaw: 0.2},
		},
	}
}

func TestCoreToFrame(t *testing.T) {
	proj, err := geo.NewProjector(geo.Anchor{})
	require.NoError(t, err)

	f := CoreToFrame(sampleFrame(), 9, proj)
	assert.Equal(t, uint(9), f.RunID)
	assert.Equal(t, "F.L..T", f.Input)
	assert.Equal(t, 3.0, f.X)
	assert.Equal(t, -4.0, f.Z)
	assert.True(t, f.Lights.HeadlightsOn)
	assert.JSONEq(t, `{"body":{"position":[3,0.175,-4],"yaw":0.2}}`, string(f.Parts))

	c, ok := f.Position.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 3, c.X, 1e-6)
	assert.InDelta(t, 4, c.Y, 1e-6)
}

func TestFrameToCore_RestoresStoredFields(t *testing.T) {
	in := sampleFrame()
	out := FrameToCore(CoreToFrame(in, 1, nil))

	// look-at is not persisted
	in.Camera.LookAt = mgl64.Vec3{}
	// the weather timers are not persisted either
	in.Environment.RainTimer, in.Environment.NextRainChange = 0, 0
	assert.Equal(t, in, out)
}

func TestCoreToFrame_NoProjectorGivesEmptyPoint(t *testing.T) {
	f := CoreToFrame(sampleFrame(), 1, nil)
	assert.True(t, f.Position.IsEmpty())
}

func TestCoreToFrame_UnprojectablePositionGivesEmptyPoint(t *testing.T) {
	proj, err := geo.NewProjector(geo.Anchor{})
	require.NoError(t, err)

	in := sampleFrame()
	in.Vehicle.Position = mgl64.Vec3{math.Inf(1), 0.175, -4}
	f := CoreToFrame(in, 1, proj)
	assert.True(t, f.Position.IsEmpty())
}

func TestObstacleConversion(t *testing.T) {
	o := core.Obstacle{
		ID: 7, X: 10, Z: -20,
		Footprint:   core.Bounds{MinX: 9.5, MinZ: -20.5, MaxX: 10.5, MaxZ: -19.5},
		TrunkRadius: 0.1, TrunkHeight: 2.5, CanopyRadius: 0.5, CanopyHeight: 2, LeafOffset: 1.5,
		LeafColor: core.RGB{R: 0.2, G: 0.6, B: 0.1},
	}
	g := CoreToObstacle(o, 3, -0.25, nil)
	assert.Equal(t, uint(7), g.ObstacleID)
	assert.Equal(t, uint(3), g.RunID)
	assert.Equal(t, "#33991a", g.LeafColor)

	back := ObstacleToCore(g)
	assert.Equal(t, o.Footprint, back.Footprint)
	assert.InDelta(t, 0.2, back.LeafColor.R, 1.0/255)
	assert.InDelta(t, 0.6, back.LeafColor.G, 1.0/255)
	assert.InDelta(t, 0.1, back.LeafColor.B, 1.0/255)
}

func TestRgbToHex_Clamps(t *testing.T) {
	assert.Equal(t, "#00ff80", rgbToHex(core.RGB{R: -1, G: 2, B: 0.5}))
	assert.Equal(t, core.RGB{}, hexToRGB("not a colour"))
}

func TestCoreToRun(t *testing.T) {
	proj, err := geo.NewProjector(geo.Anchor{Longitude: 13.4, Latitude: 52.5})
	require.NoError(t, err)

	r := core.Run{
		Name:      "morning drive",
		Seed:      5,
		StartTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Version:   "dev",
		Config:    map[string]any{"maxDelta": 0.1},
		World:     core.WorldInfo{Seed: 5, Requested: 900, Placed: 900, Attempts: 950},
	}
	g := CoreToRun(r, proj)
	assert.Equal(t, 13.4, g.Longitude)
	assert.Equal(t, 52.5, g.Latitude)
	assert.JSONEq(t, `{"maxDelta":0.1}`, string(g.Config))
	assert.Equal(t, 900, g.World.Placed)

	assert.Equal(t, r, RunToCore(g))
}

func TestSummaryAndEndTime(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := core.RunSummary{Ticks: 600, Elapsed: 10, WallTime: 10500 * time.Millisecond, Distance: 120, MaxSpeed: 30}

	g := CoreToSummary(s)
	assert.Equal(t, int64(10500), g.WallTimeMs)
	assert.Equal(t, uint64(600), g.Ticks)
	assert.Equal(t, s, SummaryToCore(g))

	end := EndTime(core.Run{StartTime: start}, s)
	assert.True(t, end.Valid)
	assert.Equal(t, start.Add(10500*time.Millisecond), end.Time)
}
