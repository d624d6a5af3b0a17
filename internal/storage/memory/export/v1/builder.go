package v1

import (
	"math"
	"time"

	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// RunData contains all the data needed to build an export
type RunData struct {
	Run         *core.Run
	Summary     *core.RunSummary
	Anchor      *geo.Anchor
	Obstacles   []core.Obstacle
	Frames      []core.Frame
	SampleEvery int // keep every Nth frame in the time series, 1 when unset
}

// Build creates an Export from the run data. Events are derived from every
// frame regardless of sampling so no transition is lost.
func Build(data *RunData) Export {
	every := data.SampleEvery
	if every < 1 {
		every = 1
	}

	export := Export{
		FormatVersion: FormatVersion,
		Version:       data.Run.Version,
		RunName:       data.Run.Name,
		Seed:          data.Run.Seed,
		StartTime:     data.Run.StartTime.UTC().Format(time.RFC3339Nano),
		SampleEvery:   every,
		Anchor:        data.Anchor,
		World:         data.Run.World,
		Summary:       data.Summary,
		Obstacles:     make([][]any, 0, len(data.Obstacles)),
		Vehicle:       make([][]any, 0, len(data.Frames)/every+1),
		Camera:        make([][]any, 0, len(data.Frames)/every+1),
		Environment:   make([][]any, 0, len(data.Frames)/every+1),
		Events:        make([][]any, 0),
		Track:         make([][]float64, 0, len(data.Frames)/every+1),
	}

	for _, o := range data.Obstacles {
		export.Obstacles = append(export.Obstacles, []any{
			o.ID,
			round(o.X),
			round(o.Z),
			round(o.TrunkRadius),
			round(o.TrunkHeight),
			round(o.CanopyRadius),
			round(o.CanopyHeight),
			round(o.LeafOffset),
			hex(o.LeafColor),
		})
	}

	var prev *core.Frame
	last := len(data.Frames) - 1
	for i := range data.Frames {
		f := &data.Frames[i]
		if f.Tick > export.EndTick {
			export.EndTick = f.Tick
		}
		export.Events = append(export.Events, events(prev, f)...)
		prev = f

		// the last frame is always kept so the series ends where the run did
		if i%every != 0 && i != last {
			continue
		}

		pos := f.Vehicle.Position
		export.Vehicle = append(export.Vehicle, []any{
			f.Tick,
			vec(pos),
			round(f.Vehicle.Heading),
			round(f.Vehicle.Steering),
			round(f.Snapshot.Velocity),
			round(f.Snapshot.DistanceTraveled),
			f.Input.String(),
		})
		export.Camera = append(export.Camera, []any{
			f.Tick,
			vec(f.Camera.Position),
			vec(f.Camera.LookAt),
			round(f.Camera.FOV),
		})
		export.Environment = append(export.Environment, []any{
			f.Tick,
			round(f.Environment.GameTime),
			round(f.Environment.DayFactor),
			round(f.Lights.Ambient),
			round(f.Lights.Directional),
			f.Lights.SkyColor,
			round(f.Environment.RainIntensity),
			boolToInt(f.Lights.RainVisible),
		})
		export.Track = append(export.Track, []float64{round(pos.X()), round(pos.Z())})
	}

	return export
}

// events compares two consecutive frames.
// Format: [tick, "type", value]
func events(prev, cur *core.Frame) [][]any {
	var out [][]any
	if prev == nil {
		out = append(out, []any{cur.Tick, EventHeadlights, boolToInt(cur.Lights.HeadlightsOn)})
		if cur.Environment.Raining {
			out = append(out, []any{cur.Tick, EventRain, 1})
		}
		return out
	}
	if prev.Lights.HeadlightsOn != cur.Lights.HeadlightsOn {
		out = append(out, []any{cur.Tick, EventHeadlights, boolToInt(cur.Lights.HeadlightsOn)})
	}
	if prev.Environment.Raining != cur.Environment.Raining {
		out = append(out, []any{cur.Tick, EventRain, boolToInt(cur.Environment.Raining)})
	}
	if (prev.Snapshot.Velocity < 0) != (cur.Snapshot.Velocity < 0) {
		out = append(out, []any{cur.Tick, EventReverse, boolToInt(cur.Snapshot.Velocity < 0)})
	}
	return out
}

// round keeps millimetre precision.
func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func vec(v mgl64.Vec3) []float64 {
	return []float64{round(v.X()), round(v.Y()), round(v.Z())}
}

func hex(c core.RGB) string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
