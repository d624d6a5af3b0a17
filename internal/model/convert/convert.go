package convert

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/drivesim/internal/model"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// hexToRGB parses #rrggbb, returning black when malformed.
func hexToRGB(hex string) core.RGB {
	c, err := colorful.Hex(hex)
	if err != nil {
		return core.RGB{}
	}
	return core.RGB{R: c.R, G: c.G, B: c.B}
}

// RunToCore converts a GORM Run to a core.Run.
func RunToCore(r model.Run) core.Run {
	var cfg map[string]any
	if len(r.Config) > 0 {
		_ = json.Unmarshal(r.Config, &cfg)
	}
	return core.Run{
		ID:        r.ID,
		Name:      r.Name,
		Seed:      r.Seed,
		StartTime: r.StartTime,
		Version:   r.Version,
		Config:    cfg,
		World: core.WorldInfo{
			Seed:           r.World.Seed,
			HalfExtent:     r.World.HalfExtent,
			GroundY:        r.World.GroundY,
			Spacing:        r.World.Spacing,
			SpawnClearance: r.World.SpawnClearance,
			Requested:      r.World.Requested,
			Placed:         r.World.Placed,
			Attempts:       r.World.Attempts,
		},
	}
}

// SummaryToCore converts the stored run totals to a core.RunSummary.
func SummaryToCore(s model.Summary) core.RunSummary {
	return core.RunSummary{
		Ticks:         s.Ticks,
		Elapsed:       s.Elapsed,
		WallTime:      time.Duration(s.WallTimeMs) * time.Millisecond,
		Distance:      s.Distance,
		MaxSpeed:      s.MaxSpeed,
		ClampedDeltas: s.ClampedDeltas,
	}
}

// ObstacleToCore converts a GORM Obstacle to a core.Obstacle.
// GORM Obstacle.ObstacleID maps to core Obstacle.ID.
func ObstacleToCore(o model.Obstacle) core.Obstacle {
	return core.Obstacle{
		ID: o.ObstacleID,
		X:  o.X,
		Z:  o.Z,
		Footprint: core.Bounds{
			MinX: o.MinX,
			MinZ: o.MinZ,
			MaxX: o.MaxX,
			MaxZ: o.MaxZ,
		},
		TrunkRadius:  o.TrunkRadius,
		TrunkHeight:  o.TrunkHeight,
		CanopyRadius: o.CanopyRadius,
		CanopyHeight: o.CanopyHeight,
		LeafOffset:   o.LeafOffset,
		LeafColor:    hexToRGB(o.LeafColor),
	}
}

// FrameToCore converts a GORM Frame to a core.Frame. The camera look-at
// target is not stored and is left zero.
func FrameToCore(f model.Frame) core.Frame {
	var parts core.PartTransforms
	if len(f.Parts) > 0 {
		_ = json.Unmarshal(f.Parts, &parts)
	}
	return core.Frame{
		Tick:    f.Tick,
		Time:    f.Time,
		Elapsed: f.Elapsed,
		DT:      f.DT,
		Input:   core.ParseInput(f.Input),
		Snapshot: core.Snapshot{
			Velocity:         f.Velocity,
			DistanceTraveled: f.Distance,
		},
		Vehicle: core.VehiclePose{
			Position: mgl64.Vec3{f.X, f.Y, f.Z},
			Heading:  f.Heading,
			Steering: f.Steering,
		},
		Camera: core.CameraPose{
			Position: mgl64.Vec3{f.CameraX, f.CameraY, f.CameraZ},
			FOV:      f.CameraFOV,
		},
		Lights: core.LightSignals{
			Ambient:       f.Lights.Ambient,
			Directional:   f.Lights.Directional,
			SkyBlend:      f.Lights.SkyBlend,
			SkyColor:      f.Lights.SkyColor,
			Raining:       f.Raining,
			RainIntensity: f.RainIntensity,
			RainVisible:   f.Lights.RainVisible,
			HeadlightsOn:  f.Lights.HeadlightsOn,
			RearLightsOn:  f.Lights.RearLightsOn,
		},
		Environment: core.EnvironmentState{
			GameTime:      f.GameTime,
			DayFactor:     f.DayFactor,
			Raining:       f.Raining,
			RainIntensity: f.RainIntensity,
		},
		Parts: parts,
	}
}
