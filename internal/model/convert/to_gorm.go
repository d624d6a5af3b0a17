// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/OCAP2/drivesim/internal/geo"
	"github.com/OCAP2/drivesim/internal/model"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// rgbToHex formats a [0, 1] colour as #rrggbb.
func rgbToHex(c core.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// position returns the projected point, or an empty point without a projector
// or when the position cannot be projected.
func position(proj *geo.Projector, pos mgl64.Vec3) geom.Point {
	if proj == nil {
		return geom.NewEmptyPoint(geom.DimXYZ)
	}
	point, err := proj.Point(pos)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ)
	}
	return point
}

// mapToJSON marshals a string-keyed map for a JSON column.
func mapToJSON[V any](m map[string]V) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToRun converts a core.Run to a GORM model.Run. The anchor of proj, if
// any, is stored with the run so positions can be re-projected later.
func CoreToRun(r core.Run, proj *geo.Projector) model.Run {
	run := model.Run{
		ID:        r.ID,
		Name:      r.Name,
		Seed:      r.Seed,
		StartTime: r.StartTime,
		Version:   r.Version,
		Config:    mapToJSON(r.Config),
		World: model.WorldInfo{
			Seed:           r.World.Seed,
			HalfExtent:     r.World.HalfExtent,
			GroundY:        r.World.GroundY,
			Spacing:        r.World.Spacing,
			SpawnClearance: r.World.SpawnClearance,
			Requested:      r.World.Requested,
			Placed:         r.World.Placed,
			Attempts:       r.World.Attempts,
		},
		Track: geom.LineString{},
	}
	if proj != nil {
		a := proj.Anchor()
		run.Longitude, run.Latitude = a.Longitude, a.Latitude
	}
	return run
}

// CoreToSummary converts a run summary into the embedded GORM columns.
func CoreToSummary(s core.RunSummary) model.Summary {
	return model.Summary{
		Ticks:         s.Ticks,
		Elapsed:       s.Elapsed,
		WallTimeMs:    s.WallTime.Milliseconds(),
		Distance:      s.Distance,
		MaxSpeed:      s.MaxSpeed,
		ClampedDeltas: s.ClampedDeltas,
	}
}

// EndTime is the wall-clock end of a run, derived from its start and summary.
func EndTime(r core.Run, s core.RunSummary) sql.NullTime {
	return sql.NullTime{Time: r.StartTime.Add(s.WallTime), Valid: true}
}

// CoreToObstacle converts a core.Obstacle to a GORM model.Obstacle.
// core.Obstacle.ID maps to GORM Obstacle.ObstacleID.
func CoreToObstacle(o core.Obstacle, runID uint, groundY float64, proj *geo.Projector) model.Obstacle {
	return model.Obstacle{
		RunID:        runID,
		ObstacleID:   o.ID,
		X:            o.X,
		Z:            o.Z,
		Position:     position(proj, mgl64.Vec3{o.X, groundY, o.Z}),
		MinX:         o.Footprint.MinX,
		MinZ:         o.Footprint.MinZ,
		MaxX:         o.Footprint.MaxX,
		MaxZ:         o.Footprint.MaxZ,
		TrunkRadius:  o.TrunkRadius,
		TrunkHeight:  o.TrunkHeight,
		CanopyRadius: o.CanopyRadius,
		CanopyHeight: o.CanopyHeight,
		LeafOffset:   o.LeafOffset,
		LeafColor:    rgbToHex(o.LeafColor),
	}
}

// CoreToFrame converts a core.Frame to a GORM model.Frame.
func CoreToFrame(f core.Frame, runID uint, proj *geo.Projector) model.Frame {
	pos := f.Vehicle.Position
	return model.Frame{
		RunID:     runID,
		Tick:      f.Tick,
		Time:      f.Time,
		Elapsed:   f.Elapsed,
		DT:        f.DT,
		Input:     f.Input.String(),
		Velocity:  f.Snapshot.Velocity,
		Distance:  f.Snapshot.DistanceTraveled,
		X:         pos.X(),
		Y:         pos.Y(),
		Z:         pos.Z(),
		Position:  position(proj, pos),
		Heading:   f.Vehicle.Heading,
		Steering:  f.Vehicle.Steering,
		CameraX:   f.Camera.Position.X(),
		CameraY:   f.Camera.Position.Y(),
		CameraZ:   f.Camera.Position.Z(),
		CameraFOV: f.Camera.FOV,
		Lights: model.Lights{
			Ambient:      f.Lights.Ambient,
			Directional:  f.Lights.Directional,
			SkyBlend:     f.Lights.SkyBlend,
			SkyColor:     f.Lights.SkyColor,
			RainVisible:  f.Lights.RainVisible,
			HeadlightsOn: f.Lights.HeadlightsOn,
			RearLightsOn: f.Lights.RearLightsOn,
		},
		GameTime:      f.Environment.GameTime,
		DayFactor:     f.Environment.DayFactor,
		Raining:       f.Environment.Raining,
		RainIntensity: f.Environment.RainIntensity,
		Parts:         mapToJSON(f.Parts),
	}
}
