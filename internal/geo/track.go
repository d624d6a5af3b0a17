package geo

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Track projects a sequence of scene positions into a 2D EPSG:3857 line.
// Consecutive duplicates are dropped so a parked vehicle does not produce
// zero-length segments.
func (p *Projector) Track(positions []mgl64.Vec3) (geom.LineString, error) {
	flat := make([]float64, 0, len(positions)*2)
	var lastX, lastY float64
	for i, pos := range positions {
		x, y := p.Mercator(pos.X(), pos.Z())
		if i > 0 && x == lastX && y == lastY {
			continue
		}
		flat = append(flat, x, y)
		lastX, lastY = x, y
	}

	if len(flat) < 4 {
		return geom.LineString{}, fmt.Errorf("track must have at least 2 distinct points, got %d", len(flat)/2)
	}

	seq := geom.NewSequence(flat, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build track: %w", err)
	}
	return ls, nil
}
