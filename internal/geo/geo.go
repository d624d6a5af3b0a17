package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Recorded positions are stored as EPSG:3857 points, the same projection for
// every backend, because SQLite has no spatial awareness and the WKB has to
// round-trip through the geometry Scan functions on its own.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// maxMercatorLatitude is where EPSG:3857 stops.
const maxMercatorLatitude = 85.05112878

// Anchor is the WGS84 location of the scene origin.
type Anchor struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// ParseAnchor parses "long,lat".
func ParseAnchor(coords string) (Anchor, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return Anchor{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Anchor{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Anchor{}, ErrInvalidCoordinates
	}
	a := Anchor{Longitude: long, Latitude: lat}
	return a, a.Validate()
}

// Validate checks the anchor lies inside the projectable range.
func (a Anchor) Validate() error {
	if math.IsNaN(a.Longitude) || a.Longitude < -180 || a.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, a.Longitude)
	}
	if math.IsNaN(a.Latitude) || math.Abs(a.Latitude) > maxMercatorLatitude {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, a.Latitude)
	}
	return nil
}

// Coords3857From4326 creates a web mercator point from a longitude and latitude
func Coords3857From4326(longitude, latitude float64) (geom.Point, error) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	point, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// Projector maps scene coordinates (metres, X east, -Z north, Y up) onto
// EPSG:3857 around an Anchor. The mercator scale factor is fixed at the
// anchor latitude, which is exact enough over a scene of a few kilometres.
type Projector struct {
	anchor  Anchor
	originX float64
	originY float64
	scale   float64
	inverse func(a, b, c float64) (float64, float64, float64)
}

// NewProjector anchors the scene origin at a.
func NewProjector(a Anchor) (*Projector, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	point, err := Coords3857From4326(a.Longitude, a.Latitude)
	if err != nil {
		return nil, err
	}
	origin, ok := point.Coordinates()
	if !ok {
		return nil, ErrInvalidCoordinates
	}
	return &Projector{
		anchor:  a,
		originX: origin.X,
		originY: origin.Y,
		scale:   1 / math.Cos(mgl64.DegToRad(a.Latitude)),
		inverse: wgs84.EPSG().Transform(3857, 4326),
	}, nil
}

// Anchor returns the WGS84 origin.
func (p *Projector) Anchor() Anchor {
	return p.anchor
}

// Mercator returns the EPSG:3857 coordinates of the ground position (x, z).
func (p *Projector) Mercator(x, z float64) (float64, float64) {
	return p.originX + x*p.scale, p.originY - z*p.scale
}

// Point returns a 3D EPSG:3857 point for a scene position. Height (Y) is kept
// in metres.
func (p *Projector) Point(pos mgl64.Vec3) (geom.Point, error) {
	mx, my := p.Mercator(pos.X(), pos.Z())
	point, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: mx, Y: my},
		Z:    pos.Y(),
		Type: geom.CoordinatesType(geom.DimXYZ),
	})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ), fmt.Errorf("project %v: %w", pos, err)
	}
	return point, nil
}

// LonLat returns the WGS84 longitude and latitude of the ground position (x, z).
func (p *Projector) LonLat(x, z float64) (float64, float64) {
	mx, my := p.Mercator(x, z)
	lon, lat, _ := p.inverse(mx, my, 0)
	return lon, lat
}
