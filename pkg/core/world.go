// pkg/core/world.go
package core

// Bounds is an axis-aligned rectangle on the ground plane (X/Z).
type Bounds struct {
	MinX float64 `json:"minX" yaml:"minX"`
	MinZ float64 `json:"minZ" yaml:"minZ"`
	MaxX float64 `json:"maxX" yaml:"maxX"`
	MaxZ float64 `json:"maxZ" yaml:"maxZ"`
}

// Contains reports whether (x, z) lies inside or on the edge of b.
func (b Bounds) Contains(x, z float64) bool {
	return x >= b.MinX && x <= b.MaxX && z >= b.MinZ && z <= b.MaxZ
}

// Obstacle is a placed tree. Immutable once generated.
type Obstacle struct {
	ID           uint    `json:"id" yaml:"id"`
	X            float64 `json:"x" yaml:"x"`
	Z            float64 `json:"z" yaml:"z"`
	Footprint    Bounds  `json:"footprint" yaml:"footprint"`
	TrunkRadius  float64 `json:"trunkRadius" yaml:"trunkRadius"`
	TrunkHeight  float64 `json:"trunkHeight" yaml:"trunkHeight"`
	CanopyRadius float64 `json:"canopyRadius" yaml:"canopyRadius"`
	CanopyHeight float64 `json:"canopyHeight" yaml:"canopyHeight"`
	LeafOffset   float64 `json:"leafOffset" yaml:"leafOffset"`
	LeafColor    RGB     `json:"leafColor" yaml:"leafColor"`
}

// WorldInfo describes a generated world.
type WorldInfo struct {
	Seed           int64   `json:"seed" yaml:"seed"`
	HalfExtent     float64 `json:"halfExtent" yaml:"halfExtent"`
	GroundY        float64 `json:"groundY" yaml:"groundY"`
	Spacing        float64 `json:"spacing" yaml:"spacing"`
	SpawnClearance float64 `json:"spawnClearance" yaml:"spawnClearance"`
	Requested      int     `json:"requested" yaml:"requested"`
	Placed         int     `json:"placed" yaml:"placed"`
	Attempts       int     `json:"attempts" yaml:"attempts"`
}

// UnderFilled reports whether the sampler gave up before reaching the requested count.
func (w WorldInfo) UnderFilled() bool {
	return w.Placed < w.Requested
}
