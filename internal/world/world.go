// Package world builds the static obstacle field the vehicle drives through.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/OCAP2/drivesim/internal/placement"
	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/peterstace/simplefeatures/rtree"
)

// TreeShape holds the ranges used to decorate each placed tree.
type TreeShape struct {
	TrunkRadius     float64
	TrunkHeight     float64
	CanopyRadiusMin float64
	CanopyRadiusMax float64
	CanopyHeightMin float64
	CanopyHeightMax float64
	LeafOffsetMin   float64
	LeafOffsetMax   float64
	LeafRedMin      float64
	LeafRedMax      float64
	LeafGreenMin    float64
	LeafGreenMax    float64
	LeafBlueMin     float64
	LeafBlueMax     float64
}

// Config describes the world to generate.
type Config struct {
	MinCount   int
	MaxCount   int
	HalfExtent float64 // obstacles are placed in [-HalfExtent, HalfExtent] on both axes
	Spacing    float64
	Clearance  float64 // keep-out radius around Spawn
	Spawn      placement.Point
	GroundY    float64
	Tree       TreeShape
}

// DefaultTreeShape matches the stock forest.
func DefaultTreeShape() TreeShape {
	return TreeShape{
		TrunkRadius:     0.1,
		TrunkHeight:     2.5,
		CanopyRadiusMin: 0.5,
		CanopyRadiusMax: 0.6,
		CanopyHeightMin: 2,
		CanopyHeightMax: 2.2,
		LeafOffsetMin:   1,
		LeafOffsetMax:   2.1,
		LeafRedMin:      0.1,
		LeafRedMax:      0.2,
		LeafGreenMin:    0.6,
		LeafGreenMax:    0.9,
		LeafBlueMin:     0.1,
		LeafBlueMax:     0.2,
	}
}

// DefaultConfig is the stock 1000x1000 forest.
func DefaultConfig() Config {
	return Config{
		MinCount:   750,
		MaxCount:   1200,
		HalfExtent: 500,
		Spacing:    12,
		Clearance:  25,
		GroundY:    -0.25,
		Tree:       DefaultTreeShape(),
	}
}

// Validate reports every violated range.
func (c Config) Validate() error {
	var errs []error
	if c.MinCount < 0 {
		errs = append(errs, fmt.Errorf("world.minCount must not be negative, got %d", c.MinCount))
	}
	if c.MinCount > c.MaxCount {
		errs = append(errs, fmt.Errorf("world.minCount %d exceeds world.maxCount %d", c.MinCount, c.MaxCount))
	}
	if c.HalfExtent <= 0 {
		errs = append(errs, fmt.Errorf("world.halfExtent must be positive, got %.3f", c.HalfExtent))
	}
	if c.Spacing < 0 {
		errs = append(errs, fmt.Errorf("world.spacing must not be negative, got %.3f", c.Spacing))
	}
	if c.Clearance < 0 {
		errs = append(errs, fmt.Errorf("world.clearance must not be negative, got %.3f", c.Clearance))
	}

	ranges := []struct {
		name     string
		min, max float64
	}{
		{"canopyRadius", c.Tree.CanopyRadiusMin, c.Tree.CanopyRadiusMax},
		{"canopyHeight", c.Tree.CanopyHeightMin, c.Tree.CanopyHeightMax},
		{"leafOffset", c.Tree.LeafOffsetMin, c.Tree.LeafOffsetMax},
		{"leafRed", c.Tree.LeafRedMin, c.Tree.LeafRedMax},
		{"leafGreen", c.Tree.LeafGreenMin, c.Tree.LeafGreenMax},
		{"leafBlue", c.Tree.LeafBlueMin, c.Tree.LeafBlueMax},
	}
	for _, r := range ranges {
		if r.min > r.max {
			errs = append(errs, fmt.Errorf("world.tree.%s min %.3f exceeds max %.3f", r.name, r.min, r.max))
		}
	}
	return errors.Join(errs...)
}

// World is the generated obstacle set plus a read-only spatial index over it.
type World struct {
	obstacles []core.Obstacle
	index     *rtree.RTree
	info      core.WorldInfo
}

// Generate picks a tree count in [MinCount, MaxCount], scatters that many
// points with the placement sampler and decorates each as a tree. Under-fill
// is reported through Info, not as an error.
func Generate(cfg Config, seed int64) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := NewRNG(seed, "world.trees")
	count := cfg.MinCount + rng.Intn(cfg.MaxCount-cfg.MinCount+1)

	res := placement.Sample(rng, placement.Constraints{
		Count:     count,
		Min:       -cfg.HalfExtent,
		Max:       cfg.HalfExtent,
		Spacing:   cfg.Spacing,
		Origin:    cfg.Spawn,
		Clearance: cfg.Clearance,
	})

	decorRNG := NewRNG(seed, "world.decor")
	points := res.Points()
	obstacles := make([]core.Obstacle, len(points))
	items := make([]rtree.BulkItem, len(points))
	for i, p := range points {
		obstacles[i] = decorate(cfg.Tree, decorRNG, uint(i+1), p)
		items[i] = rtree.BulkItem{Box: toBox(obstacles[i].Footprint), RecordID: i}
	}

	return &World{
		obstacles: obstacles,
		index:     rtree.BulkLoad(items),
		info: core.WorldInfo{
			Seed:           seed,
			HalfExtent:     cfg.HalfExtent,
			GroundY:        cfg.GroundY,
			Spacing:        cfg.Spacing,
			SpawnClearance: cfg.Clearance,
			Requested:      res.Requested(),
			Placed:         res.Len(),
			Attempts:       res.Attempts(),
		},
	}, nil
}

func decorate(shape TreeShape, rng *rand.Rand, id uint, p placement.Point) core.Obstacle {
	canopy := randomRange(rng, shape.CanopyRadiusMin, shape.CanopyRadiusMax)
	o := core.Obstacle{
		ID:           id,
		X:            p.X,
		Z:            p.Z,
		TrunkRadius:  shape.TrunkRadius,
		TrunkHeight:  shape.TrunkHeight,
		CanopyRadius: canopy,
		CanopyHeight: randomRange(rng, shape.CanopyHeightMin, shape.CanopyHeightMax),
		LeafOffset:   randomRange(rng, shape.LeafOffsetMin, shape.LeafOffsetMax),
		LeafColor: core.RGB{
			R: randomRange(rng, shape.LeafRedMin, shape.LeafRedMax),
			G: randomRange(rng, shape.LeafGreenMin, shape.LeafGreenMax),
			B: randomRange(rng, shape.LeafBlueMin, shape.LeafBlueMax),
		},
	}

	reach := max(canopy, shape.TrunkRadius)
	o.Footprint = core.Bounds{
		MinX: p.X - reach,
		MinZ: p.Z - reach,
		MaxX: p.X + reach,
		MaxZ: p.Z + reach,
	}
	return o
}

func toBox(b core.Bounds) rtree.Box {
	return rtree.Box{MinX: b.MinX, MinY: b.MinZ, MaxX: b.MaxX, MaxY: b.MaxZ}
}

// Info describes the generation run.
func (w *World) Info() core.WorldInfo {
	return w.info
}

// Len is the number of placed obstacles.
func (w *World) Len() int {
	return len(w.obstacles)
}

// Obstacles returns a copy of every obstacle in placement order.
func (w *World) Obstacles() []core.Obstacle {
	out := make([]core.Obstacle, len(w.obstacles))
	copy(out, w.obstacles)
	return out
}

// Query returns the obstacles whose footprint intersects b.
func (w *World) Query(b core.Bounds) []core.Obstacle {
	var found []core.Obstacle
	_ = w.index.RangeSearch(toBox(b), func(id int) error {
		found = append(found, w.obstacles[id])
		return nil
	})
	return found
}

// Within returns the obstacles whose trunk centre lies within radius of (x, z).
func (w *World) Within(x, z, radius float64) []core.Obstacle {
	candidates := w.Query(core.Bounds{MinX: x - radius, MinZ: z - radius, MaxX: x + radius, MaxZ: z + radius})
	found := candidates[:0]
	for _, o := range candidates {
		dx, dz := o.X-x, o.Z-z
		if dx*dx+dz*dz <= radius*radius {
			found = append(found, o)
		}
	}
	return found
}

// Nearest returns the obstacle whose footprint is closest to (x, z).
func (w *World) Nearest(x, z float64) (core.Obstacle, bool) {
	id, ok := w.index.Nearest(rtree.Box{MinX: x, MinY: z, MaxX: x, MaxY: z})
	if !ok {
		return core.Obstacle{}, false
	}
	return w.obstacles[id], true
}
