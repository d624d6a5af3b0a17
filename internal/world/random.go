package world

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// SeedValue derives a stable per-subsystem seed from the run seed and a label.
func SeedValue(rootSeed int64, label string) int64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(rootSeed))

	hasher := fnv.New64a()
	hasher.Write(buf[:])
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewRNG returns the random stream for one labelled subsystem of a run.
func NewRNG(rootSeed int64, label string) *rand.Rand {
	return rand.New(rand.NewSource(SeedValue(rootSeed, label)))
}

func randomRange(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}
