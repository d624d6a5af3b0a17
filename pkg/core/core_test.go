package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_String(t *testing.T) {
	assert.Equal(t, "......", Input{}.String())
	assert.Equal(t, "F.L...", Input{Forward: true, Left: true}.String())
	assert.Equal(t, ".B..HT", Input{Back: true, Handbrake: true, HeadlightToggle: true}.String())
}

func TestParseInput(t *testing.T) {
	all := Input{Forward: true, Back: true, Left: true, Right: true, Handbrake: true, HeadlightToggle: true}
	assert.Equal(t, all, ParseInput(all.String()))
	assert.Equal(t, Input{Right: true}, ParseInput("...R"))
	assert.Equal(t, Input{}, ParseInput("xxxxxxxx"))
}

func TestInput_Steer(t *testing.T) {
	assert.Equal(t, 1.0, Input{Left: true}.Steer())
	assert.Equal(t, -1.0, Input{Right: true}.Steer())
	assert.Equal(t, 1.0, Input{Left: true, Right: true}.Steer(), "left wins")
	assert.Zero(t, Input{Forward: true}.Steer())
}

func TestInput_Idle(t *testing.T) {
	assert.True(t, Input{}.Idle())
	assert.True(t, Input{HeadlightToggle: true}.Idle(), "the toggle is not a driving control")
	assert.False(t, Input{Handbrake: true}.Idle())
}

func TestBounds_Contains(t *testing.T) {
	b := Bounds{MinX: -1, MinZ: -2, MaxX: 1, MaxZ: 2}
	assert.True(t, b.Contains(0, 0))
	assert.True(t, b.Contains(1, -2), "edges are inside")
	assert.False(t, b.Contains(1.01, 0))
}

func TestWorldInfo_UnderFilled(t *testing.T) {
	assert.True(t, WorldInfo{Requested: 10, Placed: 9}.UnderFilled())
	assert.False(t, WorldInfo{Requested: 10, Placed: 10}.UnderFilled())
}
