package input

import (
	"sync"
	"testing"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_HeldKeys(t *testing.T) {
	tr := NewTracker(nil)

	tr.KeyDown("W")
	tr.KeyDown("ArrowLeft")
	tr.KeyDown(" ")
	assert.Equal(t, core.Input{Forward: true, Left: true, Handbrake: true}, tr.Snapshot())
	// level-triggered: still held on the next tick
	assert.Equal(t, core.Input{Forward: true, Left: true, Handbrake: true}, tr.Snapshot())

	tr.KeyUp("w")
	tr.KeyUp("arrowleft")
	tr.KeyUp(" ")
	assert.Equal(t, core.Input{}, tr.Snapshot())
}

func TestTracker_AliasesShareAnAction(t *testing.T) {
	tr := NewTracker(nil)
	tr.KeyDown("s")
	tr.KeyDown("arrowdown")
	tr.KeyUp("s")
	assert.True(t, tr.Snapshot().Back, "arrowdown still held")
}

func TestTracker_HeadlightToggleIsEdgeTriggered(t *testing.T) {
	tr := NewTracker(nil)

	tr.KeyDown("h")
	tr.KeyDown("h") // auto-repeat
	assert.True(t, tr.Snapshot().HeadlightToggle)
	assert.False(t, tr.Snapshot().HeadlightToggle, "held key fires once")

	tr.KeyUp("h")
	tr.KeyDown("h")
	tr.KeyUp("h")
	tr.KeyDown("h")
	tr.KeyUp("h")
	assert.True(t, tr.Snapshot().HeadlightToggle)
	assert.True(t, tr.Snapshot().HeadlightToggle, "two quick presses are both delivered")
	assert.False(t, tr.Snapshot().HeadlightToggle)
}

func TestTracker_UnknownKeysIgnored(t *testing.T) {
	tr := NewTracker(nil)
	tr.KeyDown("q")
	assert.Equal(t, core.Input{}, tr.Snapshot())
}

func TestTracker_CustomKeymap(t *testing.T) {
	tr := NewTracker(Keymap{"i": Forward, "l": Headlight})
	tr.KeyDown("i")
	tr.KeyDown("w")
	tr.KeyDown("l")
	assert.Equal(t, core.Input{Forward: true, HeadlightToggle: true}, tr.Snapshot())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(nil)
	tr.KeyDown("w")
	tr.KeyDown("h")
	tr.Reset()
	assert.Equal(t, core.Input{}, tr.Snapshot())
}

func TestTracker_ConcurrentEvents(t *testing.T) {
	tr := NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tr.KeyDown("d")
				tr.Snapshot()
				tr.KeyUp("d")
			}
		}()
	}
	wg.Wait()
	assert.False(t, tr.Snapshot().Right)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Forward ")
	require.NoError(t, err)
	assert.Equal(t, Forward, a)

	_, err = ParseAction("jump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "jump"`)
}

func TestApply(t *testing.T) {
	var in core.Input
	for _, a := range Actions {
		Apply(&in, a)
	}
	assert.Equal(t, core.Input{Forward: true, Back: true, Left: true, Right: true, Handbrake: true, HeadlightToggle: true}, in)
}
