package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slalom = `
name: slalom
steps:
  - for: 1s
    hold: [forward]
  - for: 500ms
    hold: [forward, left]
  - press: [headlights]
  - for: 1s
    hold: [Handbrake]
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(slalom))
	require.NoError(t, err)

	assert.Equal(t, "slalom", s.Name)
	require.Len(t, s.Steps, 4)
	assert.Equal(t, Step{Duration: time.Second, Hold: core.Input{Forward: true}}, s.Steps[0])
	assert.Equal(t, core.Input{Forward: true, Left: true}, s.Steps[1].Hold)
	assert.Equal(t, Step{Press: core.Input{HeadlightToggle: true}}, s.Steps[2])
	assert.Equal(t, core.Input{Handbrake: true}, s.Steps[3].Hold)
	assert.Equal(t, 2500*time.Millisecond, s.Duration())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "name: nothing\n", ErrEmptyScript.Error()},
		{"bad yaml", "steps: [", "failed to parse script"},
		{"bad duration", "steps:\n  - for: soon\n", "step 1: invalid duration"},
		{"negative duration", "steps:\n  - for: -1s\n", "step 1: negative duration"},
		{"unknown action", "steps:\n  - for: 1s\n    hold: [jump]\n", `unknown action "jump"`},
		{"held headlights", "steps:\n  - for: 1s\n    hold: [headlights]\n", "can only be pressed"},
		{"pressed forward", "steps:\n  - press: [forward]\n", "only headlights can be pressed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Parse([]byte("steps: []\n"))
	assert.ErrorIs(t, err, ErrEmptyScript)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slalom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(slalom), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read script")
}

func TestPlayer_Timeline(t *testing.T) {
	s, err := Parse([]byte(slalom))
	require.NoError(t, err)
	p := NewPlayer(s)

	in, ok := p.Next(0)
	require.True(t, ok)
	assert.Equal(t, core.Input{Forward: true}, in)

	in, ok = p.Next(999 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, core.Input{Forward: true}, in)

	in, ok = p.Next(time.Second)
	require.True(t, ok)
	assert.Equal(t, core.Input{Forward: true, Left: true}, in)

	// crossing the zero-length press step delivers the toggle once
	in, ok = p.Next(1600 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, core.Input{Handbrake: true, HeadlightToggle: true}, in)

	in, ok = p.Next(1700 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, core.Input{Handbrake: true}, in)

	_, ok = p.Next(2500 * time.Millisecond)
	assert.False(t, ok)
}

func TestPlayer_TrailingPressIsDelivered(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - for: 100ms\n    hold: [forward]\n  - press: [headlights]\n"))
	require.NoError(t, err)
	p := NewPlayer(s)

	_, ok := p.Next(0)
	require.True(t, ok)

	in, ok := p.Next(200 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, core.Input{HeadlightToggle: true}, in)

	_, ok = p.Next(300 * time.Millisecond)
	assert.False(t, ok)
}
