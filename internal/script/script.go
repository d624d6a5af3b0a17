// Package script plays back YAML input timelines for headless runs.
//
//	name: slalom
//	steps:
//	  - for: 3s
//	    hold: [forward]
//	  - for: 1.5s
//	    hold: [forward, left]
//	  - press: [headlights]
//	  - for: 2s
//	    hold: [handbrake]
package script

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/OCAP2/drivesim/internal/input"
	"github.com/OCAP2/drivesim/pkg/core"
	"gopkg.in/yaml.v3"
)

// ErrEmptyScript is returned for a script with no steps.
var ErrEmptyScript = errors.New("script has no steps")

type rawStep struct {
	For   string   `yaml:"for"`
	Hold  []string `yaml:"hold"`
	Press []string `yaml:"press"`
}

type rawScript struct {
	Name  string    `yaml:"name"`
	Steps []rawStep `yaml:"steps"`
}

// Step holds Input for Duration. Press is delivered once, on the first tick
// at or after the step starts.
type Step struct {
	Duration time.Duration
	Hold     core.Input
	Press    core.Input
}

// Script is a parsed timeline.
type Script struct {
	Name  string
	Steps []Step
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML script.
func Parse(data []byte) (*Script, error) {
	var raw rawScript
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(raw.Steps) == 0 {
		return nil, ErrEmptyScript
	}

	s := &Script{Name: raw.Name, Steps: make([]Step, 0, len(raw.Steps))}
	for i, rs := range raw.Steps {
		var step Step
		if rs.For != "" {
			d, err := time.ParseDuration(rs.For)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid duration: %w", i+1, err)
			}
			if d < 0 {
				return nil, fmt.Errorf("step %d: negative duration %s", i+1, d)
			}
			step.Duration = d
		}
		for _, name := range rs.Hold {
			a, err := input.ParseAction(name)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			if a == input.Headlight {
				return nil, fmt.Errorf("step %d: %s can only be pressed, not held", i+1, a)
			}
			input.Apply(&step.Hold, a)
		}
		for _, name := range rs.Press {
			a, err := input.ParseAction(name)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			if a != input.Headlight {
				return nil, fmt.Errorf("step %d: only headlights can be pressed, got %s", i+1, a)
			}
			input.Apply(&step.Press, a)
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

// Duration is the total length of the timeline.
func (s *Script) Duration() time.Duration {
	var total time.Duration
	for _, st := range s.Steps {
		total += st.Duration
	}
	return total
}

// Player walks a Script as elapsed time advances. It satisfies sim.InputSource.
type Player struct {
	steps  []Step
	ends   []time.Duration
	cursor int
	fired  []bool
}

// NewPlayer starts s from the beginning.
func NewPlayer(s *Script) *Player {
	p := &Player{
		steps: s.Steps,
		ends:  make([]time.Duration, len(s.Steps)),
		fired: make([]bool, len(s.Steps)),
	}
	var at time.Duration
	for i, st := range s.Steps {
		at += st.Duration
		p.ends[i] = at
	}
	return p
}

// Next returns the input active at elapsed. Presses of steps that were passed
// over since the previous call are still delivered. ok is false once elapsed
// is past the end of the last step.
func (p *Player) Next(elapsed time.Duration) (core.Input, bool) {
	var in core.Input
	press := func(i int) {
		if !p.fired[i] {
			p.fired[i] = true
			in.HeadlightToggle = in.HeadlightToggle || p.steps[i].Press.HeadlightToggle
		}
	}

	for p.cursor < len(p.steps) && elapsed >= p.ends[p.cursor] {
		press(p.cursor)
		p.cursor++
	}
	if p.cursor == len(p.steps) {
		return in, in.HeadlightToggle
	}

	press(p.cursor)
	hold := p.steps[p.cursor].Hold
	hold.HeadlightToggle = in.HeadlightToggle
	return hold, true
}
