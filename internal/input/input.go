// Package input turns key down/up events into per-tick control snapshots.
package input

import (
	"fmt"
	"strings"
	"sync"

	"github.com/OCAP2/drivesim/pkg/core"
)

// Action is a logical control.
type Action string

const (
	Forward   Action = "forward"
	Back      Action = "back"
	Left      Action = "left"
	Right     Action = "right"
	Handbrake Action = "handbrake"
	Headlight Action = "headlights"
)

// Actions lists every action in a stable order.
var Actions = []Action{Forward, Back, Left, Right, Handbrake, Headlight}

// ParseAction resolves an action name.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// Keymap binds lowercase key names to actions.
type Keymap map[string]Action

// DefaultKeymap is WASD plus arrows, space for the handbrake and h for the lights.
func DefaultKeymap() Keymap {
	return Keymap{
		"w":          Forward,
		"arrowup":    Forward,
		"s":          Back,
		"arrowdown":  Back,
		"a":          Left,
		"arrowleft":  Left,
		"d":          Right,
		"arrowright": Right,
		" ":          Handbrake,
		"h":          Headlight,
	}
}

// Tracker records which keys are held. KeyDown/KeyUp may be called from an
// event goroutine while Snapshot is called from the tick loop.
type Tracker struct {
	mu      sync.Mutex
	keymap  Keymap
	held    map[string]bool
	toggles int
}

// NewTracker returns a tracker using km, or DefaultKeymap when km is nil.
func NewTracker(km Keymap) *Tracker {
	if km == nil {
		km = DefaultKeymap()
	}
	return &Tracker{
		keymap: km,
		held:   make(map[string]bool),
	}
}

// KeyDown marks key as held. Auto-repeat of a held key does not re-trigger the
// headlight toggle.
func (t *Tracker) KeyDown(key string) {
	key = strings.ToLower(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.keymap[key] == Headlight && !t.held[key] {
		t.toggles++
	}
	t.held[key] = true
}

// KeyUp releases key.
func (t *Tracker) KeyUp(key string) {
	key = strings.ToLower(key)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, key)
}

// Reset releases every key, e.g. when the window loses focus.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.held)
	t.toggles = 0
}

// Snapshot returns the held controls and consumes one pending headlight press.
func (t *Tracker) Snapshot() core.Input {
	t.mu.Lock()
	defer t.mu.Unlock()

	var in core.Input
	for key := range t.held {
		if a := t.keymap[key]; a != Headlight {
			Apply(&in, a)
		}
	}
	if t.toggles > 0 {
		in.HeadlightToggle = true
		t.toggles--
	}
	return in
}

// Apply sets the flag for action on in.
func Apply(in *core.Input, action Action) {
	switch action {
	case Forward:
		in.Forward = true
	case Back:
		in.Back = true
	case Left:
		in.Left = true
	case Right:
		in.Right = true
	case Handbrake:
		in.Handbrake = true
	case Headlight:
		in.HeadlightToggle = true
	}
}
