package term

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/baldhumanity/neat-racer/car"
)

// DefaultHold covers the gap before a terminal's key auto-repeat starts.
const DefaultHold = 550 * time.Millisecond

type intent int

const (
	left intent = iota
	right
	forward
	backward
	intents
)

// Keys tracks which driving keys are held. Terminals report presses but not
// releases, so a key counts as held until Hold has passed since its last
// press or repeat. Arrow keys and WASD both steer.
type Keys struct {
	Hold time.Duration

	mu      sync.Mutex
	pressed [intents]time.Time
	now     func() time.Time
}

// NewKeys returns an idle keyboard.
func NewKeys() *Keys {
	return &Keys{Hold: DefaultHold, now: time.Now}
}

// Handle records a key event and reports false when it asks to quit.
func (k *Keys) Handle(ev *tcell.EventKey) bool {
	var in intent
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		in = left
	case tcell.KeyRight:
		in = right
	case tcell.KeyUp:
		in = forward
	case tcell.KeyDown:
		in = backward
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'a', 'A':
			in = left
		case 'd', 'D':
			in = right
		case 'w', 'W':
			in = forward
		case 's', 'S':
			in = backward
		case ' ':
			k.Release()
			return true
		default:
			return true
		}
	default:
		return true
	}

	k.mu.Lock()
	k.pressed[in] = k.now()
	k.mu.Unlock()
	return true
}

// Release drops every held key.
func (k *Keys) Release() {
	k.mu.Lock()
	k.pressed = [intents]time.Time{}
	k.mu.Unlock()
}

// Control implements sim.Input.
func (k *Keys) Control() car.Control {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	held := func(in intent) bool {
		t := k.pressed[in]
		return !t.IsZero() && now.Sub(t) < k.Hold
	}
	return car.Control{
		Left:     held(left),
		Right:    held(right),
		Forward:  held(forward),
		Backward: held(backward),
	}
}
