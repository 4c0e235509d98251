package sim

import (
	"context"
	"time"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/render"
)

// Runner is a race that advances one tick at a time.
type Runner interface {
	// Advance runs one tick with the given control and reports whether the
	// race is still going.
	Advance(ctl car.Control) bool
	Render(s render.Surface)
}

// Input supplies the keyboard control for the current tick.
type Input interface {
	Control() car.Control
}

// Pacer waits between ticks.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Ticker paces the loop at a fixed rate.
type Ticker struct {
	t *time.Ticker
}

// NewTicker returns a pacer running fps ticks per second.
func NewTicker(fps int) *Ticker {
	return &Ticker{t: time.NewTicker(time.Second / time.Duration(fps))}
}

// Wait blocks until the next tick or until ctx is done.
func (p *Ticker) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.t.C:
		return nil
	}
}

// Stop releases the ticker.
func (p *Ticker) Stop() { p.t.Stop() }

// Unpaced runs ticks back to back, only checking for cancellation.
type Unpaced struct{}

func (Unpaced) Wait(ctx context.Context) error { return ctx.Err() }

// Loop drives r until it finishes or ctx is cancelled. A nil input drives
// with an empty control; a nil surface skips drawing.
func Loop(ctx context.Context, r Runner, in Input, s render.Surface, p Pacer) error {
	if p == nil {
		p = Unpaced{}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ctl car.Control
		if in != nil {
			ctl = in.Control()
		}
		running := r.Advance(ctl)
		if s != nil {
			r.Render(s)
		}
		if !running {
			return nil
		}
		if err := p.Wait(ctx); err != nil {
			return err
		}
	}
}
