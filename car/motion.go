package car

import (
	"math"

	"github.com/baldhumanity/neat-racer/geom"
)

// Control is the set of driving intents for one tick.
type Control struct {
	Left, Right       bool
	Forward, Backward bool
}

// Throttle reports whether the control asks for acceleration either way.
func (c Control) Throttle() bool { return c.Forward || c.Backward }

// Motion decides how a body moves on one tick.
type Motion interface {
	Advance(b *Body, ctl Control)
}

// Manual applies a Control directly. Both turns may apply in the same tick,
// as may both throttle directions; with no throttle the body coasts down.
type Manual struct{}

// Advance applies ctl to b.
func (Manual) Advance(b *Body, ctl Control) {
	if ctl.Left {
		b.Rotate(TurnLeft)
	}
	if ctl.Right {
		b.Rotate(TurnRight)
	}
	if ctl.Forward {
		b.Forward()
	}
	if ctl.Backward {
		b.Backward()
	}
	if !ctl.Throttle() {
		b.ReduceSpeed()
	}
}

// Path steers a body toward each waypoint in turn at full speed, ignoring
// any Control. Once the last waypoint is reached it stops moving.
type Path struct {
	points  []geom.Vec
	current int
}

// NewPath returns a follower for the given waypoints.
func NewPath(points []geom.Vec) *Path {
	return &Path{points: append([]geom.Vec(nil), points...)}
}

// Points returns the waypoints.
func (p *Path) Points() []geom.Vec { return p.points }

// Current returns the index of the waypoint being chased.
func (p *Path) Current() int { return p.current }

// Done reports whether every waypoint has been reached.
func (p *Path) Done() bool { return p.current >= len(p.points) }

// Reset restarts the route from the first waypoint.
func (p *Path) Reset() { p.current = 0 }

// Advance steers b toward the current waypoint at full speed; ctl is
// ignored.
func (p *Path) Advance(b *Body, _ Control) {
	if p.Done() {
		return
	}
	p.steer(b)
	p.updateCursor(b)
	b.Vel = b.MaxVel
	b.Move()
}

// steer turns by at most RotVel toward the current waypoint.
func (p *Path) steer(b *Body) {
	target := p.points[p.current]
	desired := geom.Bearing(b.Pos, target)
	diff := geom.NormalizeAngle(b.Angle - desired)
	turn := math.Min(b.RotVel, math.Abs(diff))
	if diff > 0 {
		b.Angle -= turn
	} else {
		b.Angle += turn
	}
}

func (p *Path) updateCursor(b *Body) {
	if b.Contains(p.points[p.current]) {
		p.current++
	}
}
