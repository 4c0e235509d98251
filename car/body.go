// Package car implements the moving bodies of the race: the shared physics
// body, the bullet sensors fired from it, and the motion strategies that
// decide what a car does on each tick.
package car

import (
	"math"
	"sync"

	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/mask"
)

// Turn selects a rotation direction.
type Turn int

const (
	// TurnLeft increases the heading (counter-clockwise on screen).
	TurnLeft Turn = iota + 1
	// TurnRight decreases the heading.
	TurnRight
)

// Spec describes the static properties of a body.
type Spec struct {
	MaxVelocity      float64
	RotationVelocity float64 // degrees per tick
	Acceleration     float64
	Width, Height    int
	Start            geom.Vec
	StartAngle       float64
}

// Body is a rectangular moving body. Pos is the top-left corner of the
// unrotated rectangle; rotation happens about its centre.
type Body struct {
	Pos    geom.Vec
	Angle  float64 // degrees, unbounded
	Vel    float64
	MaxVel float64
	RotVel float64
	Accel  float64
	Width  int
	Height int

	start      geom.Vec
	startAngle float64
}

// NewBody creates a body resting at Spec.Start.
func NewBody(spec Spec) Body {
	return Body{
		Pos:        spec.Start,
		Angle:      spec.StartAngle,
		MaxVel:     spec.MaxVelocity,
		RotVel:     spec.RotationVelocity,
		Accel:      spec.Acceleration,
		Width:      spec.Width,
		Height:     spec.Height,
		start:      spec.Start,
		startAngle: spec.StartAngle,
	}
}

// Rotate turns the body by its rotation speed.
func (b *Body) Rotate(t Turn) {
	switch t {
	case TurnLeft:
		b.Angle += b.RotVel
	case TurnRight:
		b.Angle -= b.RotVel
	}
}

// Forward accelerates up to MaxVel and moves.
func (b *Body) Forward() {
	b.Vel = math.Min(b.Vel+b.Accel, b.MaxVel)
	b.Move()
}

// Backward decelerates down to -MaxVel/2 and moves.
func (b *Body) Backward() {
	b.Vel = math.Max(b.Vel-b.Accel, -b.MaxVel/2)
	b.Move()
}

// ReduceSpeed applies rolling friction: half the acceleration is taken off
// the velocity, never going below zero, and the body moves.
func (b *Body) ReduceSpeed() {
	b.Vel = math.Max(b.Vel-b.Accel/2, 0)
	b.Move()
}

// Bounce reverses the velocity and moves, pushing the body back out of
// whatever it drove into.
func (b *Body) Bounce() {
	b.Vel = -b.Vel
	b.Move()
}

// Move integrates the position for one tick at the current velocity.
func (b *Body) Move() {
	b.Pos = b.Pos.Add(geom.Step(b.Angle, b.Vel))
}

// Reset puts the body back at its start pose with zero velocity.
func (b *Body) Reset() {
	b.Pos = b.start
	b.Angle = b.startAngle
	b.Vel = 0
}

// Start returns the start position.
func (b *Body) Start() geom.Vec { return b.start }

// Center returns the centre of the body.
func (b *Body) Center() geom.Vec {
	return b.Pos.Add(geom.V(float64(b.Width)/2, float64(b.Height)/2))
}

// Contains reports whether p lies inside the unrotated bounding rectangle.
// The rectangle is truncated to whole pixels first.
func (b *Body) Contains(p geom.Vec) bool {
	x, y := math.Trunc(b.Pos.X), math.Trunc(b.Pos.Y)
	return p.X >= x && p.X < x+float64(b.Width) && p.Y >= y && p.Y < y+float64(b.Height)
}

// Footprint returns the rotated collision mask of the body and the world
// position of its top-left corner.
func (b *Body) Footprint() (*mask.Mask, geom.Vec) {
	m, off := footprint(b.Width, b.Height, b.Angle)
	return m, b.Pos.Add(off)
}

// Collide tests the rotated footprint against s and returns the first
// overlapping point in s's mask coordinates.
func (b *Body) Collide(s mask.Surface) (geom.Point, bool) {
	m, at := b.Footprint()
	return s.Collide(m, at)
}

type footprintKey struct {
	w, h, deg int
}

type footprintEntry struct {
	mask   *mask.Mask
	offset geom.Vec
}

var footprints = struct {
	sync.RWMutex
	m map[footprintKey]footprintEntry
}{m: make(map[footprintKey]footprintEntry)}

// footprint returns a cached rotated mask, quantised to whole degrees.
func footprint(w, h int, angle float64) (*mask.Mask, geom.Vec) {
	deg := int(math.Round(geom.NormalizeAngle(angle)))
	if deg == -180 {
		deg = 180
	}
	key := footprintKey{w, h, deg}

	footprints.RLock()
	e, ok := footprints.m[key]
	footprints.RUnlock()
	if ok {
		return e.mask, e.offset
	}

	m, off := mask.RotatedRect(w, h, float64(deg))
	footprints.Lock()
	footprints.m[key] = footprintEntry{mask: m, offset: off}
	footprints.Unlock()
	return m, off
}
