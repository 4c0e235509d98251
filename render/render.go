// Package render defines the boundary between the simulation and whatever
// displays it. The simulation describes a frame through a Surface; concrete
// surfaces live in sub-packages (term for a terminal, window for a desktop
// window) and Frame records a frame for later replay.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/geom"
)

// Palette used by the simulation.
var (
	Red   = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	Green = color.RGBA{R: 40, G: 180, B: 60, A: 255}
	Blue  = color.RGBA{R: 30, G: 60, B: 230, A: 255}
	Black = color.RGBA{A: 255}
)

// Layer is a static image drawn with its top-left corner at At.
type Layer struct {
	Image image.Image
	At    geom.Point
}

// Body is a rotated rectangle. Pos is the top-left of the unrotated
// rectangle; Angle follows the car package's heading convention.
type Body struct {
	Pos    geom.Vec
	Width  int
	Height int
	Angle  float64
	Color  color.RGBA
}

// Center returns the rectangle's centre.
func (b Body) Center() geom.Vec {
	return b.Pos.Add(geom.V(float64(b.Width)/2, float64(b.Height)/2))
}

// Corners returns the rotated rectangle's corners in drawing order.
func (b Body) Corners() [4]geom.Vec {
	c := b.Center()
	hw, hh := float64(b.Width)/2, float64(b.Height)/2
	rad := geom.Radians(b.Angle)
	sin, cos := math.Sin(rad), math.Cos(rad)
	var out [4]geom.Vec
	for i, d := range [4]geom.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}} {
		// Counter-clockwise on screen, where y grows downward.
		out[i] = c.Add(geom.V(d.X*cos+d.Y*sin, -d.X*sin+d.Y*cos))
	}
	return out
}

// BodyOf describes a car body.
func BodyOf(b *car.Body, c color.RGBA) Body {
	return Body{Pos: b.Pos, Width: b.Width, Height: b.Height, Angle: b.Angle, Color: c}
}

// Sensor is a ray drawn from its owner's centre to the bullet.
type Sensor struct {
	From, To geom.Vec
	Hit      bool
	Color    color.RGBA
}

// SensorsOf describes every ray of a fan. Idle rays that never fired are
// skipped.
func SensorsOf(owner *car.Body, fan *car.Fan, c color.RGBA) []Sensor {
	if fan == nil {
		return nil
	}
	out := make([]Sensor, 0, fan.Len())
	for _, s := range fan.Sensors {
		if !s.Fired && !s.Hit {
			continue
		}
		out = append(out, Sensor{From: owner.Center(), To: s.Pos, Hit: s.Hit, Color: c})
	}
	return out
}

// Surface receives one frame of drawing calls, ending with Present.
type Surface interface {
	DrawLayers(layers []Layer)
	DrawBody(b Body)
	DrawSensor(s Sensor)
	DrawPoints(points []geom.Vec)
	DrawStatus(lines ...string)
	Present()
}

// Nop discards everything. Training runs headless with it.
type Nop struct{}

func (Nop) DrawLayers([]Layer)    {}
func (Nop) DrawBody(Body)         {}
func (Nop) DrawSensor(Sensor)     {}
func (Nop) DrawPoints([]geom.Vec) {}
func (Nop) DrawStatus(...string)  {}
func (Nop) Present()              {}
