// Package geom holds the small amount of 2D math shared by bodies, sensors
// and tracks.
//
// All coordinates are screen coordinates: x grows to the right and y grows
// downward. Headings are in degrees and are measured from the upward
// vertical axis, increasing counter-clockwise, so a heading of 0 moves a body
// up the screen and a heading of 90 moves it left.
package geom

import "math"

// Vec is a point or displacement with float coordinates.
type Vec struct {
	X, Y float64
}

// V is shorthand for Vec{X: x, Y: y}.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v*k.
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and o.
func (v Vec) Dist(o Vec) float64 { return math.Hypot(o.X-v.X, o.Y-v.Y) }

// Point truncates v toward zero into integer mask coordinates.
func (v Vec) Point() Point { return Point{int(v.X), int(v.Y)} }

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p+o.
func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

// Vec converts p to float coordinates.
func (p Point) Vec() Vec { return Vec{float64(p.X), float64(p.Y)} }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Step returns the displacement of something travelling at speed v along
// heading deg for one tick. The vertical component is subtracted from y and
// the horizontal one from x:
//
//	dy = -cos(deg)*v
//	dx = -sin(deg)*v
func Step(deg, v float64) Vec {
	rad := Radians(deg)
	return Vec{X: -math.Sin(rad) * v, Y: -math.Cos(rad) * v}
}

// Bearing returns the heading, in degrees, that points from "from" toward
// "to" under the Step convention. The result lies in (-180, 180].
func Bearing(from, to Vec) float64 {
	d := to.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return NormalizeAngle(Degrees(math.Atan2(-d.X, -d.Y)))
}

// NormalizeAngle folds deg into the half-open range (-180, 180].
func NormalizeAngle(deg float64) float64 {
	m := math.Mod(180-deg, 360)
	if m < 0 {
		m += 360
	}
	return 180 - m
}
