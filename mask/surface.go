package mask

import "github.com/baldhumanity/neat-racer/geom"

// Surface is an immutable mask placed in the world at Origin. Track borders
// and finish lines are Surfaces.
type Surface struct {
	Mask   *Mask
	Origin geom.Point
}

// Place returns a Surface for m with its top-left corner at origin.
func Place(m *Mask, origin geom.Point) Surface {
	return Surface{Mask: m, Origin: origin}
}

// Collide tests footprint, with its top-left corner at world position at,
// against the surface. The returned point is in the surface's own mask
// coordinates. The offset is truncated toward zero the same way for every
// caller, so results are stable for fractional positions.
func (s Surface) Collide(footprint *Mask, at geom.Vec) (geom.Point, bool) {
	if s.Mask == nil || footprint == nil {
		return geom.Point{}, false
	}
	offset := geom.Pt(int(at.X-float64(s.Origin.X)), int(at.Y-float64(s.Origin.Y)))
	return s.Mask.Overlap(footprint, offset)
}

// World converts a point in the surface's mask coordinates to world
// coordinates.
func (s Surface) World(p geom.Point) geom.Point {
	return p.Add(s.Origin)
}

// Bounds returns the world rectangle covered by the surface as min and max
// (exclusive) corners.
func (s Surface) Bounds() (geom.Point, geom.Point) {
	if s.Mask == nil {
		return s.Origin, s.Origin
	}
	return s.Origin, s.Origin.Add(geom.Pt(s.Mask.w, s.Mask.h))
}
