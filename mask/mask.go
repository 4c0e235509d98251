// Package mask implements pixel-occupancy bitmaps and the overlap query
// used for every collision in the simulation: car against border, car
// against finish line and sensor against border.
package mask

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"math/bits"

	"github.com/baldhumanity/neat-racer/geom"
)

// ErrEmpty is returned when a mask would have no area.
var ErrEmpty = errors.New("mask: zero width or height")

// AlphaThreshold is the alpha value above which an image pixel is solid.
const AlphaThreshold = 127

// Mask is a bit-packed occupancy bitmap. Rows are stored as runs of 64-bit
// words; bit x%64 of word x/64 is pixel x.
type Mask struct {
	w, h   int
	stride int // words per row
	bits   []uint64
}

// New returns an empty w×h mask.
func New(w, h int) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	stride := (w + 63) / 64
	return &Mask{w: w, h: h, stride: stride, bits: make([]uint64, stride*h)}
}

// Filled returns a w×h mask with every pixel set.
func Filled(w, h int) *Mask {
	m := New(w, h)
	m.Fill()
	return m
}

// FromImage builds a mask from img, setting every pixel whose alpha is above
// AlphaThreshold. The mask origin is img.Bounds().Min.
func FromImage(img image.Image) (*Mask, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmpty
	}
	m := New(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a>>8 > AlphaThreshold {
				m.Set(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	return m, nil
}

// Size returns the mask dimensions.
func (m *Mask) Size() (w, h int) { return m.w, m.h }

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.w }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.h }

func (m *Mask) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.w && y < m.h
}

// Get reports whether pixel (x, y) is set. Out-of-range pixels are unset.
func (m *Mask) Get(x, y int) bool {
	if !m.inside(x, y) {
		return false
	}
	return m.bits[y*m.stride+x>>6]&(1<<(uint(x)&63)) != 0
}

// Set marks pixel (x, y). Out-of-range pixels are ignored.
func (m *Mask) Set(x, y int) {
	if !m.inside(x, y) {
		return
	}
	m.bits[y*m.stride+x>>6] |= 1 << (uint(x) & 63)
}

// Clear unmarks pixel (x, y).
func (m *Mask) Clear(x, y int) {
	if !m.inside(x, y) {
		return
	}
	m.bits[y*m.stride+x>>6] &^= 1 << (uint(x) & 63)
}

// Fill sets every pixel.
func (m *Mask) Fill() {
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			m.Set(x, y)
		}
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Bytes serialises the mask dimensions and bits, little endian. Two masks
// with equal Bytes are pixel-identical.
func (m *Mask) Bytes() []byte {
	out := make([]byte, 16+8*len(m.bits))
	binary.LittleEndian.PutUint64(out[0:], uint64(m.w))
	binary.LittleEndian.PutUint64(out[8:], uint64(m.h))
	for i, w := range m.bits {
		binary.LittleEndian.PutUint64(out[16+8*i:], w)
	}
	return out
}

// Overlap reports the first pixel, in m's coordinates, set in both m and
// other when other's top-left corner is placed at offset. Pixels are scanned
// row by row, left to right.
func (m *Mask) Overlap(other *Mask, offset geom.Point) (geom.Point, bool) {
	x0 := max(0, offset.X)
	y0 := max(0, offset.Y)
	x1 := min(m.w, offset.X+other.w)
	y1 := min(m.h, offset.Y+other.h)
	if x0 >= x1 || y0 >= y1 {
		return geom.Point{}, false
	}
	for y := y0; y < y1; y++ {
		oy := y - offset.Y
		for x := x0; x < x1; {
			// Skip whole empty words of the receiver quickly.
			word := m.bits[y*m.stride+x>>6] >> (uint(x) & 63)
			if word == 0 {
				x = (x>>6 + 1) << 6
				continue
			}
			x += bits.TrailingZeros64(word)
			if x >= x1 {
				break
			}
			if other.Get(x-offset.X, oy) {
				return geom.Pt(x, y), true
			}
			x++
		}
	}
	return geom.Point{}, false
}

// RotatedRect returns the footprint of a w×h rectangle rotated by deg
// degrees (counter-clockwise on screen) about its centre, together with the
// position of the footprint's top-left corner relative to the unrotated
// rectangle's top-left corner.
func RotatedRect(w, h int, deg float64) (*Mask, geom.Vec) {
	rad := geom.Radians(deg)
	sin, cos := math.Sin(rad), math.Cos(rad)
	// The epsilon keeps exact quarter turns from growing a pixel.
	rw := int(math.Ceil(math.Abs(float64(w)*cos) + math.Abs(float64(h)*sin) - 1e-9))
	rh := int(math.Ceil(math.Abs(float64(w)*sin) + math.Abs(float64(h)*cos) - 1e-9))
	m := New(rw, rh)

	hw, hh := float64(w)/2, float64(h)/2
	cx, cy := float64(rw)/2, float64(rh)/2
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			// Map the pixel centre back into the unrotated rectangle.
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			ux := dx*cos - dy*sin
			uy := dx*sin + dy*cos
			if ux >= -hw && ux < hw && uy >= -hh && uy < hh {
				m.Set(x, y)
			}
		}
	}
	return m, geom.V(hw-cx, hh-cy)
}
