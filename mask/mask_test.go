package mask

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-racer/geom"
)

func TestSetGetAcrossWords(t *testing.T) {
	m := New(130, 3)
	for _, x := range []int{0, 63, 64, 127, 129} {
		m.Set(x, 1)
	}
	m.Set(-1, 0)
	m.Set(130, 0)
	m.Set(0, 3)

	assert.Equal(t, 5, m.Count())
	assert.True(t, m.Get(64, 1))
	assert.False(t, m.Get(65, 1))
	assert.False(t, m.Get(-1, 0))

	m.Clear(64, 1)
	assert.False(t, m.Get(64, 1))
	assert.Equal(t, 4, m.Count())
}

func TestOverlap(t *testing.T) {
	border := New(200, 100)
	border.Set(150, 40)
	border.Set(10, 60)
	probe := Filled(4, 4)

	t.Run("miss", func(t *testing.T) {
		_, ok := border.Overlap(probe, geom.Pt(50, 50))
		assert.False(t, ok)
	})

	t.Run("hit reports receiver coordinates", func(t *testing.T) {
		p, ok := border.Overlap(probe, geom.Pt(148, 38))
		require.True(t, ok)
		assert.Equal(t, geom.Pt(150, 40), p)
	})

	t.Run("row-major first hit", func(t *testing.T) {
		wide := Filled(200, 100)
		p, ok := border.Overlap(wide, geom.Pt(0, 0))
		require.True(t, ok)
		assert.Equal(t, geom.Pt(150, 40), p)
	})

	t.Run("negative offset clips", func(t *testing.T) {
		corner := New(10, 10)
		corner.Set(0, 0)
		p, ok := corner.Overlap(probe, geom.Pt(-3, -3))
		require.True(t, ok)
		assert.Equal(t, geom.Pt(0, 0), p)

		_, ok = corner.Overlap(probe, geom.Pt(-4, -4))
		assert.False(t, ok)
	})

	t.Run("outside entirely", func(t *testing.T) {
		_, ok := border.Overlap(probe, geom.Pt(500, 500))
		assert.False(t, ok)
	})
}

func TestRotatedRect(t *testing.T) {
	t.Run("zero rotation keeps size", func(t *testing.T) {
		m, off := RotatedRect(16, 28, 0)
		w, h := m.Size()
		assert.Equal(t, 16, w)
		assert.Equal(t, 28, h)
		assert.Equal(t, 16*28, m.Count())
		assert.Equal(t, geom.V(0, 0), off)
	})

	t.Run("quarter turn swaps axes", func(t *testing.T) {
		m, off := RotatedRect(16, 28, 90)
		w, h := m.Size()
		assert.Equal(t, 28, w)
		assert.Equal(t, 16, h)
		assert.InDelta(t, 16*28, m.Count(), 28)
		// The centre stays put: (8,14) == off + (14,8).
		assert.InDelta(t, -6.0, off.X, 1e-9)
		assert.InDelta(t, 6.0, off.Y, 1e-9)
	})

	t.Run("diagonal grows bounding box", func(t *testing.T) {
		m, _ := RotatedRect(10, 10, 45)
		w, h := m.Size()
		assert.Equal(t, 15, w)
		assert.Equal(t, 15, h)
		assert.False(t, m.Get(0, 0))
		assert.True(t, m.Get(7, 7))
	})
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	img.Set(1, 2, color.NRGBA{A: 255})
	img.Set(3, 0, color.NRGBA{A: 100})
	img.Set(4, 3, color.NRGBA{R: 10, A: 200})

	m, err := FromImage(img)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count())
	assert.True(t, m.Get(1, 2))
	assert.False(t, m.Get(3, 0))
	assert.True(t, m.Get(4, 3))

	_, err = FromImage(image.NewNRGBA(image.Rect(0, 0, 0, 3)))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSurfaceCollide(t *testing.T) {
	finish := Filled(20, 4)
	s := Place(finish, geom.Pt(130, 250))

	p, ok := s.Collide(Filled(4, 4), geom.V(140.7, 248.2))
	require.True(t, ok)
	assert.Equal(t, geom.Pt(10, 0), p)
	assert.Equal(t, geom.Pt(140, 250), s.World(p))

	_, ok = s.Collide(Filled(4, 4), geom.V(140, 240))
	assert.False(t, ok)

	_, ok = Surface{}.Collide(Filled(1, 1), geom.V(0, 0))
	assert.False(t, ok)

	lo, hi := s.Bounds()
	assert.Equal(t, geom.Pt(130, 250), lo)
	assert.Equal(t, geom.Pt(150, 254), hi)
}

func TestBytesDistinguishesMasks(t *testing.T) {
	a := New(8, 8)
	b := New(8, 8)
	assert.Equal(t, a.Bytes(), b.Bytes())
	b.Set(3, 3)
	assert.NotEqual(t, a.Bytes(), b.Bytes())
	assert.NotEqual(t, New(8, 9).Bytes(), New(9, 8).Bytes())
}
