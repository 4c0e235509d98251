package track

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/geom"
)

func TestDefaultTrack(t *testing.T) {
	tr, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "classic", tr.Name)
	assert.Equal(t, 810, tr.Width)
	assert.Len(t, tr.Path, 22)
	assert.Equal(t, geom.V(175, 119), tr.Path[0])
	assert.Equal(t, geom.V(180, 200), tr.PlayerStart)
	assert.Equal(t, geom.V(150, 200), tr.ComputerStart)
	assert.Equal(t, geom.Pt(130, 250), tr.Finish.Origin)
	assert.Len(t, tr.Layers(), 4)

	for _, start := range []geom.Vec{tr.PlayerStart, tr.ComputerStart} {
		b := car.NewBody(car.Spec{Width: 16, Height: 28, Start: start})
		_, hit := b.Collide(tr.Border)
		assert.False(t, hit, "car at %v starts inside the border", start)
		_, hit = b.Collide(tr.Finish)
		assert.False(t, hit, "car at %v starts on the finish line", start)
	}

	for _, p := range tr.Path {
		assert.True(t, tr.OnRoad(p.Point()), "waypoint %v is off the road", p)
	}
}

func TestComputerLapStaysOnRoad(t *testing.T) {
	tr, err := Default()
	require.NoError(t, err)

	path := car.NewPath(tr.Path)
	c := car.New(car.Spec{
		MaxVelocity:      1,
		RotationVelocity: 4,
		Width:            16,
		Height:           28,
		Start:            tr.ComputerStart,
	}, path, nil)

	for i := 0; i < 20000 && !path.Done(); i++ {
		c.Drive(car.Control{})
		require.True(t, tr.OnRoad(c.Center().Point()), "tick %d: centre %v left the road", i, c.Center())
	}
	assert.True(t, path.Done())
}

func TestFingerprint(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.FingerprintHex(), 16)

	def, err := Parse(defaultDefinition)
	require.NoError(t, err)
	def.Waypoints[3].X += 5
	c, err := Build(def, "")
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		def, err := Parse([]byte(`
width: 100
height: 80
waypoints: [[10, 10], [90, 10], [50, 70]]
finish: {x: 5, y: 5, width: 10, height: 2}
`))
		require.NoError(t, err)
		assert.Equal(t, "unnamed", def.Name)
		assert.Equal(t, 36.0, def.HalfWidth)
		assert.Equal(t, []geom.Vec{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 50, Y: 70}}, def.Path())
	})

	t.Run("bad point", func(t *testing.T) {
		_, err := Parse([]byte(`
width: 10
height: 10
waypoints: [[1, 2, 3]]
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly two coordinates")
	})

	t.Run("border needs waypoints", func(t *testing.T) {
		_, err := Parse([]byte(`
width: 10
height: 10
waypoints: [[1, 2]]
finish: {x: 0, y: 0, width: 2, height: 2}
`))
		assert.ErrorIs(t, err, ErrNoWaypoints)
	})

	t.Run("negative thickness", func(t *testing.T) {
		_, err := Parse([]byte(`
width: 10
height: 10
border_thickness: -1
waypoints: [[1, 2], [5, 5]]
finish: {x: 0, y: 0, width: 2, height: 2}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "border_thickness")
	})
}

func TestBorderBand(t *testing.T) {
	def := &Definition{
		Name:            "band",
		Width:           60,
		Height:          20,
		HalfWidth:       5,
		BorderThickness: 3,
		Waypoints:       []Point{{X: 10, Y: 10}, {X: 50, Y: 10}},
		Finish:          Rect{Width: 1, Height: 1},
	}
	tr, err := Build(def, "")
	require.NoError(t, err)

	assert.True(t, tr.OnRoad(geom.Pt(30, 10)))
	assert.False(t, tr.Border.Mask.Get(30, 10))
	// Pixel centre 30.5,15.5 is 5.5 from the line: border.
	assert.True(t, tr.Border.Mask.Get(30, 15))
	// 8.5 away: outside the band.
	assert.False(t, tr.Border.Mask.Get(30, 18))
	assert.False(t, tr.OnRoad(geom.Pt(30, 18)))
}

func TestLoadWithImages(t *testing.T) {
	dir := t.TempDir()

	finish := image.NewNRGBA(image.Rect(0, 0, 6, 3))
	for x := 0; x < 6; x++ {
		finish.Set(x, 1, color.NRGBA{A: 255})
	}
	writePNG(t, filepath.Join(dir, "finish.png"), finish)

	border := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		border.Set(0, y, color.NRGBA{A: 255})
	}
	writePNG(t, filepath.Join(dir, "border.png"), border)

	yml := `
name: images
width: 40
height: 40
finish: {x: 12, y: 20}
border_image: border.png
finish_image: finish.png
player_start: [20, 5]
`
	path := filepath.Join(dir, "track.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	tr, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, tr.Border.Mask.Count())
	assert.Equal(t, 6, tr.Finish.Mask.Count())
	assert.Empty(t, tr.Path)
	assert.True(t, tr.OnRoad(geom.Pt(5, 5)))
	assert.False(t, tr.OnRoad(geom.Pt(0, 5)))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
