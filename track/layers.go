package track

import (
	"image"
	"image/color"

	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/mask"
	"github.com/baldhumanity/neat-racer/render"
)

var (
	grass    = color.NRGBA{R: 70, G: 140, B: 60, A: 255}
	asphalt  = color.NRGBA{R: 90, G: 90, B: 96, A: 255}
	kerb     = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	chequerA = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	chequerB = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
)

// Layers returns the static images of the track in drawing order: grass,
// road, finish line, border. The images are built once and shared.
func (t *Track) Layers() []render.Layer {
	t.layersOnce.Do(func() { t.layers = t.buildLayers() })
	return t.layers
}

func (t *Track) buildLayers() []render.Layer {
	bg := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for i := 0; i < len(bg.Pix); i += 4 {
		bg.Pix[i], bg.Pix[i+1], bg.Pix[i+2], bg.Pix[i+3] = grass.R, grass.G, grass.B, grass.A
	}
	layers := []render.Layer{{Image: bg}}
	if t.road != nil {
		layers = append(layers, render.Layer{Image: paint(t.road, func(int, int) color.NRGBA { return asphalt })})
	}
	layers = append(layers,
		render.Layer{
			Image: paint(t.Finish.Mask, func(x, y int) color.NRGBA {
				if (x/4+y/4)%2 == 0 {
					return chequerA
				}
				return chequerB
			}),
			At: t.Finish.Origin,
		},
		render.Layer{
			Image: paint(t.Border.Mask, func(int, int) color.NRGBA { return kerb }),
			At:    t.Border.Origin,
		},
	)
	return layers
}

// paint colours the set pixels of m and leaves the rest transparent.
func paint(m *mask.Mask, fill func(x, y int) color.NRGBA) *image.NRGBA {
	w, h := m.Size()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.Get(x, y) {
				img.SetNRGBA(x, y, fill(x, y))
			}
		}
	}
	return img
}

// OnRoad reports whether world point p is on the road.
func (t *Track) OnRoad(p geom.Point) bool {
	if t.road == nil {
		return false
	}
	return t.road.Get(p.X, p.Y)
}
