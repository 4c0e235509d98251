// Package window shows races in a desktop window with ebiten.
//
// ebiten owns the main goroutine, so the race runs elsewhere: it draws into
// the View, which hands each presented frame to ebiten's Draw, and reads
// the keyboard state that ebiten's Update samples.
package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/render"
)

// ErrQuit is returned by Run when the user closes the window or presses
// Escape.
var ErrQuit = errors.New("window: closed by user")

var background = color.RGBA{R: 250, G: 250, B: 250, A: 255}

// View is a render.Surface and sim.Input backed by an ebiten window.
type View struct {
	*render.Buffer

	width, height int
	ctx           context.Context

	mu  sync.Mutex
	ctl car.Control

	// Converted layer images, touched only from ebiten's goroutine.
	images map[image.Image]*ebiten.Image
}

// New returns a view of a world of the given size in pixels.
func New(width, height int) *View {
	return &View{
		Buffer: render.NewBuffer(),
		width:  width,
		height: height,
		ctx:    context.Background(),
		images: make(map[image.Image]*ebiten.Image),
	}
}

// Control implements sim.Input.
func (v *View) Control() car.Control {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctl
}

// Run opens the window and blocks until ctx is cancelled or the user quits.
// It must be called from the main goroutine.
func (v *View) Run(ctx context.Context, title string, fps int) error {
	v.ctx = ctx
	ebiten.SetWindowSize(v.width, v.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if fps > 0 {
		ebiten.SetTPS(fps)
	}
	if err := ebiten.RunGame(v); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrQuit
}

// Update samples the keyboard once per ebiten tick.
func (v *View) Update() error {
	if v.ctx.Err() != nil || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	ctl := car.Control{
		Left:     ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA),
		Right:    ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD),
		Forward:  ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW),
		Backward: ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS),
	}
	v.mu.Lock()
	v.ctl = ctl
	v.mu.Unlock()
	return nil
}

func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	v.Show(&canvas{dst: screen, images: v.images})
}

func (v *View) Layout(int, int) (int, int) {
	return v.width, v.height
}

// canvas replays a frame onto an ebiten image.
type canvas struct {
	dst    *ebiten.Image
	images map[image.Image]*ebiten.Image
}

func (c *canvas) DrawLayers(layers []render.Layer) {
	for _, l := range layers {
		img, ok := c.images[l.Image]
		if !ok {
			img = ebiten.NewImageFromImage(l.Image)
			c.images[l.Image] = img
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(l.At.X), float64(l.At.Y))
		c.dst.DrawImage(img, op)
	}
}

func (c *canvas) DrawBody(b render.Body) {
	corners := b.Corners()
	for i := range corners {
		c.stroke(corners[i], corners[(i+1)%len(corners)], 2, b.Color)
	}
	// Nose marker from the centre to the middle of the front edge.
	front := corners[0].Add(corners[1]).Scale(0.5)
	c.stroke(b.Center(), front, 2, b.Color)
}

func (c *canvas) DrawSensor(s render.Sensor) {
	c.stroke(s.From, s.To, 1, s.Color)
	if s.Hit {
		vector.DrawFilledCircle(c.dst, float32(s.To.X), float32(s.To.Y), 3, s.Color, true)
	}
}

func (c *canvas) DrawPoints(points []geom.Vec) {
	for _, p := range points {
		vector.DrawFilledCircle(c.dst, float32(p.X), float32(p.Y), 3, render.Black, true)
	}
}

func (c *canvas) DrawStatus(lines ...string) {
	for i, line := range lines {
		ebitenutil.DebugPrintAt(c.dst, line, 6, 6+16*i)
	}
}

func (c *canvas) Present() {}

func (c *canvas) stroke(a, b geom.Vec, width float32, clr color.Color) {
	vector.StrokeLine(c.dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, clr, true)
}
