// Package term draws races in a terminal with tcell. The world is scaled
// down so the whole track fits the screen; each cell shows the colour of
// the track pixel under its centre, cars are arrows pointing along their
// heading, and sensor rays are dotted lines.
package term

import (
	"context"
	"errors"
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/render"
)

// ErrQuit is returned by Poll when the user asks to leave.
var ErrQuit = errors.New("term: quit requested")

// arrows are indexed by heading in 45 degree steps, counter-clockwise from up.
var arrows = [8]rune{'↑', '↖', '←', '↙', '↓', '↘', '→', '↗'}

const (
	rayRune      = '·'
	impactRune   = '*'
	waypointRune = '+'
)

// Screen is a render.Surface on a tcell screen. It also reads the keyboard;
// see Poll and Keys.
type Screen struct {
	screen        tcell.Screen
	width, height int // world size in pixels
	keys          *Keys

	dirty bool
}

// Open initialises the controlling terminal for a world of the given size.
func Open(width, height int) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(s, width, height)
}

// New wraps an uninitialised tcell screen.
func New(s tcell.Screen, width, height int) (*Screen, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("term: world size must be positive")
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()
	s.Clear()
	return &Screen{screen: s, width: width, height: height, keys: NewKeys()}, nil
}

// Close restores the terminal.
func (s *Screen) Close() { s.screen.Fini() }

// Keys returns the keyboard state fed by Poll.
func (s *Screen) Keys() *Keys { return s.keys }

// Poll reads terminal events until the user quits or ctx is cancelled.
// Run it in its own goroutine next to the race.
func (s *Screen) Poll(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := s.screen.PollEvent()
		if err := ctx.Err(); err != nil {
			return err
		}
		switch ev := ev.(type) {
		case nil:
			return ErrQuit
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			if !s.keys.Handle(ev) {
				return ErrQuit
			}
		}
	}
}

// cell maps a world position to a screen cell.
func (s *Screen) cell(p geom.Vec) (int, int, bool) {
	cols, rows := s.screen.Size()
	if cols == 0 || rows == 0 {
		return 0, 0, false
	}
	x := int(math.Floor(p.X * float64(cols) / float64(s.width)))
	y := int(math.Floor(p.Y * float64(rows) / float64(s.height)))
	return x, y, x >= 0 && y >= 0 && x < cols && y < rows
}

// world maps the centre of a screen cell back to a world position.
func (s *Screen) world(x, y int) geom.Vec {
	cols, rows := s.screen.Size()
	return geom.V(
		(float64(x)+0.5)*float64(s.width)/float64(cols),
		(float64(y)+0.5)*float64(s.height)/float64(rows),
	)
}

func (s *Screen) begin() {
	if s.dirty {
		return
	}
	s.screen.Clear()
	s.dirty = true
}

func (s *Screen) DrawLayers(layers []render.Layer) {
	s.begin()
	cols, rows := s.screen.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			p := s.world(x, y)
			for i := len(layers) - 1; i >= 0; i-- {
				l := layers[i]
				b := l.Image.Bounds()
				px, py := int(p.X)-l.At.X, int(p.Y)-l.At.Y
				if px < 0 || py < 0 || px >= b.Dx() || py >= b.Dy() {
					continue
				}
				if c, ok := opaque(l.Image.At(b.Min.X+px, b.Min.Y+py)); ok {
					s.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(c))
					break
				}
			}
		}
	}
}

func (s *Screen) DrawBody(b render.Body) {
	s.begin()
	x, y, ok := s.cell(b.Center())
	if !ok {
		return
	}
	s.put(x, y, Arrow(b.Angle), b.Color)
}

func (s *Screen) DrawSensor(r render.Sensor) {
	s.begin()
	x0, y0, _ := s.cell(r.From)
	x1, y1, _ := s.cell(r.To)
	cols, rows := s.screen.Size()
	line(x0, y0, x1, y1, func(x, y int) {
		if x == x0 && y == y0 {
			return
		}
		if x < 0 || y < 0 || x >= cols || y >= rows {
			return
		}
		ch := rayRune
		if r.Hit && x == x1 && y == y1 {
			ch = impactRune
		}
		s.put(x, y, ch, r.Color)
	})
}

func (s *Screen) DrawPoints(points []geom.Vec) {
	s.begin()
	for _, p := range points {
		if x, y, ok := s.cell(p); ok {
			s.put(x, y, waypointRune, render.Black)
		}
	}
}

// DrawStatus writes the lines over the top-left corner of the track.
func (s *Screen) DrawStatus(lines ...string) {
	s.begin()
	cols, rows := s.screen.Size()
	style := tcell.StyleDefault.Reverse(true)
	for row, text := range lines {
		if row >= rows {
			break
		}
		col := 0
		for _, r := range text {
			if col >= cols {
				break
			}
			s.screen.SetContent(col, row, r, nil, style)
			col++
		}
	}
}

func (s *Screen) Present() {
	s.begin()
	s.screen.Show()
	s.dirty = false
}

// put draws ch in colour c, keeping the cell's background.
func (s *Screen) put(x, y int, ch rune, c color.RGBA) {
	_, _, style, _ := s.screen.GetContent(x, y)
	s.screen.SetContent(x, y, ch, nil, style.Foreground(rgb(c)))
}

// Arrow returns the arrow closest to a heading in degrees.
func Arrow(angle float64) rune {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return arrows[int(math.Round(a/45))%len(arrows)]
}

// line calls plot for every cell on the segment from (x0, y0) to (x1, y1).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func opaque(c color.Color) (tcell.Color, bool) {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return tcell.ColorDefault, false
	}
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8)), true
}
