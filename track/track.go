// Package track builds the static world a race runs in: the border every
// body and sensor collides with, the finish line, the waypoint loop the
// computer car follows, and the start positions.
//
// A track is described in YAML. Without images the road is generated from
// the waypoint loop: every pixel closer than half_width to the loop is road,
// and the pixels beyond it become border. PNG overrides may replace either
// mask; their alpha channel decides occupancy.
package track

import (
	_ "embed"
	"fmt"
	"image"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/mask"
	"github.com/baldhumanity/neat-racer/render"
)

//go:embed default.yaml
var defaultDefinition []byte

// Track is a built, immutable track.
type Track struct {
	Name          string
	Width, Height int
	Border        mask.Surface
	Finish        mask.Surface
	Path          []geom.Vec
	PlayerStart   geom.Vec
	ComputerStart geom.Vec

	road *mask.Mask

	layersOnce sync.Once
	layers     []render.Layer
}

// Default builds the embedded classic track.
func Default() (*Track, error) {
	def, err := Parse(defaultDefinition)
	if err != nil {
		return nil, err
	}
	return Build(def, "")
}

// Load reads and builds the track definition at path.
func Load(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Build(def, filepath.Dir(path))
}

// Build renders a definition into masks. Image paths in def are resolved
// against dir.
func Build(def *Definition, dir string) (*Track, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	t := &Track{
		Name:          def.Name,
		Width:         def.Width,
		Height:        def.Height,
		Path:          def.Path(),
		PlayerStart:   geom.Vec(def.PlayerStart),
		ComputerStart: geom.Vec(def.ComputerStart),
	}

	if len(t.Path) >= 2 {
		t.road, t.Border.Mask = carve(def)
	}
	if def.BorderImage != "" {
		m, err := loadMask(resolve(dir, def.BorderImage))
		if err != nil {
			return nil, fmt.Errorf("track %q border: %w", def.Name, err)
		}
		t.Border.Mask = m
		if t.road == nil {
			t.road = invert(m)
		}
	}

	finishAt := geom.Pt(def.Finish.X, def.Finish.Y)
	if def.FinishImage != "" {
		m, err := loadMask(resolve(dir, def.FinishImage))
		if err != nil {
			return nil, fmt.Errorf("track %q finish: %w", def.Name, err)
		}
		t.Finish = mask.Place(m, finishAt)
	} else {
		t.Finish = mask.Place(mask.Filled(def.Finish.Width, def.Finish.Height), finishAt)
	}
	return t, nil
}

// Diagonal returns the length of the track's diagonal, the longest straight
// line a sensor could usefully travel.
func (t *Track) Diagonal() float64 {
	return math.Hypot(float64(t.Width), float64(t.Height))
}

// Fingerprint hashes everything that affects collisions and routing. Two
// tracks with equal fingerprints behave identically.
func (t *Track) Fingerprint() uint64 {
	h := xxhash.New()
	_, _ = h.Write(t.Border.Mask.Bytes())
	_, _ = h.Write(t.Finish.Mask.Bytes())
	_, _ = fmt.Fprintf(h, "finish@%d,%d", t.Finish.Origin.X, t.Finish.Origin.Y)
	for _, p := range t.Path {
		_, _ = fmt.Fprintf(h, ";%g,%g", p.X, p.Y)
	}
	return h.Sum64()
}

// FingerprintHex is Fingerprint formatted for metadata and logs.
func (t *Track) FingerprintHex() string {
	return fmt.Sprintf("%016x", t.Fingerprint())
}

func resolve(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func loadMask(path string) (*mask.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return mask.FromImage(img)
}

func invert(m *mask.Mask) *mask.Mask {
	w, h := m.Size()
	out := mask.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m.Get(x, y) {
				out.Set(x, y)
			}
		}
	}
	return out
}

// carve computes the road and border masks from the closed waypoint loop.
func carve(def *Definition) (road, border *mask.Mask) {
	w, h := def.Width, def.Height
	hw, thick := def.HalfWidth, def.BorderThickness
	reach := hw + thick
	if thick == 0 {
		reach = hw
	}

	dist := make([]float64, w*h)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	pts := def.Path()
	segments := len(pts)
	if segments == 2 {
		segments = 1
	}
	for i := 0; i < segments; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		x0 := clamp(int(math.Floor(math.Min(a.X, b.X)-reach)), 0, w)
		x1 := clamp(int(math.Ceil(math.Max(a.X, b.X)+reach))+1, 0, w)
		y0 := clamp(int(math.Floor(math.Min(a.Y, b.Y)-reach)), 0, h)
		y1 := clamp(int(math.Ceil(math.Max(a.Y, b.Y)+reach))+1, 0, h)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				d := segmentDist(geom.V(float64(x)+0.5, float64(y)+0.5), a, b)
				if d < dist[y*w+x] {
					dist[y*w+x] = d
				}
			}
		}
	}

	road, border = mask.New(w, h), mask.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := dist[y*w+x]
			switch {
			case d < hw:
				road.Set(x, y)
			case thick == 0 || d < hw+thick:
				border.Set(x, y)
			}
		}
	}
	return road, border
}

func segmentDist(p, a, b geom.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
