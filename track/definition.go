package track

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/baldhumanity/neat-racer/geom"
)

// ErrNoWaypoints is returned when a procedural border is requested from fewer
// than two waypoints.
var ErrNoWaypoints = errors.New("track: procedural border needs at least two waypoints")

// Point is a world position written in YAML as a two element list.
type Point geom.Vec

// UnmarshalYAML decodes "[x, y]".
func (p *Point) UnmarshalYAML(value *yaml.Node) error {
	var xy []float64
	if err := value.Decode(&xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("line %d: point needs exactly two coordinates, got %d", value.Line, len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// MarshalYAML encodes the point as "[x, y]".
func (p Point) MarshalYAML() (interface{}, error) {
	return []float64{p.X, p.Y}, nil
}

// Rect is an axis-aligned rectangle in world pixels.
type Rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Definition is the on-disk description of a track.
type Definition struct {
	Name            string  `yaml:"name"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	HalfWidth       float64 `yaml:"half_width"`
	BorderThickness float64 `yaml:"border_thickness"`
	Waypoints       []Point `yaml:"waypoints"`
	Finish          Rect    `yaml:"finish"`
	PlayerStart     Point   `yaml:"player_start"`
	ComputerStart   Point   `yaml:"computer_start"`

	// Optional PNG overrides. Relative paths resolve against the
	// definition file's directory.
	BorderImage string `yaml:"border_image,omitempty"`
	FinishImage string `yaml:"finish_image,omitempty"`
}

// Parse decodes a YAML definition and fills defaults.
func Parse(data []byte) (*Definition, error) {
	def := &Definition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("failed to parse track definition: %w", err)
	}
	def.applyDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (d *Definition) applyDefaults() {
	if d.Name == "" {
		d.Name = "unnamed"
	}
	if d.HalfWidth == 0 {
		d.HalfWidth = 36
	}
}

// Validate checks the definition for values that cannot produce a track.
func (d *Definition) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("track %q: width and height must be positive", d.Name)
	}
	if d.HalfWidth <= 0 {
		return fmt.Errorf("track %q: half_width must be positive", d.Name)
	}
	if d.BorderThickness < 0 {
		return fmt.Errorf("track %q: border_thickness cannot be negative", d.Name)
	}
	if d.FinishImage == "" && (d.Finish.Width <= 0 || d.Finish.Height <= 0) {
		return fmt.Errorf("track %q: finish needs a positive width and height", d.Name)
	}
	if d.BorderImage == "" && len(d.Waypoints) < 2 {
		return fmt.Errorf("track %q: %w", d.Name, ErrNoWaypoints)
	}
	return nil
}

// Path returns the waypoints as vectors.
func (d *Definition) Path() []geom.Vec {
	out := make([]geom.Vec, len(d.Waypoints))
	for i, p := range d.Waypoints {
		out[i] = geom.Vec(p)
	}
	return out
}
