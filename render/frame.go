package render

import "github.com/baldhumanity/neat-racer/geom"

// Frame is a Surface that records one frame so it can be replayed onto
// another Surface later, typically from a different loop than the one that
// produced it. Present marks the recording complete; the next drawing call
// after Present starts a fresh frame.
type Frame struct {
	layers  []Layer
	bodies  []Body
	sensors []Sensor
	points  [][]geom.Vec
	status  []string
	done    bool
}

func (f *Frame) begin() {
	if !f.done {
		return
	}
	f.layers = f.layers[:0]
	f.bodies = f.bodies[:0]
	f.sensors = f.sensors[:0]
	f.points = f.points[:0]
	f.status = f.status[:0]
	f.done = false
}

func (f *Frame) DrawLayers(layers []Layer) {
	f.begin()
	f.layers = append(f.layers, layers...)
}

func (f *Frame) DrawBody(b Body) {
	f.begin()
	f.bodies = append(f.bodies, b)
}

func (f *Frame) DrawSensor(s Sensor) {
	f.begin()
	f.sensors = append(f.sensors, s)
}

func (f *Frame) DrawPoints(points []geom.Vec) {
	f.begin()
	f.points = append(f.points, append([]geom.Vec(nil), points...))
}

func (f *Frame) DrawStatus(lines ...string) {
	f.begin()
	f.status = append(f.status, lines...)
}

func (f *Frame) Present() {
	f.begin()
	f.done = true
}

// Complete reports whether the last recorded frame was presented.
func (f *Frame) Complete() bool { return f.done }

// Replay draws the recorded frame onto s in the canonical order: layers,
// waypoints, sensors, bodies, status.
func (f *Frame) Replay(s Surface) {
	if len(f.layers) > 0 {
		s.DrawLayers(f.layers)
	}
	for _, p := range f.points {
		s.DrawPoints(p)
	}
	for _, sn := range f.sensors {
		s.DrawSensor(sn)
	}
	for _, b := range f.bodies {
		s.DrawBody(b)
	}
	if len(f.status) > 0 {
		s.DrawStatus(f.status...)
	}
	s.Present()
}
