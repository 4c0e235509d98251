package car

import (
	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/mask"
)

// NoReading is the distance reported by a sensor that has never hit
// anything.
const NoReading = -1.0

// SensorSize is the side length of a sensor's square collision footprint.
const SensorSize = 4

var sensorFootprint = mask.Filled(SensorSize, SensorSize)

// Sensor is a bullet fired from a body at a fixed angle relative to the
// body's heading. It flies one step per tick until it touches the border,
// then freezes and reports the distance back to its owner.
//
// States: idle (!Fired) -> fired -> hit (!Fired, Hit) or expired (!Fired,
// past Range) -> fired again on the next Fire call.
type Sensor struct {
	BaseAngle float64
	Speed     float64
	Range     float64 // maximum travel before the bullet expires; <= 0 is unlimited

	Angle float64
	Pos   geom.Vec
	Fired bool
	Hit   bool

	travelled float64
	impact    geom.Vec
	hasImpact bool
}

// NewSensor returns an idle sensor.
func NewSensor(baseAngle, speed, maxRange float64) *Sensor {
	return &Sensor{BaseAngle: baseAngle, Speed: speed, Range: maxRange}
}

// Fire re-arms the sensor at the owner's centre, aimed at the owner's
// heading plus the sensor's base angle.
func (s *Sensor) Fire(owner *Body) {
	s.Angle = owner.Angle + s.BaseAngle
	s.Pos = owner.Center()
	s.Fired = true
	s.Hit = false
	s.travelled = 0
}

// Advance moves a fired sensor one step.
func (s *Sensor) Advance() {
	if !s.Fired {
		return
	}
	s.Pos = s.Pos.Add(geom.Step(s.Angle, s.Speed))
	s.travelled += s.Speed
}

// Test checks a fired sensor against the border. On contact the sensor
// freezes, records the world point of impact and returns the point in the
// border's mask coordinates. A bullet that misses after flying past its range
// expires: it goes idle and keeps its last reading.
func (s *Sensor) Test(border mask.Surface) (geom.Point, bool) {
	if !s.Fired {
		return geom.Point{}, false
	}
	p, ok := border.Collide(sensorFootprint, s.Pos)
	if !ok {
		if s.Range > 0 && s.travelled > s.Range {
			s.Fired = false
		}
		return geom.Point{}, false
	}
	s.Fired = false
	s.Hit = true
	s.impact = border.World(p).Vec()
	s.hasImpact = true
	return p, true
}

// Impact returns the last recorded point of impact.
func (s *Sensor) Impact() (geom.Vec, bool) {
	return s.impact, s.hasImpact
}

// Distance returns the distance from the owner's centre to the last point of
// impact, or NoReading.
func (s *Sensor) Distance(owner *Body) float64 {
	if !s.hasImpact {
		return NoReading
	}
	return owner.Center().Dist(s.impact)
}

// Reset returns the sensor to its initial idle state.
func (s *Sensor) Reset() {
	s.Angle = 0
	s.Pos = geom.Vec{}
	s.Fired = false
	s.Hit = false
	s.travelled = 0
	s.impact = geom.Vec{}
	s.hasImpact = false
}

// Fan is an ordered set of sensors fired from one body.
type Fan struct {
	Sensors []*Sensor
}

// DefaultAngles is the classic symmetric fan: every ten degrees
// from 90 down to -90, skipping straight ahead.
var DefaultAngles = []float64{90, 80, 70, 60, 50, 40, 30, 20, 10, -10, -20, -30, -40, -50, -60, -70, -80, -90}

// NewFan builds one sensor per angle, in order.
func NewFan(angles []float64, speed, maxRange float64) *Fan {
	f := &Fan{Sensors: make([]*Sensor, len(angles))}
	for i, a := range angles {
		f.Sensors[i] = NewSensor(a, speed, maxRange)
	}
	return f
}

// Len returns the number of sensors.
func (f *Fan) Len() int { return len(f.Sensors) }

// Sense runs one control cycle: idle sensors are re-armed, every sensor
// advances, and every sensor is tested against the border.
func (f *Fan) Sense(owner *Body, border mask.Surface) {
	for _, s := range f.Sensors {
		if !s.Fired {
			s.Fire(owner)
		}
	}
	for _, s := range f.Sensors {
		s.Advance()
	}
	for _, s := range f.Sensors {
		s.Test(border)
	}
}

// Distances returns one reading per sensor in fan order.
func (f *Fan) Distances(owner *Body) []float64 {
	out := make([]float64, len(f.Sensors))
	for i, s := range f.Sensors {
		out[i] = s.Distance(owner)
	}
	return out
}

// Reset idles every sensor and clears its reading.
func (f *Fan) Reset() {
	for _, s := range f.Sensors {
		s.Reset()
	}
}
