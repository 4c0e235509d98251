package car

// Car is a body with a motion strategy and, optionally, a sensor fan.
type Car struct {
	Body
	Motion Motion
	Fan    *Fan
}

// New returns a car resting at Spec.Start.
func New(spec Spec, m Motion, fan *Fan) *Car {
	return &Car{Body: NewBody(spec), Motion: m, Fan: fan}
}

// Drive advances the car one tick under ctl.
func (c *Car) Drive(ctl Control) {
	if c.Motion != nil {
		c.Motion.Advance(&c.Body, ctl)
	}
}

// Reset returns the car, its motion and its sensors to their initial state.
func (c *Car) Reset() {
	c.Body.Reset()
	if r, ok := c.Motion.(interface{ Reset() }); ok {
		r.Reset()
	}
	if c.Fan != nil {
		c.Fan.Reset()
	}
}

// Readings returns the sensor distances, or nil for a car without sensors.
func (c *Car) Readings() []float64 {
	if c.Fan == nil {
		return nil
	}
	return c.Fan.Distances(&c.Body)
}
