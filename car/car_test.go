package car

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/mask"
)

func playerSpec() Spec {
	return Spec{
		MaxVelocity:      2,
		RotationVelocity: 3,
		Acceleration:     0.1,
		Width:            16,
		Height:           28,
		Start:            geom.V(180, 200),
	}
}

// wall returns a 300x300 border with a solid band at columns 90..109.
func wall() mask.Surface {
	m := mask.New(300, 300)
	for y := 0; y < 300; y++ {
		for x := 90; x < 110; x++ {
			m.Set(x, y)
		}
	}
	return mask.Place(m, geom.Pt(0, 0))
}

func TestBodyForwardFromRest(t *testing.T) {
	b := NewBody(playerSpec())
	b.Forward()
	assert.InDelta(t, 0.1, b.Vel, 1e-12)
	assert.InDelta(t, 180, b.Pos.X, 1e-12)
	assert.InDelta(t, 199.9, b.Pos.Y, 1e-12)
}

func TestBodyVelocityBounds(t *testing.T) {
	b := NewBody(playerSpec())

	t.Run("forward caps at max", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			b.Forward()
			require.LessOrEqual(t, b.Vel, b.MaxVel)
		}
		assert.Equal(t, b.MaxVel, b.Vel)
	})

	t.Run("backward floors at half max", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			b.Backward()
			require.GreaterOrEqual(t, b.Vel, -b.MaxVel/2)
		}
		assert.Equal(t, -b.MaxVel/2, b.Vel)
	})

	t.Run("friction never goes negative", func(t *testing.T) {
		b.Vel = 0.03
		b.ReduceSpeed()
		assert.Equal(t, 0.0, b.Vel)
		b.ReduceSpeed()
		assert.Equal(t, 0.0, b.Vel)
	})
}

func TestBodyRotateAndBounce(t *testing.T) {
	b := NewBody(playerSpec())
	b.Rotate(TurnLeft)
	assert.Equal(t, 3.0, b.Angle)
	b.Rotate(TurnRight)
	b.Rotate(TurnRight)
	assert.Equal(t, -3.0, b.Angle)

	b.Angle = 0
	b.Vel = 2
	b.Bounce()
	assert.Equal(t, -2.0, b.Vel)
	assert.InDelta(t, 202, b.Pos.Y, 1e-12)

	b.Reset()
	assert.Equal(t, geom.V(180, 200), b.Pos)
	assert.Zero(t, b.Vel)
	assert.Zero(t, b.Angle)
}

func TestBodyContainsTruncates(t *testing.T) {
	b := NewBody(playerSpec())
	b.Pos = geom.V(10.9, 20.9)
	assert.True(t, b.Contains(geom.V(10, 20)))
	assert.True(t, b.Contains(geom.V(25.9, 47.9)))
	assert.False(t, b.Contains(geom.V(26, 30)))
	assert.False(t, b.Contains(geom.V(15, 48)))
}

func TestBodyCollide(t *testing.T) {
	b := NewBody(playerSpec())
	block := mask.Place(mask.Filled(5, 5), geom.Pt(190, 210))

	p, ok := b.Collide(block)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0, 0), p)

	b.Pos = geom.V(0, 0)
	_, ok = b.Collide(block)
	assert.False(t, ok)

	t.Run("rotated footprint stays centred", func(t *testing.T) {
		b := NewBody(playerSpec())
		b.Angle = 90
		m, at := b.Footprint()
		w, h := m.Size()
		assert.Equal(t, 28, w)
		assert.Equal(t, 16, h)
		c := at.Add(geom.V(float64(w)/2, float64(h)/2))
		assert.InDelta(t, b.Center().X, c.X, 1e-9)
		assert.InDelta(t, b.Center().Y, c.Y, 1e-9)
	})
}

func TestSensorAdvance(t *testing.T) {
	owner := NewBody(playerSpec())
	s := NewSensor(90, 12, 0)
	s.Fire(&owner)
	start := s.Pos
	s.Advance()

	d := s.Pos.Sub(start)
	assert.InDelta(t, -12, d.X, 1e-9)
	assert.InDelta(t, 0, d.Y, 1e-9)
}

func TestSensorHitAndRearm(t *testing.T) {
	owner := NewBody(playerSpec())
	border := wall()
	fan := NewFan([]float64{90}, 12, 0)
	s := fan.Sensors[0]

	for i := 0; i < 6; i++ {
		fan.Sense(&owner, border)
		require.True(t, s.Fired, "cycle %d", i)
		assert.Equal(t, NoReading, fan.Distances(&owner)[0])
	}

	fan.Sense(&owner, border)
	require.True(t, s.Hit)
	require.False(t, s.Fired)
	impact, ok := s.Impact()
	require.True(t, ok)
	assert.Equal(t, geom.V(104, 214), impact)
	assert.InDelta(t, 84, s.Distance(&owner), 1e-9)

	t.Run("reading holds until the next hit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			fan.Sense(&owner, border)
			assert.InDelta(t, 84, fan.Distances(&owner)[0], 1e-9)
		}
	})

	t.Run("re-arm starts at owner centre", func(t *testing.T) {
		owner.Pos = geom.V(150, 120)
		s.Fire(&owner)
		assert.Equal(t, owner.Center(), s.Pos)
		assert.True(t, s.Fired)
		assert.False(t, s.Hit)
	})
}

func TestSensorExpires(t *testing.T) {
	owner := NewBody(playerSpec())
	border := wall()
	s := NewSensor(0, 12, 30)
	s.Fire(&owner)
	s.hasImpact = true
	s.impact = geom.V(0, 0)

	for i := 0; i < 2; i++ {
		s.Advance()
		_, ok := s.Test(border)
		require.False(t, ok)
		assert.True(t, s.Fired, "step %d", i)
	}
	s.Advance()
	_, ok := s.Test(border)
	assert.False(t, ok)
	assert.False(t, s.Fired)
	assert.InDelta(t, owner.Center().Dist(geom.V(0, 0)), s.Distance(&owner), 1e-9, "last reading is kept")

	_, ok = s.Test(border)
	assert.False(t, ok)
}

func TestSensorHitOnLastStep(t *testing.T) {
	owner := NewBody(playerSpec())
	fan := NewFan([]float64{90}, 12, 80)
	s := fan.Sensors[0]

	for i := 0; i < 7; i++ {
		fan.Sense(&owner, wall())
	}
	assert.True(t, s.Hit)
	assert.InDelta(t, 84, s.Distance(&owner), 1e-9)
}

func TestSensorExpiredKeepsReading(t *testing.T) {
	owner := NewBody(playerSpec())
	border := wall()
	fan := NewFan([]float64{90}, 12, 80)
	s := fan.Sensors[0]

	for i := 0; i < 7; i++ {
		fan.Sense(&owner, border)
	}
	require.True(t, s.Hit)

	// Turn the ray away from the wall so the next bullets all expire.
	owner.Angle = 180
	for i := 0; i < 20; i++ {
		fan.Sense(&owner, border)
		assert.InDelta(t, 84, fan.Distances(&owner)[0], 1e-9, "cycle %d", i)
	}
	assert.False(t, s.Hit)
}

func TestDefaultFan(t *testing.T) {
	fan := NewFan(DefaultAngles, 12, 0)
	assert.Equal(t, 18, fan.Len())
	assert.NotContains(t, DefaultAngles, 0.0)

	owner := NewBody(playerSpec())
	for _, d := range fan.Distances(&owner) {
		assert.Equal(t, NoReading, d)
	}
}

func TestManualMotion(t *testing.T) {
	c := New(playerSpec(), Manual{}, nil)

	c.Drive(Control{Forward: true, Left: true})
	assert.InDelta(t, 0.1, c.Vel, 1e-12)
	assert.Equal(t, 3.0, c.Angle)

	c.Drive(Control{Left: true, Right: true})
	assert.Equal(t, 3.0, c.Angle)
	assert.InDelta(t, 0.05, c.Vel, 1e-12)

	c.Drive(Control{})
	assert.InDelta(t, 0, c.Vel, 1e-12)
}

func TestPathMotion(t *testing.T) {
	t.Run("empty path never moves", func(t *testing.T) {
		c := New(playerSpec(), NewPath(nil), nil)
		for i := 0; i < 10; i++ {
			c.Drive(Control{Forward: true})
		}
		assert.Equal(t, geom.V(180, 200), c.Pos)
	})

	t.Run("final waypoint is terminal", func(t *testing.T) {
		path := NewPath([]geom.Vec{geom.V(185, 205)})
		c := New(playerSpec(), path, nil)
		c.Drive(Control{})
		require.True(t, path.Done())
		at := c.Pos
		c.Drive(Control{})
		c.Drive(Control{})
		assert.Equal(t, at, c.Pos)
	})

	t.Run("reaches a distant waypoint", func(t *testing.T) {
		spec := playerSpec()
		spec.Start = geom.V(100, 300)
		path := NewPath([]geom.Vec{geom.V(104, 100), geom.V(40, 60)})
		c := New(spec, path, nil)
		for i := 0; i < 1000 && !path.Done(); i++ {
			c.Drive(Control{})
			require.Equal(t, c.MaxVel, c.Vel)
		}
		assert.True(t, path.Done())
	})

	t.Run("steering is bounded by rotation speed", func(t *testing.T) {
		path := NewPath([]geom.Vec{geom.V(180, 400)})
		c := New(playerSpec(), path, nil)
		c.Drive(Control{})
		// Straight behind normalises to +180, so the car turns right.
		assert.InDelta(t, -3, c.Angle, 1e-9)
	})

	t.Run("reset rewinds the route", func(t *testing.T) {
		path := NewPath([]geom.Vec{geom.V(185, 205)})
		c := New(playerSpec(), path, NewFan(DefaultAngles, 12, 0))
		c.Drive(Control{})
		require.True(t, path.Done())
		c.Reset()
		assert.Equal(t, 0, path.Current())
		assert.Equal(t, geom.V(180, 200), c.Pos)
	})
}
