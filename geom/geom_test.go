package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestStep(t *testing.T) {
	tests := []struct {
		name  string
		deg   float64
		speed float64
		want  Vec
	}{
		{"up", 0, 1, V(0, -1)},
		{"left", 90, 12, V(-12, 0)},
		{"down", 180, 2, V(0, 2)},
		{"right", -90, 3, V(3, 0)},
		{"reverse", 0, -1, V(0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Step(tt.deg, tt.speed)
			assert.InDelta(t, tt.want.X, got.X, eps)
			assert.InDelta(t, tt.want.Y, got.Y, eps)
		})
	}
}

func TestBearingMatchesStep(t *testing.T) {
	origin := V(100, 100)
	targets := []Vec{V(100, 50), V(50, 100), V(100, 150), V(150, 100), V(130, 60), V(70, 140)}
	for _, target := range targets {
		b := Bearing(origin, target)
		require.Greater(t, b, -180.0)
		require.LessOrEqual(t, b, 180.0)

		// Walking along the bearing must close the distance along the exact line.
		dir := Step(b, 1)
		want := target.Sub(origin).Scale(1 / target.Dist(origin))
		assert.InDelta(t, want.X, dir.X, 1e-9, "target %v", target)
		assert.InDelta(t, want.Y, dir.Y, 1e-9, "target %v", target)
	}
}

func TestBearingStraightDown(t *testing.T) {
	// Zero horizontal delta used to be a division-by-zero case.
	assert.InDelta(t, 180.0, Bearing(V(10, 10), V(10, 20)), eps)
	assert.InDelta(t, 0.0, Bearing(V(10, 10), V(10, 0)), eps)
	assert.Equal(t, 0.0, Bearing(V(5, 5), V(5, 5)))
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		180:  180,
		-180: 180,
		190:  -170,
		-190: 170,
		540:  180,
		725:  5,
		-725: -5,
		359:  -1,
	}
	for in, want := range cases {
		assert.InDelta(t, want, NormalizeAngle(in), eps, "NormalizeAngle(%v)", in)
	}
}

func TestVecHelpers(t *testing.T) {
	a := V(3, 4)
	assert.Equal(t, 5.0, a.Len())
	assert.Equal(t, 5.0, V(0, 0).Dist(a))
	assert.Equal(t, V(4, 6), a.Add(V(1, 2)))
	assert.Equal(t, V(2, 2), a.Sub(V(1, 2)))
	assert.Equal(t, Pt(3, -4), V(3.9, -4.9).Point())
	assert.InDelta(t, math.Pi, Radians(180), eps)
	assert.InDelta(t, 90.0, Degrees(math.Pi/2), eps)
}
