// Package sim runs races. An Episode is the headless training race in which
// every agent is driven by its own network; a Game is the interactive race
// of a keyboard-driven player against the path-following computer car.
package sim

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/render"
	"github.com/baldhumanity/neat-racer/track"
)

var (
	// ErrNoAgents is returned when an episode is started without entrants.
	ErrNoAgents = errors.New("sim: no agents")
	// ErrBadOutputs is returned when a network produces fewer than two outputs.
	ErrBadOutputs = errors.New("sim: network produced too few outputs")
)

// Network maps sensor distances to control outputs.
type Network interface {
	Activate(inputs []float64) ([]float64, error)
}

// Entrant is one driver entered into an episode.
type Entrant struct {
	ID    int
	Brain Network
}

// Agent is the per-driver state of an episode.
type Agent struct {
	ID      int
	Car     *car.Car
	Brain   Network
	Fitness float64
	Ticks   int
	Alive   bool
}

// DecodeOutputs turns network outputs into a control: output 0 above 0.5
// turns left, output 1 above 0.5 turns right, and the car always
// accelerates.
func DecodeOutputs(out []float64) (car.Control, error) {
	if len(out) < 2 {
		return car.Control{}, fmt.Errorf("%w: got %d, need 2", ErrBadOutputs, len(out))
	}
	return car.Control{Left: out[0] > 0.5, Right: out[1] > 0.5, Forward: true}, nil
}

// Episode is a training race. Agents start together at the player start and
// drop out when they hit the border.
type Episode struct {
	// Generation is shown in the status line.
	Generation int

	cfg    *Config
	track  *track.Track
	all    []*Agent
	active []*Agent
	tick   int
	logger *zap.Logger
}

// NewEpisode places one car per entrant at the track's player start.
func NewEpisode(cfg *Config, tr *track.Track, entrants []Entrant, logger *zap.Logger) (*Episode, error) {
	if len(entrants) == 0 {
		return nil, ErrNoAgents
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Episode{cfg: cfg, track: tr, logger: logger}
	for _, en := range entrants {
		a := &Agent{
			ID:    en.ID,
			Car:   car.New(cfg.PlayerSpec(tr.PlayerStart), car.Manual{}, cfg.NewFan(tr)),
			Brain: en.Brain,
			Alive: true,
		}
		e.all = append(e.all, a)
		e.active = append(e.active, a)
	}
	return e, nil
}

// Step advances every active agent by one tick and reports whether the
// episode is still running.
func (e *Episode) Step() bool {
	if e.Done() {
		return false
	}
	e.tick++
	for _, a := range e.active {
		e.stepAgent(a)
	}

	// Compact the active list after the loop so no agent is skipped.
	n := 0
	for _, a := range e.active {
		if a.Alive {
			e.active[n] = a
			n++
		}
	}
	clear(e.active[n:])
	e.active = e.active[:n]
	return !e.Done()
}

func (e *Episode) stepAgent(a *Agent) {
	c := a.Car
	out, err := a.Brain.Activate(c.Readings())
	if err != nil {
		e.eliminate(a, "network failed", zap.Error(err))
		return
	}
	ctl, err := DecodeOutputs(out)
	if err != nil {
		e.eliminate(a, "network output rejected", zap.Error(err))
		return
	}
	c.Drive(ctl)

	if _, ok := c.Collide(e.track.Finish); ok {
		a.Fitness += e.cfg.Fitness.FinishReward
	}

	c.Fan.Sense(&c.Body, e.track.Border)

	if _, ok := c.Collide(e.track.Border); ok {
		if e.cfg.Simulation.CollisionPolicy == PolicyEliminate {
			a.Alive = false
			return
		}
		c.Bounce()
	}

	a.Fitness += e.cfg.Fitness.SurvivalReward
	a.Ticks++
}

func (e *Episode) eliminate(a *Agent, msg string, fields ...zap.Field) {
	a.Alive = false
	e.logger.Warn(msg, append(fields, zap.Int("agent", a.ID), zap.Int("tick", e.tick))...)
}

// Done reports whether the episode has finished.
func (e *Episode) Done() bool {
	if len(e.active) == 0 {
		return true
	}
	return e.cfg.Simulation.MaxTicks > 0 && e.tick >= e.cfg.Simulation.MaxTicks
}

// Tick returns the number of ticks run so far.
func (e *Episode) Tick() int { return e.tick }

// Active returns the agents still racing.
func (e *Episode) Active() []*Agent { return e.active }

// Agents returns every agent in entry order.
func (e *Episode) Agents() []*Agent { return e.all }

// Scores returns the cumulative fitness of every agent by ID.
func (e *Episode) Scores() map[int]float64 {
	out := make(map[int]float64, len(e.all))
	for _, a := range e.all {
		out[a.ID] = a.Fitness
	}
	return out
}

// Render draws the track, every active car and its sensors, and the status.
func (e *Episode) Render(s render.Surface) {
	s.DrawLayers(e.track.Layers())
	for _, a := range e.active {
		for _, sn := range render.SensorsOf(&a.Car.Body, a.Car.Fan, render.Blue) {
			s.DrawSensor(sn)
		}
	}
	for _, a := range e.active {
		s.DrawBody(render.BodyOf(&a.Car.Body, render.Red))
	}
	s.DrawStatus(
		fmt.Sprintf("Gen: %d", e.Generation),
		fmt.Sprintf("Cars Alive: %d", len(e.active)),
	)
	s.Present()
}

// Advance implements Runner; the control is ignored.
func (e *Episode) Advance(car.Control) bool { return e.Step() }

// Run steps the episode until it finishes or ctx is cancelled, drawing
// every tick on s and waiting on p between ticks.
func (e *Episode) Run(ctx context.Context, s render.Surface, p Pacer) error {
	err := Loop(ctx, e, nil, s, p)
	e.logger.Debug("episode finished",
		zap.Int("generation", e.Generation),
		zap.Int("ticks", e.tick),
		zap.Int("survivors", len(e.active)),
	)
	return err
}
