package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/render"
	"github.com/baldhumanity/neat-racer/track"
)

// Outcome is what a game tick resulted in.
type Outcome int

const (
	// OutcomeNone means nothing of note happened.
	OutcomeNone Outcome = iota
	// OutcomeWaiting means the level has not started yet.
	OutcomeWaiting
	// OutcomeBounced means the player hit the border and was pushed back.
	OutcomeBounced
	// OutcomeWrongWay means the player drove onto the finish line from the
	// wrong side and was bounced back.
	OutcomeWrongWay
	// OutcomeLevelComplete means the player crossed the finish first and
	// moved on to the next level.
	OutcomeLevelComplete
	// OutcomeWon means the player finished the last level. The game restarts
	// at level 1.
	OutcomeWon
	// OutcomeLost means the computer reached the finish first. The game
	// restarts at level 1.
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeWaiting:
		return "waiting"
	case OutcomeBounced:
		return "bounced"
	case OutcomeWrongWay:
		return "wrong way"
	case OutcomeLevelComplete:
		return "level complete"
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Game is the interactive race: a keyboard-driven player with a sensor fan
// against the computer car following the track's waypoints. Each level the
// computer gets faster. Both cars bounce off the border.
type Game struct {
	Player   *car.Car
	Computer *car.Car

	cfg     *Config
	track   *track.Track
	path    *car.Path
	level   int
	started bool
	ticks   int
	logger  *zap.Logger
}

// NewGame sets up level 1.
func NewGame(cfg *Config, tr *track.Track, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := car.NewPath(tr.Path)
	g := &Game{
		Player:   car.New(cfg.PlayerSpec(tr.PlayerStart), car.Manual{}, cfg.NewFan(tr)),
		Computer: car.New(cfg.ComputerSpec(tr.ComputerStart), path, nil),
		cfg:      cfg,
		track:    tr,
		path:     path,
		logger:   logger,
	}
	g.setLevel(1)
	return g
}

// Level returns the current level, starting at 1.
func (g *Game) Level() int { return g.level }

// Started reports whether the current level is running.
func (g *Game) Started() bool { return g.started }

// Elapsed returns the game time spent in the current level.
func (g *Game) Elapsed() time.Duration {
	return time.Duration(g.ticks) * time.Second / time.Duration(g.cfg.Simulation.FPS)
}

func (g *Game) setLevel(level int) {
	g.level = level
	g.started = false
	g.ticks = 0
	g.Player.Reset()
	g.Computer.Reset()
	g.Computer.MaxVel = g.cfg.Car.ComputerMaxVelocity + float64(level-1)*g.cfg.Game.LevelSpeedup
}

// Step runs one tick. A level only starts once the player presses
// something.
func (g *Game) Step(ctl car.Control) Outcome {
	if !g.started {
		if ctl == (car.Control{}) {
			return OutcomeWaiting
		}
		g.started = true
		g.logger.Info("level started", zap.Int("level", g.level))
	}
	g.ticks++

	g.Player.Drive(ctl)
	g.Computer.Drive(car.Control{})
	g.Player.Fan.Sense(&g.Player.Body, g.track.Border)

	outcome := OutcomeNone
	if _, ok := g.Player.Collide(g.track.Border); ok {
		g.Player.Bounce()
		outcome = OutcomeBounced
	}

	if _, ok := g.Computer.Collide(g.track.Finish); ok {
		g.logger.Info("computer won", zap.Int("level", g.level), zap.Duration("elapsed", g.Elapsed()))
		g.setLevel(1)
		return OutcomeLost
	}

	if p, ok := g.Player.Collide(g.track.Finish); ok {
		if p.Y == 0 {
			g.Player.Bounce()
			return OutcomeWrongWay
		}
		g.logger.Info("level complete", zap.Int("level", g.level), zap.Duration("elapsed", g.Elapsed()))
		if g.level >= g.cfg.Game.Levels {
			g.setLevel(1)
			return OutcomeWon
		}
		g.setLevel(g.level + 1)
		return OutcomeLevelComplete
	}
	return outcome
}

// Render draws the track, the computer's route, the player's sensors and
// both cars.
func (g *Game) Render(s render.Surface) {
	s.DrawLayers(g.track.Layers())
	s.DrawPoints(g.path.Points())
	for _, sn := range render.SensorsOf(&g.Player.Body, g.Player.Fan, render.Blue) {
		s.DrawSensor(sn)
	}
	s.DrawBody(render.BodyOf(&g.Computer.Body, render.Green))
	s.DrawBody(render.BodyOf(&g.Player.Body, render.Red))

	status := []string{
		fmt.Sprintf("Level %d/%d", g.level, g.cfg.Game.Levels),
		fmt.Sprintf("Time: %.1fs", g.Elapsed().Seconds()),
		fmt.Sprintf("Vel: %.1fpx/s", g.Player.Vel*float64(g.cfg.Simulation.FPS)),
	}
	if !g.started {
		status = append(status, "Press any key to start")
	}
	s.DrawStatus(status...)
	s.Present()
}

// Advance implements Runner. The game never finishes on its own.
func (g *Game) Advance(ctl car.Control) bool {
	g.Step(ctl)
	return true
}

// Run plays until ctx is cancelled.
func (g *Game) Run(ctx context.Context, in Input, s render.Surface, p Pacer) error {
	return Loop(ctx, g, in, s, p)
}
