package sim

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/baldhumanity/neat-racer/car"
	"github.com/baldhumanity/neat-racer/geom"
	"github.com/baldhumanity/neat-racer/track"
)

// CollisionPolicy decides what a border collision does to a car.
type CollisionPolicy string

const (
	// PolicyEliminate removes the car from the episode.
	PolicyEliminate CollisionPolicy = "eliminate"
	// PolicyBounce reverses the car's velocity.
	PolicyBounce CollisionPolicy = "bounce"
)

// Config stores the racing parameters.
type Config struct {
	Simulation SimulationConfig
	Car        CarConfig
	Sensors    SensorConfig
	Fitness    FitnessConfig
	Game       GameConfig
	Track      TrackConfig
}

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	FPS             int             `ini:"fps"`
	MaxTicks        int             `ini:"max_ticks"` // 0 runs until every agent is eliminated
	CollisionPolicy CollisionPolicy `ini:"collision_policy"`
	Seed            int64           `ini:"seed"`
}

// CarConfig holds the body parameters of the player and computer cars.
type CarConfig struct {
	MaxVelocity              float64 `ini:"max_velocity"`
	RotationVelocity         float64 `ini:"rotation_velocity"`
	Acceleration             float64 `ini:"acceleration"`
	Width                    int     `ini:"width"`
	Height                   int     `ini:"height"`
	ComputerMaxVelocity      float64 `ini:"computer_max_velocity"`
	ComputerRotationVelocity float64 `ini:"computer_rotation_velocity"`
}

// SensorConfig describes the sensor fan.
type SensorConfig struct {
	Angles []float64 `ini:"angles" delim:" "`
	Speed  float64   `ini:"speed"`
	Range  float64   `ini:"range"` // 0 uses the track diagonal, negative never expires
}

// FitnessConfig holds the rewards of a training episode.
type FitnessConfig struct {
	SurvivalReward float64 `ini:"survival_reward"`
	FinishReward   float64 `ini:"finish_reward"`
}

// GameConfig holds the interactive game parameters.
type GameConfig struct {
	Levels       int     `ini:"levels"`
	LevelSpeedup float64 `ini:"level_speedup"`
}

// TrackConfig selects the track. An empty file means the built-in track.
type TrackConfig struct {
	File string `ini:"file"`
}

// DefaultConfig returns the parameters of the classic game.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{FPS: 60, MaxTicks: 0, CollisionPolicy: PolicyEliminate},
		Car: CarConfig{
			MaxVelocity:              2,
			RotationVelocity:         3,
			Acceleration:             0.1,
			Width:                    16,
			Height:                   28,
			ComputerMaxVelocity:      1,
			ComputerRotationVelocity: 4,
		},
		Sensors: SensorConfig{
			Angles: append([]float64(nil), car.DefaultAngles...),
			Speed:  12,
		},
		Fitness: FitnessConfig{SurvivalReward: 0.1, FinishReward: 1000},
		Game:    GameConfig{Levels: 10, LevelSpeedup: 0.2},
	}
}

// LoadConfig loads racing parameters from an INI file. Keys that are absent
// keep their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return cfg, nil
}

// ParseConfig is LoadConfig for in-memory INI data.
func ParseConfig(data []byte) (*Config, error) {
	return load(data)
}

func load(source interface{}) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"Simulation", &config.Simulation},
		{"Car", &config.Car},
		{"Sensors", &config.Sensors},
		{"Fitness", &config.Fitness},
		{"Game", &config.Game},
		{"Track", &config.Track},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	config.Simulation.CollisionPolicy = CollisionPolicy(strings.ToLower(cleanIniString(string(config.Simulation.CollisionPolicy))))
	config.Track.File = cleanIniString(config.Track.File)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every parameter.
func (c *Config) Validate() error {
	switch {
	case c.Simulation.FPS <= 0:
		return fmt.Errorf("config error: fps must be positive")
	case c.Simulation.MaxTicks < 0:
		return fmt.Errorf("config error: max_ticks cannot be negative")
	case c.Simulation.CollisionPolicy != PolicyEliminate && c.Simulation.CollisionPolicy != PolicyBounce:
		return fmt.Errorf("config error: invalid collision_policy '%s', must be one of 'eliminate', 'bounce'", c.Simulation.CollisionPolicy)
	case c.Car.MaxVelocity <= 0:
		return fmt.Errorf("config error: max_velocity must be positive")
	case c.Car.RotationVelocity <= 0:
		return fmt.Errorf("config error: rotation_velocity must be positive")
	case c.Car.Acceleration <= 0:
		return fmt.Errorf("config error: acceleration must be positive")
	case c.Car.Width <= 0 || c.Car.Height <= 0:
		return fmt.Errorf("config error: width and height must be positive")
	case c.Car.ComputerMaxVelocity <= 0:
		return fmt.Errorf("config error: computer_max_velocity must be positive")
	case c.Car.ComputerRotationVelocity <= 0:
		return fmt.Errorf("config error: computer_rotation_velocity must be positive")
	case len(c.Sensors.Angles) == 0:
		return fmt.Errorf("config error: angles must list at least one sensor")
	case c.Sensors.Speed <= 0:
		return fmt.Errorf("config error: sensor speed must be positive")
	case c.Game.Levels <= 0:
		return fmt.Errorf("config error: levels must be positive")
	case c.Game.LevelSpeedup < 0:
		return fmt.Errorf("config error: level_speedup cannot be negative")
	}
	return nil
}

// PlayerSpec returns the body of a player or agent car starting at start.
func (c *Config) PlayerSpec(start geom.Vec) car.Spec {
	return car.Spec{
		MaxVelocity:      c.Car.MaxVelocity,
		RotationVelocity: c.Car.RotationVelocity,
		Acceleration:     c.Car.Acceleration,
		Width:            c.Car.Width,
		Height:           c.Car.Height,
		Start:            start,
	}
}

// ComputerSpec returns the body of the path-following car.
func (c *Config) ComputerSpec(start geom.Vec) car.Spec {
	spec := c.PlayerSpec(start)
	spec.MaxVelocity = c.Car.ComputerMaxVelocity
	spec.RotationVelocity = c.Car.ComputerRotationVelocity
	return spec
}

// SensorRange resolves the configured range against a track.
func (c *Config) SensorRange(tr *track.Track) float64 {
	switch {
	case c.Sensors.Range > 0:
		return c.Sensors.Range
	case c.Sensors.Range < 0:
		return 0
	default:
		return tr.Diagonal()
	}
}

// NewFan builds the configured sensor fan for tr.
func (c *Config) NewFan(tr *track.Track) *car.Fan {
	return car.NewFan(c.Sensors.Angles, c.Sensors.Speed, c.SensorRange(tr))
}

// cleanIniString removes inline comments and trims whitespace.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
