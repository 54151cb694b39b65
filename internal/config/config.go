package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zeusync/navwalk/internal/core/locomotion"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the walkthrough configuration file.
type Config struct {
	Avatar     AvatarConfig     `yaml:"avatar"`
	Locomotion LocomotionConfig `yaml:"locomotion"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Simulation SimulationConfig `yaml:"simulation"`
	Navmesh    NavmeshConfig    `yaml:"navmesh"`
	HUD        HUDConfig        `yaml:"hud"`
	Log        LogConfig        `yaml:"log"`
}

type AvatarConfig struct {
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"`
}

// LocomotionConfig rates are per second.
type LocomotionConfig struct {
	MoveSpeed     float64 `yaml:"move_speed"`
	RunMultiplier float64 `yaml:"run_multiplier"`
	Gravity       float64 `yaml:"gravity"`
	JumpImpulse   float64 `yaml:"jump_impulse"`
	FallThreshold float64 `yaml:"fall_threshold"`
}

// SpawnConfig holds the placement points used at start, after a surface
// delivery and on recovery.
type SpawnConfig struct {
	Start    Point `yaml:"start"`
	Loaded   Point `yaml:"loaded"`
	Fallback Point `yaml:"fallback"`
	Recovery Point `yaml:"recovery"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (p Point) Vec() physics.Vector3 { return physics.Vec3(p.X, p.Y, p.Z) }

type SimulationConfig struct {
	// TickRate is fixed steps per second.
	TickRate int `yaml:"tick_rate"`
	// MaxCatchUp bounds the steps one Advance may run after a stall.
	MaxCatchUp int `yaml:"max_catch_up"`
}

type NavmeshConfig struct {
	Path        string  `yaml:"path"`
	ProbeHeight float64 `yaml:"probe_height"`
}

type HUDConfig struct {
	Addr string `yaml:"addr"`
	// Token, when set, must be passed as ?token= by websocket clients.
	Token string `yaml:"token"`
	// FrameEvery broadcasts one frame per this many ticks.
	FrameEvery  int     `yaml:"frame_every"`
	ScreenWidth float64 `yaml:"screen_width"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the stock walkthrough configuration.
func Default() Config {
	p := locomotion.DefaultParams()
	return Config{
		Avatar: AvatarConfig{Height: p.Height, Radius: p.Radius},
		Locomotion: LocomotionConfig{
			MoveSpeed:     p.MoveSpeed,
			RunMultiplier: p.RunMultiplier,
			Gravity:       p.Gravity,
			JumpImpulse:   p.JumpImpulse,
			FallThreshold: p.FallThreshold,
		},
		Spawn: SpawnConfig{
			Start:    Point{Y: 10},
			Loaded:   Point{X: 30, Y: 10},
			Fallback: Point{Y: 2},
			Recovery: Point{X: p.RecoveryPoint.X(), Y: p.RecoveryPoint.Y(), Z: p.RecoveryPoint.Z()},
		},
		Simulation: SimulationConfig{TickRate: 60, MaxCatchUp: 5},
		Navmesh:    NavmeshConfig{ProbeHeight: navmesh.DefaultProbeHeight},
		HUD:        HUDConfig{Addr: "127.0.0.1:8080", FrameEvery: 1, ScreenWidth: 1280},
		Log:        LogConfig{Level: log.LevelInfo.String()},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err = cfg.decode(bytes.NewReader(b)); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks ranges. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalidConfig)
	}
	if c.Simulation.MaxCatchUp <= 0 {
		return fmt.Errorf("%w: max_catch_up must be positive", ErrInvalidConfig)
	}
	if c.Navmesh.ProbeHeight <= 0 {
		return fmt.Errorf("%w: probe_height must be positive", ErrInvalidConfig)
	}
	if c.HUD.FrameEvery <= 0 {
		return fmt.Errorf("%w: frame_every must be positive", ErrInvalidConfig)
	}
	if c.HUD.ScreenWidth <= 0 {
		return fmt.Errorf("%w: screen_width must be positive", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for name, p := range map[string]Point{
		"start": c.Spawn.Start, "loaded": c.Spawn.Loaded, "fallback": c.Spawn.Fallback,
	} {
		if !physics.Finite(p.Vec()) {
			return fmt.Errorf("%w: spawn.%s is not finite", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Params converts the avatar and locomotion sections.
func (c Config) Params() locomotion.Params {
	return locomotion.Params{
		Height:        c.Avatar.Height,
		Radius:        c.Avatar.Radius,
		MoveSpeed:     c.Locomotion.MoveSpeed,
		RunMultiplier: c.Locomotion.RunMultiplier,
		Gravity:       c.Locomotion.Gravity,
		JumpImpulse:   c.Locomotion.JumpImpulse,
		FallThreshold: c.Locomotion.FallThreshold,
		RecoveryPoint: c.Spawn.Recovery.Vec(),
	}
}

// Step is the fixed simulation step.
func (c Config) Step() time.Duration {
	return time.Second / time.Duration(c.Simulation.TickRate)
}

// StepSeconds is the exact fixed step in seconds.
func (c Config) StepSeconds() float64 {
	return 1 / float64(c.Simulation.TickRate)
}

// LogLevel parses the configured level, defaulting to info.
func (c Config) LogLevel() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return l
}
