// Package config loads server settings from a YAML or JSON file, environment
// variables and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/resolver"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Duration accepts "150ms" style strings in both YAML and JSON. Plain JSON
// numbers are read as nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err = json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string or nanoseconds: %w", err)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

type Arena struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	// Cell is the collision grid cell size.
	Cell int `json:"cell" yaml:"cell"`
	// Margin widens the arena before bodies count as lost.
	Margin float64 `json:"margin" yaml:"margin"`
}

// Config holds everything cmd/server needs to build a game.
type Config struct {
	Addr             string             `json:"addr" yaml:"addr"`
	Token            string             `json:"token,omitempty" yaml:"token,omitempty"`
	MaxClients       int                `json:"max_clients" yaml:"max_clients"`
	LogLevel         string             `json:"log_level" yaml:"log_level"`
	Seed             string             `json:"seed" yaml:"seed"`
	ExcludeLargest   int                `json:"exclude_largest" yaml:"exclude_largest"`
	GravityScale     float64            `json:"gravity_scale" yaml:"gravity_scale"`
	LauncherInterval Duration           `json:"launcher_interval" yaml:"launcher_interval"`
	StepInterval     Duration           `json:"step_interval" yaml:"step_interval"`
	Placement        string             `json:"placement" yaml:"placement"`
	Verify           bool               `json:"verify" yaml:"verify"`
	Arena            Arena              `json:"arena" yaml:"arena"`
	Kinds            []kinds.Definition `json:"kinds,omitempty" yaml:"kinds,omitempty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Addr:             "127.0.0.1:8080",
		MaxClients:       1000,
		LogLevel:         "info",
		ExcludeLargest:   kinds.DefaultExcludeLargest,
		GravityScale:     physics.DefaultGravityScale,
		LauncherInterval: Duration(spawn.DefaultLaunchInterval),
		StepInterval:     Duration(16 * time.Millisecond),
		Placement:        resolver.PlaceAtContact.String(),
		Arena:            Arena{Width: 720, Height: 1280, Cell: 32, Margin: 64},
	}
}

// LoadJSON reads a JSON document over the defaults.
func LoadJSON(r io.Reader) (Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

// LoadYAML reads a YAML document over the defaults.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

// LoadFile picks the decoder by extension: .json is JSON, anything else YAML.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}

// Validate checks ranges and builds the kind table to catch catalog errors.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.MaxClients <= 0 {
		errs = append(errs, fmt.Errorf("max_clients must be positive, got %d", c.MaxClients))
	}
	if c.GravityScale <= 0 {
		errs = append(errs, fmt.Errorf("gravity_scale must be positive, got %v", c.GravityScale))
	}
	if c.LauncherInterval <= 0 {
		errs = append(errs, fmt.Errorf("launcher_interval must be positive, got %s", c.LauncherInterval))
	}
	if c.StepInterval < 0 {
		errs = append(errs, fmt.Errorf("step_interval must not be negative, got %s", c.StepInterval))
	}
	if _, ok := resolver.ParsePlacement(c.Placement); !ok {
		errs = append(errs, fmt.Errorf("unknown placement %q", c.Placement))
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		errs = append(errs, fmt.Errorf("arena must have positive size, got %vx%v", c.Arena.Width, c.Arena.Height))
	}
	if c.Arena.Cell < 0 || c.Arena.Margin < 0 {
		errs = append(errs, errors.New("arena cell and margin must not be negative"))
	}
	if _, err := c.Table(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Palette(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Definitions returns Kinds, or the fruit catalog when Kinds is empty.
func (c Config) Definitions() []kinds.Definition {
	if len(c.Kinds) == 0 {
		return kinds.FruitDefinitions()
	}
	return c.Kinds
}

func (c Config) Table() (*kinds.Table, error) {
	return kinds.NewTable(c.Definitions(), c.ExcludeLargest)
}

func (c Config) Palette() (*kinds.Palette, error) {
	return kinds.NewPalette(c.Definitions())
}

func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

func (c Config) PlacementMode() resolver.Placement {
	p, _ := resolver.ParsePlacement(c.Placement)
	return p
}
