package config

import (
	"flag"
	"fmt"
	"io"
)

// Environment variables read by Resolve.
const (
	EnvConfig   = "SUIKA_CONFIG"
	EnvAddr     = "SUIKA_ADDR"
	EnvLogLevel = "SUIKA_LOG_LEVEL"
	EnvSeed     = "SUIKA_SEED"
	EnvToken    = "SUIKA_TOKEN"
)

// override is one setting that can come from a flag or the environment.
type override struct {
	flagName    string
	envVarName  string
	description string
	setter      func(*Config, string)
}

var overrides = []override{
	{
		flagName:    "addr",
		envVarName:  EnvAddr,
		description: "listen address (e.g. :8080)",
		setter:      func(c *Config, v string) { c.Addr = v },
	},
	{
		flagName:    "log-level",
		envVarName:  EnvLogLevel,
		description: "log level: debug, info, warn, error",
		setter:      func(c *Config, v string) { c.LogLevel = v },
	},
	{
		flagName:    "seed",
		envVarName:  EnvSeed,
		description: "spawn seed; empty draws a random one",
		setter:      func(c *Config, v string) { c.Seed = v },
	},
	{
		flagName:    "token",
		envVarName:  EnvToken,
		description: "shared token required on /ws; empty disables the check",
		setter:      func(c *Config, v string) { c.Token = v },
	},
}

// Resolve builds the configuration from args and getenv. The file named by
// -config (or SUIKA_CONFIG) is loaded over the defaults, then environment
// variables, then flags are applied. The result is validated.
func Resolve(args []string, getenv func(string) string) (Config, error) {
	fs := flag.NewFlagSet("suika", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "path to a YAML or JSON config file")
	flagVars := make(map[string]*string, len(overrides))
	for _, o := range overrides {
		flagVars[o.flagName] = fs.String(o.flagName, "", o.description)
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if *path == "" {
		*path = getenv(EnvConfig)
	}
	cfg := Default()
	if *path != "" {
		var err error
		if cfg, err = LoadFile(*path); err != nil {
			return Config{}, err
		}
	}

	for _, o := range overrides {
		if v := *flagVars[o.flagName]; v != "" {
			o.setter(&cfg, v)
		} else if v = getenv(o.envVarName); v != "" {
			o.setter(&cfg, v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
