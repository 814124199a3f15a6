// Package config provides Viper-based configuration loading for the quiz
// game server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds TCP listener settings.
type ServerConfig struct {
	// Host is the bind address for the TCP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the listener.
	Port int `mapstructure:"port"`
	// MaxPlayers is the connection capacity; further connections are
	// rejected with an informational message.
	MaxPlayers int `mapstructure:"max_players"`
	// WriteTimeout is the per-frame write deadline for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds session rules and world geometry.
type GameConfig struct {
	// TimeLimit is the duration of the Active phase.
	TimeLimit time.Duration `mapstructure:"time_limit"`
	// Countdown is the lobby-to-active countdown duration, broadcast once
	// per second.
	Countdown time.Duration `mapstructure:"countdown"`
	// CooldownGrace is how long a player is barred from re-claiming a
	// station after an incorrect answer or a cancelled claim.
	CooldownGrace time.Duration `mapstructure:"cooldown_grace"`
	// MapWidth and MapHeight are the grid dimensions in cells.
	MapWidth  int `mapstructure:"map_width"`
	MapHeight int `mapstructure:"map_height"`
	// InitialStations is how many bank questions are placed as stations at
	// session start; the rest replenish as stations are answered.
	InitialStations int `mapstructure:"initial_stations"`
}

// QuestionsConfig holds quiz content settings.
type QuestionsConfig struct {
	// Path is the YAML question bank file. An empty or missing file yields
	// a zero-station session.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	Questions QuestionsConfig `mapstructure:"questions"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.MaxPlayers < 1 {
		errs = append(errs, fmt.Sprintf("server.max_players must be >= 1, got %d", s.MaxPlayers))
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.TimeLimit <= 0 {
		errs = append(errs, fmt.Sprintf("game.time_limit must be positive, got %s", g.TimeLimit))
	}
	if g.Countdown <= 0 {
		errs = append(errs, fmt.Sprintf("game.countdown must be positive, got %s", g.Countdown))
	}
	if g.CooldownGrace < 0 {
		errs = append(errs, "game.cooldown_grace must not be negative")
	}
	if g.MapWidth < 2 || g.MapHeight < 2 {
		errs = append(errs, fmt.Sprintf("game map must be at least 2x2, got %dx%d", g.MapWidth, g.MapHeight))
	}
	if g.InitialStations < 0 {
		errs = append(errs, fmt.Sprintf("game.initial_stations must be >= 0, got %d", g.InitialStations))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GRIDQUIZ_ prefix
	v.SetEnvPrefix("GRIDQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration used when no config file is
// given on the command line.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Unmarshalling pure defaults cannot fail; the result is still expected
	// to pass Validate whenever the defaults are edited.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5555)
	v.SetDefault("server.max_players", 4)
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("game.time_limit", "3m")
	v.SetDefault("game.countdown", "5s")
	v.SetDefault("game.cooldown_grace", "10s")
	v.SetDefault("game.map_width", 50)
	v.SetDefault("game.map_height", 40)
	v.SetDefault("game.initial_stations", 3)

	v.SetDefault("questions.path", "content/questions.yaml")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
