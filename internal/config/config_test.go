package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5555,
			MaxPlayers:   4,
			WriteTimeout: 10 * time.Second,
		},
		Game: GameConfig{
			TimeLimit:       3 * time.Minute,
			Countdown:       5 * time.Second,
			CooldownGrace:   10 * time.Second,
			MapWidth:        50,
			MapHeight:       40,
			InitialStations: 3,
		},
		Questions: QuestionsConfig{
			Path: "content/questions.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:5555", cfg.Server.Addr())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Server.MaxPlayers)
	assert.Equal(t, 3*time.Minute, cfg.Game.TimeLimit)
	assert.Equal(t, 50, cfg.Game.MapWidth)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 6000
  max_players: 8
game:
  time_limit: 90s
  countdown: 3s
  cooldown_grace: 5s
  map_width: 30
  map_height: 20
  initial_stations: 5
questions:
  path: /tmp/bank.yaml
logging:
  level: debug
  format: console
`), 0o644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6000", cfg.Server.Addr())
	assert.Equal(t, 8, cfg.Server.MaxPlayers)
	assert.Equal(t, 90*time.Second, cfg.Game.TimeLimit)
	assert.Equal(t, 3*time.Second, cfg.Game.Countdown)
	assert.Equal(t, 5, cfg.Game.InitialStations)
	assert.Equal(t, "/tmp/bank.yaml", cfg.Questions.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	err := os.WriteFile(path, []byte("server:\n  port: 7777\n"), 0o644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.MaxPlayers)
	assert.Equal(t, 5*time.Second, cfg.Game.Countdown)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateRejectsZeroCapacity(t *testing.T) {
	cfg := validConfig()
	cfg.Server.MaxPlayers = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_players")
}

func TestValidateRejectsNonPositiveTimeLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Game.TimeLimit = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time_limit")
}

func TestValidateRejectsTinyMap(t *testing.T) {
	cfg := validConfig()
	cfg.Game.MapWidth = 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2x2")
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	cfg.Game.Countdown = 0
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "game.countdown")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidatePortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Server.Port = rapid.IntRange(1, 65535).Draw(t, "port")
		assert.NoError(t, cfg.Validate())
	})
}
