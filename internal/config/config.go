package config

import (
    "fmt"
    "strings"
    "time"

    "github.com/spf13/pflag"
    "github.com/spf13/viper"

    "github.com/jaminalder/codex-gomoku/internal/app"
)

const (
    ConfigAddr        = "addr"
    ConfigWidth       = "width"
    ConfigHeight      = "height"
    ConfigDepth       = "depth"
    ConfigEngineSide  = "engine-side"
    ConfigDebug       = "debug"
    ConfigHeartbeat   = "heartbeat"
    ConfigHistoryFile = "history-file"
)

// Config holds runtime settings. Values come from, in order of precedence,
// command-line flags, GOMOKU_* environment variables and defaults.
type Config struct {
    viper.Viper
}

// DefaultConfig returns a config populated with defaults only.
func DefaultConfig() *Config {
    c := &Config{Viper: *viper.New()}
    c.setDefaults()
    return c
}

func (c *Config) setDefaults() {
    c.SetDefault(ConfigAddr, ":8080")
    c.SetDefault(ConfigWidth, 16)
    c.SetDefault(ConfigHeight, 16)
    c.SetDefault(ConfigDepth, 2)
    c.SetDefault(ConfigEngineSide, "black")
    c.SetDefault(ConfigDebug, false)
    c.SetDefault(ConfigHeartbeat, 15*time.Second)
    c.SetDefault(ConfigHistoryFile, "/tmp/gomoku_history.tmp")
}

// Load parses args and the environment into c. Unknown flags are an error.
func (c *Config) Load(args []string) error {
    c.Viper = *viper.New()
    c.setDefaults()
    c.SetEnvPrefix("gomoku")
    c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
    c.AutomaticEnv()

    fs := pflag.NewFlagSet("gomoku", pflag.ContinueOnError)
    fs.String(ConfigAddr, c.GetString(ConfigAddr), "HTTP listen address")
    fs.Int(ConfigWidth, c.GetInt(ConfigWidth), "board width for new games")
    fs.Int(ConfigHeight, c.GetInt(ConfigHeight), "board height for new games")
    fs.Int(ConfigDepth, c.GetInt(ConfigDepth), "minimax depth of the engine")
    fs.String(ConfigEngineSide, c.GetString(ConfigEngineSide), "side the engine plays: black or white")
    fs.Bool(ConfigDebug, c.GetBool(ConfigDebug), "debug logging")
    fs.Duration(ConfigHeartbeat, c.GetDuration(ConfigHeartbeat), "idle ping interval for event streams")
    fs.String(ConfigHistoryFile, c.GetString(ConfigHistoryFile), "shell history file")
    if err := fs.Parse(args); err != nil {
        return err
    }
    if err := c.BindPFlags(fs); err != nil {
        return err
    }
    return c.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
    if w, h := c.GetInt(ConfigWidth), c.GetInt(ConfigHeight); w < 1 || h < 1 || w > app.MaxDimension || h > app.MaxDimension {
        return fmt.Errorf("invalid board size %dx%d, want 1..%d per side", w, h, app.MaxDimension)
    }
    if d := c.GetInt(ConfigDepth); d < 0 || d > app.MaxDepth {
        return fmt.Errorf("invalid depth %d, want 0..%d", d, app.MaxDepth)
    }
    switch strings.ToLower(c.GetString(ConfigEngineSide)) {
    case "black", "white":
    default:
        return fmt.Errorf("invalid engine side %q", c.GetString(ConfigEngineSide))
    }
    return nil
}

// SanitizedSettings returns the settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
    return c.AllSettings()
}
