// Package config handles loading studytrack's config.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jwulff/studytrack/internal/session"
	"github.com/jwulff/studytrack/internal/subject"
)

// ErrInvalidMinutes is returned by ParseMinutes for unusable input.
var ErrInvalidMinutes = errors.New("minutes must be a whole number between 1 and 999")

const maxMinutes = 999

// Config represents the config.toml file.
type Config struct {
	Timer Timer `toml:"timer"`
	Exam  Exam  `toml:"exam"`
	Log   Log   `toml:"log"`
}

// Timer contains the session cycle settings.
type Timer struct {
	WorkMinutes       int `toml:"work-minutes"`
	ShortBreakMinutes int `toml:"short-break-minutes"`
	LongBreakMinutes  int `toml:"long-break-minutes"`
	// AlarmSeconds bounds how long the alarm sounds when an interval ends.
	AlarmSeconds int    `toml:"alarm-seconds"`
	Subject      string `toml:"subject"`
}

// Exam configures the optional countdown on the timer tab.
type Exam struct {
	Label string    `toml:"label"`
	Date  time.Time `toml:"date"`
}

// Log contains logging settings.
type Log struct {
	Level string `toml:"level"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	d := session.DefaultConfig()
	return Config{
		Timer: Timer{
			WorkMinutes:       d.WorkMinutes,
			ShortBreakMinutes: d.ShortBreakMinutes,
			LongBreakMinutes:  d.LongBreakMinutes,
			AlarmSeconds:      int(session.DefaultAlarmDuration / time.Second),
			Subject:           string(subject.Default()),
		},
		Log: Log{Level: "info"},
	}
}

// DataDir resolves the data directory: the flag value, then $STUDYTRACK_DIR,
// then the user config directory.
func DataDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("STUDYTRACK_DIR"); env != "" {
		return env, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	return filepath.Join(base, "studytrack"), nil
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err == nil {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if env := os.Getenv("STUDYTRACK_LOG_LEVEL"); env != "" {
		cfg.Log.Level = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks durations and the subject name.
func (c *Config) Validate() error {
	if err := c.Session().Validate(); err != nil {
		return err
	}
	if c.Timer.AlarmSeconds <= 0 {
		return fmt.Errorf("alarm-seconds must be positive, got %d", c.Timer.AlarmSeconds)
	}
	subj, err := subject.Parse(c.Timer.Subject)
	if err != nil {
		return err
	}
	c.Timer.Subject = string(subj)
	return nil
}

// Session returns the timer settings as an engine config.
func (c *Config) Session() session.Config {
	return session.Config{
		WorkMinutes:       c.Timer.WorkMinutes,
		ShortBreakMinutes: c.Timer.ShortBreakMinutes,
		LongBreakMinutes:  c.Timer.LongBreakMinutes,
	}
}

// Subject returns the configured starting subject.
func (c *Config) Subject() subject.Subject {
	s, err := subject.Parse(c.Timer.Subject)
	if err != nil {
		return subject.Default()
	}
	return s
}

// AlarmDuration returns the bounded alarm length.
func (c *Config) AlarmDuration() time.Duration {
	return time.Duration(c.Timer.AlarmSeconds) * time.Second
}

// ParseMinutes parses a duration field typed by the user.
func ParseMinutes(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > maxMinutes {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMinutes, input)
	}
	return n, nil
}
