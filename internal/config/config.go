// Package config loads dayplan settings from defaults, an optional YAML file
// and DAYPLAN_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/dayplan/internal/logging"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/recurrence"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const DefaultPath = "dayplan.yaml"

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SchedulerConfig struct {
	SlotIncrementMinutes int `yaml:"slot_increment_minutes"`
	BufferMinutes        int `yaml:"buffer_minutes"`
	HorizonYears         int `yaml:"horizon_years"`
}

type CacheConfig struct {
	Size int `yaml:"size"`
}

// RolloverConfig controls the job that prepares the next day.
type RolloverConfig struct {
	Enabled bool            `yaml:"enabled"`
	At      model.ClockTime `yaml:"at"`
}

// AlarmConfig sizes the boundary event buffer. Desktop sends boundary
// notifications through notify-send or osascript as well as the TUI.
type AlarmConfig struct {
	Buffer  int  `yaml:"buffer"`
	Desktop bool `yaml:"desktop"`
}

type Config struct {
	Database     DatabaseConfig      `yaml:"database"`
	Log          logging.Config      `yaml:"log"`
	Sleep        model.SleepSchedule `yaml:"sleep"`
	Scheduler    SchedulerConfig     `yaml:"scheduler"`
	Cache        CacheConfig         `yaml:"cache"`
	Rollover     RolloverConfig      `yaml:"rollover"`
	Alarm        AlarmConfig         `yaml:"alarm"`
	Timezone     string              `yaml:"timezone"`
	PreviewCount int                 `yaml:"preview_count"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "dayplan.db"},
		Log:      logging.Config{Level: "info", Format: "console"},
		Sleep:    model.SleepSchedule{Wake: model.NewClock(7, 0), Sleep: model.NewClock(23, 0)},
		Scheduler: SchedulerConfig{
			SlotIncrementMinutes: 5,
			BufferMinutes:        5,
			HorizonYears:         recurrence.DefaultHorizonYears,
		},
		Cache:        CacheConfig{Size: 64},
		Rollover:     RolloverConfig{Enabled: true, At: model.NewClock(0, 5)},
		Alarm:        AlarmConfig{Buffer: 64},
		PreviewCount: 5,
	}
}

// Load reads path on top of Default, applies environment overrides and
// validates the result. A missing file at DefaultPath is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		parsed, err := Parse(path, cfg)
		switch {
		case err == nil:
			cfg = parsed
		case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		default:
			return Config{}, err
		}
	}
	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes the YAML file at path over base. Unknown keys are rejected.
func Parse(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(b, base)
}

func Decode(b []byte, base Config) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("DAYPLAN_DB"); ok {
		cfg.Database.Path = v
	}
	if v, ok := getEnvString("DAYPLAN_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := getEnvString("DAYPLAN_LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := getEnvString("DAYPLAN_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := getEnvClock("DAYPLAN_WAKE"); ok {
		cfg.Sleep.Wake = v
	}
	if v, ok := getEnvClock("DAYPLAN_SLEEP"); ok {
		cfg.Sleep.Sleep = v
	}
	if v, ok := getEnvInt("DAYPLAN_SLOT_INCREMENT"); ok && v > 0 {
		cfg.Scheduler.SlotIncrementMinutes = v
	}
	if v, ok := getEnvInt("DAYPLAN_BUFFER_MINUTES"); ok && v >= 0 {
		cfg.Scheduler.BufferMinutes = v
	}
	if v, ok := getEnvInt("DAYPLAN_CACHE_SIZE"); ok && v > 0 {
		cfg.Cache.Size = v
	}
	if v, ok := getEnvBool("DAYPLAN_ROLLOVER"); ok {
		cfg.Rollover.Enabled = v
	}
	if v, ok := getEnvClock("DAYPLAN_ROLLOVER_AT"); ok {
		cfg.Rollover.At = v
	}
	if v, ok := getEnvInt("DAYPLAN_ALARM_BUFFER"); ok && v > 0 {
		cfg.Alarm.Buffer = v
	}
	if v, ok := getEnvBool("DAYPLAN_DESKTOP_NOTIFY"); ok {
		cfg.Alarm.Desktop = v
	}
	if v, ok := getEnvString("DAYPLAN_TIMEZONE"); ok {
		cfg.Timezone = v
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Sleep.Wake < 0 || c.Sleep.Wake >= model.EndOfDay || c.Sleep.Sleep < 0 || c.Sleep.Sleep > model.EndOfDay {
		return fmt.Errorf("%w: sleep %s-%s", ErrInvalidConfig, c.Sleep.Wake, c.Sleep.Sleep)
	}
	if c.Sleep.Wake == c.Sleep.Sleep {
		return fmt.Errorf("%w: wake and sleep are both %s", ErrInvalidConfig, c.Sleep.Wake)
	}
	if c.Scheduler.SlotIncrementMinutes <= 0 || c.Scheduler.SlotIncrementMinutes > 60 {
		return fmt.Errorf("%w: scheduler.slot_increment_minutes %d", ErrInvalidConfig, c.Scheduler.SlotIncrementMinutes)
	}
	if c.Scheduler.BufferMinutes < 0 {
		return fmt.Errorf("%w: scheduler.buffer_minutes %d", ErrInvalidConfig, c.Scheduler.BufferMinutes)
	}
	if c.Scheduler.HorizonYears <= 0 {
		return fmt.Errorf("%w: scheduler.horizon_years %d", ErrInvalidConfig, c.Scheduler.HorizonYears)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("%w: cache.size %d", ErrInvalidConfig, c.Cache.Size)
	}
	if c.Rollover.At < 0 || c.Rollover.At >= model.EndOfDay {
		return fmt.Errorf("%w: rollover.at %s", ErrInvalidConfig, c.Rollover.At)
	}
	if c.Alarm.Buffer <= 0 {
		return fmt.Errorf("%w: alarm.buffer %d", ErrInvalidConfig, c.Alarm.Buffer)
	}
	if c.PreviewCount <= 0 {
		return fmt.Errorf("%w: preview_count %d", ErrInvalidConfig, c.PreviewCount)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

// Location resolves Timezone. Empty and "Local" mean the process zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
