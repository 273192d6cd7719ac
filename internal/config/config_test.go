package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/recurrence"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.NewClock(7, 0), cfg.Sleep.Wake)
	assert.Equal(t, 5, cfg.Scheduler.SlotIncrementMinutes)
	assert.Equal(t, 64, cfg.Cache.Size)
	assert.Equal(t, recurrence.DefaultHorizonYears, cfg.Scheduler.HorizonYears)
}

func TestLoadMissingDefaultPathFallsBack(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayplan.yaml")
	writeFile(t, path, `
database:
  path: /tmp/plan.db
sleep:
  wake: "06:30"
  sleep: "22:00"
scheduler:
  buffer_minutes: 10
rollover:
  enabled: false
  at: "01:15"
timezone: UTC
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/plan.db", cfg.Database.Path)
	assert.Equal(t, model.NewClock(6, 30), cfg.Sleep.Wake)
	assert.Equal(t, model.NewClock(22, 0), cfg.Sleep.Sleep)
	assert.Equal(t, 10, cfg.Scheduler.BufferMinutes)
	assert.Equal(t, 5, cfg.Scheduler.SlotIncrementMinutes)
	assert.False(t, cfg.Rollover.Enabled)
	assert.Equal(t, model.NewClock(1, 15), cfg.Rollover.At)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode([]byte("databse:\n  path: x\n"), Default())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDecodeEmptyDocumentKeepsBase(t *testing.T) {
	cfg, err := Decode(nil, Default())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsBadClock(t *testing.T) {
	_, err := Decode([]byte("sleep:\n  wake: \"25:00\"\n"), Default())
	require.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DAYPLAN_DB", "env.db")
	t.Setenv("DAYPLAN_WAKE", "05:45")
	t.Setenv("DAYPLAN_SLOT_INCREMENT", "10")
	t.Setenv("DAYPLAN_CACHE_SIZE", "0")
	t.Setenv("DAYPLAN_ROLLOVER", "off")
	t.Setenv("DAYPLAN_LOG_LEVEL", "debug")
	t.Setenv("DAYPLAN_BUFFER_MINUTES", "abc")
	t.Setenv("DAYPLAN_DESKTOP_NOTIFY", "true")

	cfg := FromEnv(Default())
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.Equal(t, model.NewClock(5, 45), cfg.Sleep.Wake)
	assert.Equal(t, 10, cfg.Scheduler.SlotIncrementMinutes)
	assert.Equal(t, 64, cfg.Cache.Size, "non-positive cache size is ignored")
	assert.False(t, cfg.Rollover.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Scheduler.BufferMinutes, "unparsable value is ignored")
	assert.True(t, cfg.Alarm.Desktop)
}

func TestGetEnvBool(t *testing.T) {
	cases := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{"yes", true, true},
		{"ON", true, true},
		{"0", false, true},
		{"n", false, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Setenv("DAYPLAN_TEST_BOOL", tc.raw)
		got, ok := getEnvBool("DAYPLAN_TEST_BOOL")
		assert.Equal(t, tc.wantOK, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty db":       func(c *Config) { c.Database.Path = " " },
		"same wake":      func(c *Config) { c.Sleep.Sleep = c.Sleep.Wake },
		"slot zero":      func(c *Config) { c.Scheduler.SlotIncrementMinutes = 0 },
		"neg buffer":     func(c *Config) { c.Scheduler.BufferMinutes = -1 },
		"cache zero":     func(c *Config) { c.Cache.Size = 0 },
		"rollover 24:00": func(c *Config) { c.Rollover.At = model.EndOfDay },
		"log format":     func(c *Config) { c.Log.Format = "xml" },
		"timezone":       func(c *Config) { c.Timezone = "Mars/Olympus" },
		"preview":        func(c *Config) { c.PreviewCount = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	overnight := Default()
	overnight.Sleep = model.SleepSchedule{Wake: model.NewClock(9, 0), Sleep: model.NewClock(1, 0)}
	assert.NoError(t, overnight.Validate())
}
