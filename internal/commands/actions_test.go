package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/recurrence"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

type countingCache struct{ dates []model.Date }

func (c *countingCache) Invalidate(date model.Date) int {
	c.dates = append(c.dates, date)
	return 1
}

var day = model.NewDate(2026, time.February, 10)

func setupActions(t *testing.T) (*storage.SQLiteRepository, *Actions, *countingCache) {
	t.Helper()
	repo, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := storage.MigrateUp(repo.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	for _, id := range []string{"gym", "review"} {
		def := model.TaskDefinition{
			ID:              id,
			Title:           id,
			SchedulingType:  model.SchedulingFlexible,
			TimeWindow:      model.WindowAnytime,
			DurationMinutes: 30,
			Priority:        3,
			Recurrence:      model.RecurrenceRule{Frequency: model.FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Tuesday}},
			StartDate:       model.NewDate(2026, time.January, 1),
			Active:          true,
		}
		if err := repo.CreateDefinition(ctx, def); err != nil {
			t.Fatalf("create definition: %v", err)
		}
	}
	for id, tmpl := range map[string]string{"a1b2c3d4": "gym", "a1b2ffff": "review"} {
		inst := model.TaskInstance{ID: id, TemplateID: tmpl, Date: day, Status: model.StatusPending}
		if err := repo.CreateInstance(ctx, inst); err != nil {
			t.Fatalf("create instance: %v", err)
		}
	}
	cache := &countingCache{}
	return repo, NewActions(repo, recurrence.NewEngine(), cache), cache
}

func run(t *testing.T, a *Actions, input string) (Result, error) {
	t.Helper()
	cmd, err := Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return Execute(cmd, a.Handlers(context.Background(), day))
}

func TestActionsStatusByTemplate(t *testing.T) {
	repo, a, cache := setupActions(t)
	if _, err := run(t, a, "done gym"); err != nil {
		t.Fatalf("done: %v", err)
	}
	got, err := repo.GetInstance(context.Background(), "a1b2c3d4")
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if len(cache.dates) != 1 || cache.dates[0] != day {
		t.Fatalf("expected one invalidation of %s, got %v", day, cache.dates)
	}

	res, err := run(t, a, "done gym")
	if err != nil {
		t.Fatalf("repeat done: %v", err)
	}
	if res.Message != "gym already completed" || len(cache.dates) != 1 {
		t.Fatalf("repeat should be a no-op, got %q with %d invalidations", res.Message, len(cache.dates))
	}
}

func TestActionsResolvePrefix(t *testing.T) {
	_, a, _ := setupActions(t)
	ctx := context.Background()

	inst, err := a.Resolve(ctx, day, "a1b2c")
	if err != nil || inst.ID != "a1b2c3d4" {
		t.Fatalf("resolve unique prefix: %+v %v", inst, err)
	}

	var ce *CommandError
	_, err = a.Resolve(ctx, day, "a1b2")
	if !errors.As(err, &ce) || ce.Code != ErrCodeAmbiguousTarget {
		t.Fatalf("expected ambiguous target, got %v", err)
	}
	_, err = a.Resolve(ctx, day, "a1")
	if !errors.As(err, &ce) || ce.Code != ErrCodeNotFound {
		t.Fatalf("short prefix should not match, got %v", err)
	}
	_, err = a.Resolve(ctx, day.AddDays(1), "gym")
	if !errors.As(err, &ce) || ce.Code != ErrCodeNotFound {
		t.Fatalf("expected not found on another day, got %v", err)
	}
}

func TestActionsMoveAndUnpin(t *testing.T) {
	repo, a, _ := setupActions(t)
	ctx := context.Background()
	if _, err := run(t, a, "move review 14:30"); err != nil {
		t.Fatalf("move: %v", err)
	}
	got, _ := repo.GetInstance(ctx, "a1b2ffff")
	if got.ScheduledTimeOverride == nil || *got.ScheduledTimeOverride != model.NewClock(14, 30) {
		t.Fatalf("override not stored: %+v", got.ScheduledTimeOverride)
	}

	if _, err := run(t, a, "unpin review"); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	got, _ = repo.GetInstance(ctx, "a1b2ffff")
	if got.ScheduledTimeOverride != nil {
		t.Fatalf("override still set: %v", *got.ScheduledTimeOverride)
	}
}

func TestActionsGotoAndNext(t *testing.T) {
	_, a, _ := setupActions(t)
	res, err := run(t, a, "goto tomorrow")
	if err != nil || res.Date != day.AddDays(1) {
		t.Fatalf("goto: %+v %v", res, err)
	}

	res, err = run(t, a, "next gym")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := day.AddDays(7); res.Date != want {
		t.Fatalf("next gym = %s, want %s", res.Date, want)
	}

	_, err = run(t, a, "next nothing")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActionsSleepOverride(t *testing.T) {
	repo, a, cache := setupActions(t)
	ctx := context.Background()
	if _, err := run(t, a, "sleep 09:00 01:00"); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	got, err := repo.GetSleepSchedule(ctx, storage.DateSleepScope(day))
	if err != nil {
		t.Fatalf("get sleep: %v", err)
	}
	if got.Wake != model.NewClock(9, 0) || got.Sleep != model.NewClock(1, 0) {
		t.Fatalf("unexpected sleep schedule: %+v", got)
	}

	if _, err := run(t, a, "sleep reset"); err != nil {
		t.Fatalf("sleep reset: %v", err)
	}
	if _, err := run(t, a, "sleep reset"); err != nil {
		t.Fatalf("second reset should be a no-op: %v", err)
	}
	if _, err := repo.GetSleepSchedule(ctx, storage.DateSleepScope(day)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("override still present: %v", err)
	}
	if len(cache.dates) != 3 {
		t.Fatalf("expected 3 invalidations, got %d", len(cache.dates))
	}
}
