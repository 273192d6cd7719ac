package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

// minPrefix is the shortest id prefix accepted as a target.
const minPrefix = 4

type Store interface {
	ListInstances(ctx context.Context, filter storage.InstanceListFilter) ([]model.TaskInstance, error)
	UpdateInstance(ctx context.Context, in model.TaskInstance) error
	GetDefinition(ctx context.Context, id string) (model.TaskDefinition, error)
	SetSleepSchedule(ctx context.Context, scope storage.SleepScope, in model.SleepSchedule) error
	DeleteSleepSchedule(ctx context.Context, scope storage.SleepScope) error
}

type Occurrences interface {
	NextOccurrenceOnOrAfter(def model.TaskDefinition, from model.Date) (model.Date, bool)
}

// Invalidator drops cached plans for a date after its inputs change.
type Invalidator interface {
	Invalidate(date model.Date) int
}

// Actions carries out palette commands against the store for one day.
type Actions struct {
	store Store
	rec   Occurrences
	cache Invalidator
	log   zerolog.Logger
}

type Option func(*Actions)

func WithLogger(l zerolog.Logger) Option {
	return func(a *Actions) { a.log = l }
}

func NewActions(store Store, rec Occurrences, cache Invalidator, opts ...Option) *Actions {
	a := &Actions{store: store, rec: rec, cache: cache, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handlers binds every command to date.
func (a *Actions) Handlers(ctx context.Context, date model.Date) Handlers {
	return Handlers{
		Status: func(args StatusArgs) (Result, error) { return a.SetStatus(ctx, date, args) },
		Move:   func(args MoveArgs) (Result, error) { return a.Move(ctx, date, args) },
		Unpin:  func(args UnpinArgs) (Result, error) { return a.Unpin(ctx, date, args) },
		Goto: func(args GotoArgs) (Result, error) {
			to := args.From(date)
			return Result{Message: "showing " + to.String(), Date: to}, nil
		},
		Next:  func(args NextArgs) (Result, error) { return a.Next(ctx, date, args) },
		Sleep: func(args SleepArgs) (Result, error) { return a.SetSleep(ctx, date, args) },
	}
}

func (a *Actions) SetStatus(ctx context.Context, date model.Date, args StatusArgs) (Result, error) {
	inst, err := a.Resolve(ctx, date, args.Target)
	if err != nil {
		return Result{}, err
	}
	if inst.Status == args.Status {
		return Result{Message: fmt.Sprintf("%s already %s", inst.TemplateID, inst.Status)}, nil
	}
	inst.Status = args.Status
	if err := a.save(ctx, inst); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("%s marked %s", inst.TemplateID, inst.Status)}, nil
}

func (a *Actions) Move(ctx context.Context, date model.Date, args MoveArgs) (Result, error) {
	inst, err := a.Resolve(ctx, date, args.Target)
	if err != nil {
		return Result{}, err
	}
	at := args.At
	inst.ScheduledTimeOverride = &at
	if err := a.save(ctx, inst); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("%s pinned at %s", inst.TemplateID, at)}, nil
}

func (a *Actions) Unpin(ctx context.Context, date model.Date, args UnpinArgs) (Result, error) {
	inst, err := a.Resolve(ctx, date, args.Target)
	if err != nil {
		return Result{}, err
	}
	if inst.ScheduledTimeOverride == nil {
		return Result{Message: inst.TemplateID + " is not pinned"}, nil
	}
	inst.ScheduledTimeOverride = nil
	if err := a.save(ctx, inst); err != nil {
		return Result{}, err
	}
	return Result{Message: inst.TemplateID + " unpinned"}, nil
}

// Next finds the first occurrence of a template after date and moves there.
func (a *Actions) Next(ctx context.Context, date model.Date, args NextArgs) (Result, error) {
	def, err := a.store.GetDefinition(ctx, args.Template)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{}, &CommandError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no task template %q", args.Template)}
	}
	if err != nil {
		return Result{}, err
	}
	next, ok := a.rec.NextOccurrenceOnOrAfter(def, date.AddDays(1))
	if !ok {
		return Result{Message: fmt.Sprintf("%s does not occur again", def.ID)}, nil
	}
	return Result{Message: fmt.Sprintf("%s next occurs %s", def.ID, next), Date: next}, nil
}

func (a *Actions) SetSleep(ctx context.Context, date model.Date, args SleepArgs) (Result, error) {
	scope := storage.DateSleepScope(date)
	if args.Reset {
		err := a.store.DeleteSleepSchedule(ctx, scope)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Result{}, err
		}
		a.invalidate(date)
		return Result{Message: "sleep override cleared for " + date.String()}, nil
	}
	if err := a.store.SetSleepSchedule(ctx, scope, args.Schedule); err != nil {
		return Result{}, err
	}
	a.invalidate(date)
	return Result{Message: fmt.Sprintf("awake %s-%s on %s", args.Schedule.Wake, args.Schedule.Sleep, date)}, nil
}

// Resolve finds the instance on date named by target: an exact instance id,
// then a template id, then a unique id prefix.
func (a *Actions) Resolve(ctx context.Context, date model.Date, target string) (model.TaskInstance, error) {
	target = strings.TrimSpace(target)
	list, err := a.store.ListInstances(ctx, storage.InstanceListFilter{Date: &date})
	if err != nil {
		return model.TaskInstance{}, err
	}
	for _, inst := range list {
		if inst.ID == target {
			return inst, nil
		}
	}
	for _, inst := range list {
		if strings.EqualFold(inst.TemplateID, target) {
			return inst, nil
		}
	}
	if len(target) >= minPrefix {
		var matches []model.TaskInstance
		for _, inst := range list {
			if strings.HasPrefix(inst.ID, target) {
				matches = append(matches, inst)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return model.TaskInstance{}, &CommandError{Code: ErrCodeAmbiguousTarget, Message: fmt.Sprintf("%q matches %d tasks", target, len(matches))}
		}
	}
	return model.TaskInstance{}, &CommandError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no task %q on %s", target, date)}
}

func (a *Actions) save(ctx context.Context, inst model.TaskInstance) error {
	if err := a.store.UpdateInstance(ctx, inst); err != nil {
		return fmt.Errorf("update instance %s: %w", inst.ID, err)
	}
	a.invalidate(inst.Date)
	a.log.Debug().Str("instance", inst.ID).Str("status", string(inst.Status)).Msg("instance updated")
	return nil
}

func (a *Actions) invalidate(date model.Date) {
	if a.cache != nil {
		a.cache.Invalidate(date)
	}
}
