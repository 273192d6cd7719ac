// Package materialize turns stored definitions into the instances of one
// day and answers which sleep schedule applies to it.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

type Store interface {
	ListDefinitions(ctx context.Context, filter storage.DefinitionListFilter) ([]model.TaskDefinition, error)
	ListInstances(ctx context.Context, filter storage.InstanceListFilter) ([]model.TaskInstance, error)
	ApplyDayChanges(ctx context.Context, changes storage.DayChanges) error
	GetSleepSchedule(ctx context.Context, scope storage.SleepScope) (model.SleepSchedule, error)
}

type Materializer interface {
	Materialize(defs []model.TaskDefinition, existing []model.TaskInstance, date model.Date, newID func() string) scheduler.Materialization
}

type Provider struct {
	store  Store
	engine Materializer
	newID  func() string
	log    zerolog.Logger

	mu           sync.RWMutex
	defaultSleep model.SleepSchedule
}

type Option func(*Provider)

func WithIDGenerator(fn func() string) Option {
	return func(p *Provider) {
		if fn != nil {
			p.newID = fn
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

func NewProvider(store Store, engine Materializer, defaultSleep model.SleepSchedule, opts ...Option) *Provider {
	p := &Provider{
		store:        store,
		engine:       engine,
		newID:        uuid.NewString,
		log:          zerolog.Nop(),
		defaultSleep: defaultSleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Regenerate brings the stored instances of date in line with the current
// definitions and returns what changed.
func (p *Provider) Regenerate(ctx context.Context, date model.Date) (scheduler.Materialization, error) {
	_, m, err := p.regenerate(ctx, date)
	return m, err
}

// DayTasks regenerates date and joins its instances with their definitions.
func (p *Provider) DayTasks(ctx context.Context, date model.Date) ([]model.DayTask, error) {
	defs, m, err := p.regenerate(ctx, date)
	if err != nil {
		return nil, err
	}
	tasks, orphans := scheduler.Join(defs, m.Instances())
	if len(orphans) > 0 {
		p.log.Warn().Str("date", date.String()).Int("orphans", len(orphans)).Msg("instances without definition")
	}
	return tasks, nil
}

func (p *Provider) regenerate(ctx context.Context, date model.Date) ([]model.TaskDefinition, scheduler.Materialization, error) {
	defs, err := p.store.ListDefinitions(ctx, storage.DefinitionListFilter{})
	if err != nil {
		return nil, scheduler.Materialization{}, fmt.Errorf("list definitions: %w", err)
	}
	existing, err := p.store.ListInstances(ctx, storage.InstanceListFilter{Date: &date})
	if err != nil {
		return nil, scheduler.Materialization{}, fmt.Errorf("list instances for %s: %w", date, err)
	}

	m := p.engine.Materialize(defs, existing, date, p.newID)
	if !m.Changed() {
		return defs, m, nil
	}
	changes := storage.DayChanges{Create: m.Create}
	for _, inst := range m.Drop {
		changes.Delete = append(changes.Delete, inst.ID)
	}
	if err := p.store.ApplyDayChanges(ctx, changes); err != nil {
		return nil, scheduler.Materialization{}, fmt.Errorf("store instances for %s: %w", date, err)
	}
	if len(m.Create) > 0 {
		// Another writer may have materialized the same day in between.
		stored, err := p.store.ListInstances(ctx, storage.InstanceListFilter{Date: &date})
		if err != nil {
			return nil, scheduler.Materialization{}, fmt.Errorf("list instances for %s: %w", date, err)
		}
		m = settle(m, stored)
	}
	p.log.Info().
		Str("date", date.String()).
		Int("created", len(m.Create)).
		Int("dropped", len(m.Drop)).
		Msg("day regenerated")
	return defs, m, nil
}

// settle rebuilds m from the rows actually stored. Only instances this call
// inserted count as created.
func settle(m scheduler.Materialization, stored []model.TaskInstance) scheduler.Materialization {
	created := make(map[string]bool, len(m.Create))
	for _, inst := range m.Create {
		created[inst.ID] = true
	}
	out := scheduler.Materialization{Drop: m.Drop}
	for _, inst := range stored {
		if created[inst.ID] {
			out.Create = append(out.Create, inst)
		} else {
			out.Keep = append(out.Keep, inst)
		}
	}
	return out
}

// SleepSchedule prefers a per-date override, then the stored default, then
// the configured default.
func (p *Provider) SleepSchedule(ctx context.Context, date model.Date) (model.SleepSchedule, error) {
	for _, scope := range []storage.SleepScope{storage.DateSleepScope(date), storage.DefaultSleepScope()} {
		s, err := p.store.GetSleepSchedule(ctx, scope)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return model.SleepSchedule{}, fmt.Errorf("sleep schedule for %s: %w", date, err)
		}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defaultSleep, nil
}

func (p *Provider) SetDefaultSleep(s model.SleepSchedule) {
	p.mu.Lock()
	p.defaultSleep = s
	p.mu.Unlock()
}
