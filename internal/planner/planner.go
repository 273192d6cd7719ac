// Package planner memoizes day schedules. A result is cached under its date
// and a digest of every input, so a stale entry can never be served.
package planner

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

const DefaultCacheSize = 64

type Source interface {
	DayTasks(ctx context.Context, date model.Date) ([]model.DayTask, error)
	SleepSchedule(ctx context.Context, date model.Date) (model.SleepSchedule, error)
}

type Scheduler interface {
	Schedule(in scheduler.DayInput) model.ScheduleResult
}

type Key struct {
	Date   model.Date
	Digest [32]byte
}

type Planner struct {
	source Source
	engine Scheduler
	size   int
	cache  *lru.Cache[Key, model.ScheduleResult]
	log    zerolog.Logger
	hits   atomic.Uint64
	misses atomic.Uint64
}

type Option func(*Planner)

func WithCacheSize(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.size = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) { p.log = l }
}

func New(source Source, engine Scheduler, opts ...Option) (*Planner, error) {
	p := &Planner{source: source, engine: engine, size: DefaultCacheSize, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	cache, err := lru.New[Key, model.ScheduleResult](p.size)
	if err != nil {
		return nil, fmt.Errorf("planner cache: %w", err)
	}
	p.cache = cache
	return p, nil
}

// Plan loads the day's inputs and returns its schedule, computing it only
// when the inputs changed since the last call.
func (p *Planner) Plan(ctx context.Context, date model.Date, notBefore int) (model.ScheduleResult, error) {
	tasks, err := p.source.DayTasks(ctx, date)
	if err != nil {
		return model.ScheduleResult{}, err
	}
	sleep, err := p.source.SleepSchedule(ctx, date)
	if err != nil {
		return model.ScheduleResult{}, err
	}
	return p.Schedule(scheduler.DayInput{Date: date, Tasks: tasks, Sleep: sleep, NotBefore: notBefore})
}

// Schedule is Plan for callers that already hold the inputs.
func (p *Planner) Schedule(in scheduler.DayInput) (model.ScheduleResult, error) {
	key, err := KeyFor(in)
	if err != nil {
		return model.ScheduleResult{}, err
	}
	if res, ok := p.cache.Get(key); ok {
		p.hits.Add(1)
		return res, nil
	}
	p.misses.Add(1)
	res := p.engine.Schedule(in)
	p.cache.Add(key, res)
	p.log.Debug().Str("date", in.Date.String()).Msg("schedule cached")
	return res, nil
}

// Invalidate drops every cached schedule for date.
func (p *Planner) Invalidate(date model.Date) int {
	n := 0
	for _, k := range p.cache.Keys() {
		if k.Date == date && p.cache.Remove(k) {
			n++
		}
	}
	return n
}

func (p *Planner) Purge() {
	p.cache.Purge()
}

func (p *Planner) Len() int {
	return p.cache.Len()
}

func (p *Planner) Stats() (hits, misses uint64) {
	return p.hits.Load(), p.misses.Load()
}

type canonicalInput struct {
	Date      model.Date          `json:"date"`
	Sleep     model.SleepSchedule `json:"sleep"`
	NotBefore int                 `json:"not_before"`
	Tasks     []canonicalTask     `json:"tasks"`
}

type canonicalTask struct {
	Instance   model.TaskInstance   `json:"instance"`
	Definition model.TaskDefinition `json:"definition"`
}

// KeyFor hashes a canonical encoding of in. Task order does not matter.
func KeyFor(in scheduler.DayInput) (Key, error) {
	c := canonicalInput{Date: in.Date, Sleep: in.Sleep, NotBefore: in.NotBefore}
	for _, t := range in.Tasks {
		def := t.Definition
		def.CreatedAt = def.CreatedAt.UTC()
		c.Tasks = append(c.Tasks, canonicalTask{Instance: t.Instance, Definition: def})
	}
	slices.SortFunc(c.Tasks, func(a, b canonicalTask) int {
		return cmp.Compare(a.Instance.ID, b.Instance.ID)
	})

	canonical, err := json.Marshal(c)
	if err != nil {
		return Key{}, fmt.Errorf("canonicalize day input: %w", err)
	}
	hasher := blake3.New()
	if _, err := hasher.Write(canonical); err != nil {
		return Key{}, fmt.Errorf("hash day input: %w", err)
	}
	key := Key{Date: in.Date}
	copy(key.Digest[:], hasher.Sum(nil))
	return key, nil
}
