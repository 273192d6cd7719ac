// Package jobs runs the background day rollover.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

var ErrNotScheduled = errors.New("jobs: rollover is not scheduled")

type Regenerator interface {
	Regenerate(ctx context.Context, date model.Date) (scheduler.Materialization, error)
}

type Warmer interface {
	Invalidate(date model.Date) int
	Plan(ctx context.Context, date model.Date, notBefore int) (model.ScheduleResult, error)
}

// DayReport summarizes what one rollover did for one date.
type DayReport struct {
	Date       model.Date
	Created    int
	Dropped    int
	Blocks     int
	Conflicts  int
	Impossible bool
}

// Rollover materializes and pre-plans the current day once a day.
type Rollover struct {
	regen     Regenerator
	warm      Warmer
	loc       *time.Location
	now       func() time.Time
	lookahead int
	after     func([]DayReport)
	log       zerolog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Rollover)

func WithLocation(loc *time.Location) Option {
	return func(r *Rollover) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithLookahead also prepares the n days after the current one.
func WithLookahead(n int) Option {
	return func(r *Rollover) {
		if n >= 0 {
			r.lookahead = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Rollover) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Rollover) { r.log = l }
}

// WithAfterRun is called with the reports of every scheduled run, including
// partial ones.
func WithAfterRun(fn func([]DayReport)) Option {
	return func(r *Rollover) { r.after = fn }
}

func NewRollover(regen Regenerator, warm Warmer, opts ...Option) *Rollover {
	r := &Rollover{
		regen: regen,
		warm:  warm,
		loc:   time.Local,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cron = cron.New(cron.WithLocation(r.loc), cron.WithSeconds())
	return r
}

// Schedule registers the daily run at the given wall-clock time, replacing
// any earlier registration.
func (r *Rollover) Schedule(at model.ClockTime) error {
	spec, err := buildDailySpec(at)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry != 0 {
		r.cron.Remove(r.entry)
		r.entry = 0
	}
	id, err := r.cron.AddFunc(spec, r.fire)
	if err != nil {
		return fmt.Errorf("jobs: schedule rollover %s: %w", at, err)
	}
	r.entry = id
	r.log.Info().Str("at", at.String()).Str("spec", spec).Msg("rollover scheduled")
	return nil
}

// Next returns the next planned run after t.
func (r *Rollover) Next(t time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == 0 {
		return time.Time{}, ErrNotScheduled
	}
	return r.cron.Entry(r.entry).Schedule.Next(t.In(r.loc)), nil
}

func (r *Rollover) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()
	r.cron.Start()
}

// Stop halts the cron loop and waits for a running rollover to return.
func (r *Rollover) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	<-r.cron.Stop().Done()
}

func (r *Rollover) fire() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	reports, err := r.RunOnce(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("rollover failed")
	}
	if r.after != nil {
		r.after(reports)
	}
}

// RunOnce prepares the current day and the lookahead days. Each date is
// handled independently; failures are joined.
func (r *Rollover) RunOnce(ctx context.Context) ([]DayReport, error) {
	today := model.DateOf(r.now().In(r.loc))
	reports := make([]DayReport, 0, r.lookahead+1)
	var errs []error
	for i := 0; i <= r.lookahead; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		date := today.AddDays(i)
		rep, err := r.prepare(ctx, date)
		if err != nil {
			errs = append(errs, fmt.Errorf("rollover %s: %w", date, err))
			continue
		}
		reports = append(reports, rep)
	}
	return reports, errors.Join(errs...)
}

func (r *Rollover) prepare(ctx context.Context, date model.Date) (DayReport, error) {
	m, err := r.regen.Regenerate(ctx, date)
	if err != nil {
		return DayReport{}, err
	}
	if m.Changed() {
		r.warm.Invalidate(date)
	}
	res, err := r.warm.Plan(ctx, date, 0)
	if err != nil {
		return DayReport{}, err
	}
	rep := DayReport{
		Date:       date,
		Created:    len(m.Create),
		Dropped:    len(m.Drop),
		Blocks:     len(res.Blocks),
		Conflicts:  len(res.Conflicts),
		Impossible: res.ImpossibleDay,
	}
	r.log.Info().
		Str("date", date.String()).
		Int("created", rep.Created).
		Int("dropped", rep.Dropped).
		Int("blocks", rep.Blocks).
		Int("conflicts", rep.Conflicts).
		Bool("impossible", rep.Impossible).
		Msg("day prepared")
	return rep, nil
}

// buildDailySpec turns a clock time into a six-field cron spec
// (second minute hour dom month dow).
func buildDailySpec(at model.ClockTime) (string, error) {
	if at < 0 || at >= model.EndOfDay {
		return "", fmt.Errorf("jobs: invalid rollover time %d", at)
	}
	return fmt.Sprintf("0 %d %d * * *", at.Minute(), at.Hour()), nil
}
