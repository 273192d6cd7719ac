package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/commands"
	"github.com/sandeepkv93/dayplan/internal/config"
	"github.com/sandeepkv93/dayplan/internal/depgraph"
	"github.com/sandeepkv93/dayplan/internal/jobs"
	"github.com/sandeepkv93/dayplan/internal/logging"
	"github.com/sandeepkv93/dayplan/internal/materialize"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/planner"
	"github.com/sandeepkv93/dayplan/internal/recurrence"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

// app holds every service a command may need, built from one config.
type app struct {
	cfg      config.Config
	manager  *config.Manager
	log      zerolog.Logger
	loc      *time.Location
	now      func() time.Time
	repo     *storage.SQLiteRepository
	rec      *recurrence.Engine
	engine   *scheduler.Engine
	provider *materialize.Provider
	planner  *planner.Planner
	actions  *commands.Actions

	closers []io.Closer
}

type openOptions struct {
	// skipMigrate leaves the schema alone, for the migrate command itself.
	skipMigrate bool
}

func openApp(configPath string, stderr io.Writer, opts openOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, logCloser, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	a := &app{
		cfg:     cfg,
		manager: config.NewManager(configPath, config.WithInitial(cfg), config.WithLogger(logging.Component(log, "config"))),
		log:     log,
		now:     time.Now,
		closers: []io.Closer{logCloser},
	}
	if a.loc, err = cfg.Location(); err != nil {
		a.Close()
		return nil, err
	}

	repo, err := storage.OpenSQLite(cfg.Database.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo)
	if !opts.skipMigrate {
		if err := storage.MigrateUp(repo.DB()); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	a.rec = recurrence.NewEngine(recurrence.WithHorizonYears(cfg.Scheduler.HorizonYears))
	resolver := depgraph.NewResolver(depgraph.WithLogger(logging.Component(log, "depgraph")))
	a.engine = scheduler.NewEngine(resolver, a.rec,
		scheduler.WithSlotIncrement(cfg.Scheduler.SlotIncrementMinutes),
		scheduler.WithBufferMinutes(cfg.Scheduler.BufferMinutes),
		scheduler.WithLogger(logging.Component(log, "scheduler")),
	)
	a.provider = materialize.NewProvider(repo, a.engine, cfg.Sleep,
		materialize.WithLogger(logging.Component(log, "materialize")))
	a.planner, err = planner.New(a.provider, a.engine,
		planner.WithCacheSize(cfg.Cache.Size),
		planner.WithLogger(logging.Component(log, "planner")),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.actions = commands.NewActions(repo, a.rec, a.planner,
		commands.WithLogger(logging.Component(log, "commands")))
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

func (a *app) today() model.Date {
	return model.DateOf(a.now().In(a.loc))
}

func (a *app) nowMinutes() int {
	t := a.now().In(a.loc)
	return t.Hour()*60 + t.Minute()
}

// applyConfig takes a reloaded config into the running services. Engine
// tuning and the database path only change on restart.
func (a *app) applyConfig(prev, next config.Config) {
	if next.Sleep != prev.Sleep {
		a.provider.SetDefaultSleep(next.Sleep)
	}
	if next.Scheduler != prev.Scheduler || next.Database != prev.Database || next.Cache != prev.Cache {
		a.log.Warn().Msg("scheduler, cache and database settings apply after restart")
	}
	a.planner.Purge()
	a.log.Info().Msg("config reloaded")
}

func (a *app) rollover(extra ...jobs.Option) *jobs.Rollover {
	opts := append([]jobs.Option{
		jobs.WithLocation(a.loc),
		jobs.WithClock(a.now),
		jobs.WithLogger(logging.Component(a.log, "rollover")),
	}, extra...)
	return jobs.NewRollover(a.provider, a.planner, opts...)
}

// startRollover runs the daily job until ctx ends when it is enabled. The
// returned stop func is always safe to call.
func (a *app) startRollover(ctx context.Context, after func([]jobs.DayReport)) (func(), error) {
	if !a.cfg.Rollover.Enabled {
		return func() {}, nil
	}
	r := a.rollover(jobs.WithAfterRun(after))
	if err := r.Schedule(a.cfg.Rollover.At); err != nil {
		return nil, err
	}
	r.Start(ctx)
	return r.Stop, nil
}

// watchConfig reloads the config file until ctx ends and hands every change
// to apply. a.cfg keeps the config the app started with.
func (a *app) watchConfig(ctx context.Context, apply func(config.Config)) {
	ch := a.manager.Subscribe(4)
	prev := a.cfg
	go func() {
		if err := a.manager.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn().Err(err).Msg("config watch stopped")
		}
	}()
	go func() {
		defer a.manager.Unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg := <-ch:
				a.applyConfig(prev, cfg)
				prev = cfg
				if apply != nil {
					apply(cfg)
				}
			}
		}
	}()
}

// resolveDay reads a day argument the same way the palette's goto does.
func resolveDay(args []string, today model.Date) (model.Date, error) {
	if len(args) == 0 {
		return today, nil
	}
	c, err := commands.Parse("goto " + args[0])
	if err != nil {
		return model.Date{}, err
	}
	return c.Goto.From(today), nil
}
