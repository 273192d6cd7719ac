package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

type Store interface {
	GetDefinition(ctx context.Context, id string) (model.TaskDefinition, error)
	CreateDefinition(ctx context.Context, in model.TaskDefinition) error
	UpdateDefinition(ctx context.Context, in model.TaskDefinition) error
	SetSleepSchedule(ctx context.Context, scope storage.SleepScope, in model.SleepSchedule) error
}

type Result struct {
	Created      []string
	Updated      []string
	Unchanged    []string
	SleepUpdated bool
}

func (r Result) Changed() bool {
	return len(r.Created) > 0 || len(r.Updated) > 0 || r.SleepUpdated
}

type Importer struct {
	store  Store
	dryRun bool
	log    zerolog.Logger
}

type Option func(*Importer)

// WithDryRun reports what would change without writing.
func WithDryRun(v bool) Option {
	return func(i *Importer) { i.dryRun = v }
}

func WithLogger(l zerolog.Logger) Option {
	return func(i *Importer) { i.log = l }
}

func New(store Store, opts ...Option) *Importer {
	i := &Importer{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Apply validates the whole document first and writes nothing if any entry
// is invalid. Existing definitions keep their creation time.
func (i *Importer) Apply(ctx context.Context, doc Document) (Result, error) {
	defs, err := doc.Validate()
	if err != nil {
		return Result{}, err
	}
	known := make(map[string]bool, len(defs))
	for _, d := range defs {
		known[d.ID] = true
	}

	var res Result
	for _, def := range defs {
		if def.DependsOn != "" && !known[def.DependsOn] {
			if _, err := i.store.GetDefinition(ctx, def.DependsOn); errors.Is(err, storage.ErrNotFound) {
				i.log.Warn().Str("definition", def.ID).Str("depends_on", def.DependsOn).Msg("prerequisite is not defined")
			}
		}

		current, err := i.store.GetDefinition(ctx, def.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			if !i.dryRun {
				if err := i.store.CreateDefinition(ctx, def); err != nil {
					return res, fmt.Errorf("import %q: %w", def.ID, err)
				}
			}
			res.Created = append(res.Created, def.ID)
		case err != nil:
			return res, fmt.Errorf("import %q: %w", def.ID, err)
		case sameDefinition(current, def):
			res.Unchanged = append(res.Unchanged, def.ID)
		default:
			def.CreatedAt = current.CreatedAt
			if !i.dryRun {
				if err := i.store.UpdateDefinition(ctx, def); err != nil {
					return res, fmt.Errorf("import %q: %w", def.ID, err)
				}
			}
			res.Updated = append(res.Updated, def.ID)
		}
	}

	if doc.Sleep != nil {
		if !i.dryRun {
			if err := i.store.SetSleepSchedule(ctx, storage.DefaultSleepScope(), *doc.Sleep); err != nil {
				return res, fmt.Errorf("import sleep schedule: %w", err)
			}
		}
		res.SleepUpdated = true
	}

	i.log.Info().
		Bool("dry_run", i.dryRun).
		Int("created", len(res.Created)).
		Int("updated", len(res.Updated)).
		Int("unchanged", len(res.Unchanged)).
		Msg("definitions imported")
	return res, nil
}

// sameDefinition compares the stored shape of two definitions, ignoring the
// creation time and the unset-interval spelling.
func sameDefinition(a, b model.TaskDefinition) bool {
	return bytes.Equal(storedShape(a), storedShape(b))
}

func storedShape(d model.TaskDefinition) []byte {
	d.CreatedAt = time.Time{}
	d.Recurrence.Interval = d.Recurrence.Step()
	if len(d.Recurrence.DaysOfWeek) == 0 {
		d.Recurrence.DaysOfWeek = nil
	}
	b, _ := json.Marshal(d)
	return b
}
