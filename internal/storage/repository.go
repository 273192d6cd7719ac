package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/dayplan/internal/model"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate")
)

type Repository interface {
	CreateDefinition(ctx context.Context, in model.TaskDefinition) error
	GetDefinition(ctx context.Context, id string) (model.TaskDefinition, error)
	UpdateDefinition(ctx context.Context, in model.TaskDefinition) error
	DeleteDefinition(ctx context.Context, id string) error
	ListDefinitions(ctx context.Context, filter DefinitionListFilter) ([]model.TaskDefinition, error)

	CreateInstance(ctx context.Context, in model.TaskInstance) error
	GetInstance(ctx context.Context, id string) (model.TaskInstance, error)
	UpdateInstance(ctx context.Context, in model.TaskInstance) error
	DeleteInstance(ctx context.Context, id string) error
	ListInstances(ctx context.Context, filter InstanceListFilter) ([]model.TaskInstance, error)
	ApplyDayChanges(ctx context.Context, changes DayChanges) error

	GetSleepSchedule(ctx context.Context, scope SleepScope) (model.SleepSchedule, error)
	SetSleepSchedule(ctx context.Context, scope SleepScope, in model.SleepSchedule) error
	DeleteSleepSchedule(ctx context.Context, scope SleepScope) error
}
