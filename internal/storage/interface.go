package storage

import (
	"context"
	"time"

	"github.com/julianstephens/flowmind/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Tasks
	AddTask(ctx context.Context, task models.Task) error
	GetTask(ctx context.Context, id string) (models.Task, error)
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	GetAllTasksIncludingDeleted(ctx context.Context) ([]models.Task, error)
	// GetTasksInRange returns live tasks starting in [from, to).
	GetTasksInRange(ctx context.Context, from, to time.Time) ([]models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) error
	// UpdateTasks writes every task in one transaction.
	UpdateTasks(ctx context.Context, tasks []models.Task) error
	DeleteTask(ctx context.Context, id string) error
	RestoreTask(ctx context.Context, id string) error

	// Utils
	GetConfigPath() string
}
