package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/storage/sqlite"
	"github.com/julianstephens/flowmind/internal/tasks"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SetSetting(context.Background(), constants.SettingTimezone, "UTC"))

	var out bytes.Buffer
	return &Context{
		Store: store,
		Clock: func() time.Time { return fixedNow },
		Out:   &out,
	}, &out
}

func service(t *testing.T, ctx *Context) *tasks.Service {
	t.Helper()
	svc, _, err := ctx.Tasks(context.Background())
	require.NoError(t, err)
	return svc
}

func createTask(t *testing.T, ctx *Context, title string, start time.Time, d time.Duration) models.Task {
	t.Helper()
	task, err := service(t, ctx).Create(context.Background(), models.Task{
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(d),
	})
	require.NoError(t, err)
	return task
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}
