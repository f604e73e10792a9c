// Package sqlstore holds the SQL shared by the SQLite and PostgreSQL
// providers. Queries are written with ? placeholders and rebound for
// PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/models"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const taskColumns = `id, title, start_ms, end_ms, status, is_important, recurrence,
       recurring_template_id, checklist, tags, notes, created_ms, deleted_ms`

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func scanTask(row scanner) (models.Task, error) {
	var (
		t                   models.Task
		startMs, endMs      int64
		createdMs           int64
		deletedMs           sql.NullInt64
		status, recurrence  string
		checklist, tagsJSON string
	)
	err := row.Scan(
		&t.ID, &t.Title, &startMs, &endMs, &status, &t.IsImportant, &recurrence,
		&t.RecurringTemplateID, &checklist, &tagsJSON, &t.Notes, &createdMs, &deletedMs,
	)
	if err != nil {
		return models.Task{}, err
	}

	t.StartTime = fromMillis(startMs)
	t.EndTime = fromMillis(endMs)
	t.CreatedAt = fromMillis(createdMs)
	t.Status = models.TaskStatus(status)
	t.Recurrence = models.Recurrence(recurrence)
	if deletedMs.Valid {
		d := fromMillis(deletedMs.Int64)
		t.DeletedAt = &d
	}
	if checklist != "" {
		if err := json.Unmarshal([]byte(checklist), &t.Checklist); err != nil {
			return models.Task{}, fmt.Errorf("decoding checklist of task %s: %w", t.ID, err)
		}
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			return models.Task{}, fmt.Errorf("decoding tags of task %s: %w", t.ID, err)
		}
	}
	if len(t.Checklist) == 0 {
		t.Checklist = nil
	}
	if len(t.Tags) == 0 {
		t.Tags = nil
	}
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) AddTask(ctx context.Context, task models.Task) error {
	return s.UpdateTask(ctx, task)
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
SELECT `+taskColumns+`
FROM tasks WHERE id = ? AND deleted_ms IS NULL`), id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, fmt.Errorf("task %s: %w", id, errors.ErrNotFound)
	}
	return t, err
}

func (s *Store) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, `
SELECT `+taskColumns+`
FROM tasks WHERE deleted_ms IS NULL ORDER BY start_ms, id`)
}

func (s *Store) GetAllTasksIncludingDeleted(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, `
SELECT `+taskColumns+`
FROM tasks ORDER BY start_ms, id`)
}

func (s *Store) GetTasksInRange(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	return s.queryTasks(ctx, `
SELECT `+taskColumns+`
FROM tasks WHERE deleted_ms IS NULL AND start_ms >= ? AND start_ms < ?
ORDER BY start_ms, id`, toMillis(from), toMillis(to))
}

func (s *Store) UpdateTask(ctx context.Context, task models.Task) error {
	return s.upsertTask(ctx, s.db, task)
}

func (s *Store) UpdateTasks(ctx context.Context, tasks []models.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, t := range tasks {
		if err := s.upsertTask(ctx, tx, t); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) upsertTask(ctx context.Context, ex execer, task models.Task) error {
	checklist, err := json.Marshal(nonNil(task.Checklist))
	if err != nil {
		return fmt.Errorf("encoding checklist: %w", err)
	}
	tags, err := json.Marshal(nonNil(task.Tags))
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	var deleted sql.NullInt64
	if task.DeletedAt != nil {
		deleted = sql.NullInt64{Int64: toMillis(*task.DeletedAt), Valid: true}
	}

	_, err = ex.ExecContext(ctx, s.rebind(`
INSERT INTO tasks (`+taskColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    title = excluded.title,
    start_ms = excluded.start_ms,
    end_ms = excluded.end_ms,
    status = excluded.status,
    is_important = excluded.is_important,
    recurrence = excluded.recurrence,
    recurring_template_id = excluded.recurring_template_id,
    checklist = excluded.checklist,
    tags = excluded.tags,
    notes = excluded.notes,
    deleted_ms = excluded.deleted_ms`),
		task.ID, task.Title, toMillis(task.StartTime), toMillis(task.EndTime), string(task.Status),
		task.IsImportant, string(task.Recurrence), task.RecurringTemplateID, string(checklist),
		string(tags), task.Notes, toMillis(task.CreatedAt), deleted,
	)
	if err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE tasks SET deleted_ms = ? WHERE id = ? AND deleted_ms IS NULL"),
		toMillis(time.Now()), id)
	if err != nil {
		return err
	}
	return affected(res, id)
}

func (s *Store) RestoreTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE tasks SET deleted_ms = NULL WHERE id = ? AND deleted_ms IS NOT NULL"), id)
	if err != nil {
		return err
	}
	return affected(res, id)
}

func affected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, errors.ErrNotFound)
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}

	settings, err := models.MapToSettings(data)
	if err != nil {
		return models.Settings{}, err
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for key, value := range models.SettingsToMap(settings) {
		if err := s.setSetting(ctx, tx, key, value); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT value FROM settings WHERE key = ?"), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %s: %w", key, errors.ErrNotFound)
	}
	return value, err
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.setSetting(ctx, s.db, key, value)
}

func (s *Store) setSetting(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx, s.rebind(`
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, value)
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return nil
}

// EnsureDefaultSettings writes the default settings when none are stored.
func (s *Store) EnsureDefaultSettings(ctx context.Context) error {
	if _, err := s.GetSettings(ctx); err == nil {
		return nil
	}
	settings, err := models.MapToSettings(nil)
	if err != nil {
		return err
	}
	models.ApplyDefaultSettings(&settings)
	return s.SaveSettings(ctx, settings)
}
