package notifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/flowmind/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := withConfigDir(t)

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, expectedDefault, dir)

	require.NoError(t, os.MkdirAll(expectedDefault, 0o755))
	customDir := "/custom/flowmind/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	require.NoError(t, os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0o644))

	dir, err = GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, customDir, dir)
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	_, _, err := findAndValidateTrayProcess(lockfilePath)
	assert.ErrorIs(t, err, ErrTrayNotRunning)

	tests := []struct {
		name       string
		content    string
		executable string
		wantErr    string
	}{
		{"two part lockfile", "8080|12345", "flowmind-tray", "malformed"},
		{"garbage", "invalid", "flowmind-tray", "malformed"},
		{"empty secret", "8080|12345|", "flowmind-tray", "secret"},
		{"empty port", "|12345|s3cret", "flowmind-tray", "port"},
		{"port out of range", "99999|12345|s3cret", "flowmind-tray", "range"},
		{"bad pid", "8080|abc|s3cret", "flowmind-tray", "process ID"},
		{"process missing", "8080|12345|s3cret", "", "not running"},
		{"wrong executable", "8080|12345|s3cret", "other-app", "is not flowmind-tray"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(lockfilePath, []byte(tt.content), 0o644))
			withProcess(t, tt.executable)
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, os.WriteFile(lockfilePath, []byte("8080|12345|s3cret\n"), 0o644))
	withProcess(t, "flowmind-tray")
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	require.NoError(t, err)
	assert.Equal(t, "8080", port)
	assert.Equal(t, "s3cret", secret)
}

func startTray(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	configDir := withConfigDir(t)
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)
	require.NoError(t, os.MkdirAll(trayDir, 0o755))
	lock := fmt.Sprintf("%s|%d|test-secret", u.Port(), os.Getpid())
	require.NoError(t, os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0o644))
	withProcess(t, "flowmind-tray")

	oldDelay := retryDelay
	t.Cleanup(func() { retryDelay = oldDelay })
	retryDelay = 0
}

func TestNotifyPostsPayload(t *testing.T) {
	var got WebhookPayload
	startTray(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(secretHeader) != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, New().Notify("Break started", "Take 5 minutes"))
	assert.Equal(t, KindNotification, got.Kind)
	assert.Equal(t, "Break started", got.Title)
	assert.Equal(t, "Take 5 minutes", got.Text)
	assert.Equal(t, constants.NotificationTag, got.Tag)
}

func TestBadgePayloads(t *testing.T) {
	var bodies []map[string]any
	startTray(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusOK)
	})

	n := New()
	require.NoError(t, n.SetBadge(12))
	require.NoError(t, n.ClearBadge())
	require.Len(t, bodies, 2)
	assert.Equal(t, float64(12), bodies[0]["badge"])
	assert.Nil(t, bodies[1]["badge"])
}

func TestNotifyRetries(t *testing.T) {
	var calls atomic.Int32
	startTray(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < int32(constants.NotifyMaxRetries) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, New().Notify("t", "b"))
	assert.Equal(t, int32(constants.NotifyMaxRetries), calls.Load())
}

func TestNotifyGivesUp(t *testing.T) {
	startTray(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	err := New().Notify("t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCheckTray(t *testing.T) {
	withConfigDir(t)
	assert.Error(t, CheckTray(), "no lockfile yet")

	startTray(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, CheckTray())
}
