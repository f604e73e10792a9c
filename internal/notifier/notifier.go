package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/flowmind/internal/constants"
)

const (
	trayExecutable = "flowmind-tray"
	secretHeader   = "X-Flowmind-Secret"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
	retryDelay        = constants.NotifyRetryDelay

	// ErrTrayNotRunning is returned when no tray application accepts webhooks.
	ErrTrayNotRunning = errors.New("flowmind-tray is not running")
)

type PayloadKind string

const (
	KindNotification PayloadKind = "notification"
	KindBadge        PayloadKind = "badge"
)

type WebhookPayload struct {
	Kind       PayloadKind `json:"kind"`
	Title      string      `json:"title,omitempty"`
	Text       string      `json:"text,omitempty"`
	Tag        string      `json:"tag,omitempty"`
	DurationMs uint32      `json:"duration_ms,omitempty"`
	// Badge is nil to clear the badge.
	Badge *int `json:"badge"`
}

// Notifier posts notifications and badge updates to the tray application.
type Notifier struct {
	client *http.Client
}

func New() *Notifier {
	return &Notifier{client: &http.Client{Timeout: 5 * time.Second}}
}

// Notify shows a desktop notification through the tray application.
func (n *Notifier) Notify(title, text string) error {
	return n.post(WebhookPayload{
		Kind:       KindNotification,
		Title:      title,
		Text:       text,
		Tag:        constants.NotificationTag,
		DurationMs: constants.NotificationDurationMs,
	})
}

// SetBadge shows minutes on the tray icon.
func (n *Notifier) SetBadge(minutes int) error {
	return n.post(WebhookPayload{Kind: KindBadge, Badge: &minutes})
}

func (n *Notifier) ClearBadge() error {
	return n.post(WebhookPayload{Kind: KindBadge})
}

// CheckTray reports whether a validated tray process is listening.
func CheckTray() error {
	_, _, err := locateTray()
	return err
}

func locateTray() (string, string, error) {
	trayAppConfigPath, err := GetTrayAppConfigDir()
	if err != nil {
		return "", "", err
	}
	return findAndValidateTrayProcess(filepath.Join(trayAppConfigPath, constants.NotifierLockfileName))
}

func (n *Notifier) post(payload WebhookPayload) error {
	port, secret, err := locateTray()
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < constants.NotifyMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		if lastErr = n.sendNotification(port, secret, payload); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts: %w", constants.NotifyMaxRetries, lastErr)
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// settings.json may point the lockfile somewhere else
	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &store); err == nil {
			if dir := store.Settings.LockfileDir; dir != nil && *dir != "" {
				return *dir, nil
			}
		}
	}

	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads "port|pid|secret" from the lockfile and
// checks that pid belongs to a running tray process.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}

	if !strings.HasPrefix(process.Executable(), trayExecutable) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, trayExecutable, process.Executable())
	}

	return port, secret, nil
}

func (n *Notifier) sendNotification(port string, secret string, payload WebhookPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
