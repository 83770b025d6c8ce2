package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/strive/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := t.TempDir()

	oldUserConfigDirFunc := userConfigDirFunc
	defer func() { userConfigDirFunc = oldUserConfigDirFunc }()
	userConfigDirFunc = func() (string, error) {
		return tempDir, nil
	}

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != expectedDefault {
		t.Errorf("expected %s, got %s", expectedDefault, dir)
	}

	if err := os.MkdirAll(expectedDefault, 0755); err != nil {
		t.Fatal(err)
	}
	customDir := "/custom/strive/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	if err := os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != customDir {
		t.Errorf("expected %s, got %s", customDir, dir)
	}

	// Unreadable settings fall back to the default directory.
	if err := os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if dir, _ = GetTrayAppConfigDir(); dir != expectedDefault {
		t.Errorf("expected %s for broken settings, got %s", expectedDefault, dir)
	}
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	oldFindProcessFunc := findProcessFunc
	defer func() { findProcessFunc = oldFindProcessFunc }()
	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: TrayExecutable}, nil
	}

	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, _, err := findAndValidateTrayProcess(lockfilePath); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile error = %v, want ErrTrayNotRunning", err)
	}

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"two part format", "8080|12345", "malformed"},
		{"garbage", "invalid", "malformed"},
		{"empty secret", "8080|12345|", "secret"},
		{"empty port", "|12345|testsecret123", "port"},
		{"non numeric port", "http|12345|testsecret123", "port"},
		{"port out of range", "99999|12345|testsecret123", "range"},
		{"bad pid", "8080|abc|testsecret123", "process ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(lockfilePath, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %v, want one mentioning %q", err, tt.contains)
			}
		})
	}

	if err := os.WriteFile(lockfilePath, []byte("8080|12345|testsecret123\n"), 0600); err != nil {
		t.Fatal(err)
	}

	findProcessFunc = func(pid int) (ps.Process, error) { return nil, nil }
	if _, _, err := findAndValidateTrayProcess(lockfilePath); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("dead pid error = %v, want ErrTrayNotRunning", err)
	}

	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "other-app"}, nil
	}
	if _, _, err := findAndValidateTrayProcess(lockfilePath); err == nil {
		t.Error("expected error for wrong executable")
	}

	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: TrayExecutable}, nil
	}
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != "8080" || secret != "testsecret123" {
		t.Errorf("got (%s, %s), want (8080, testsecret123)", port, secret)
	}
}

func newTrayServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Strive-Secret") != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}

		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if payload.DurationMs != constants.NotificationDurationMs {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func serverPort(server *httptest.Server) string {
	parts := strings.Split(server.URL, ":")
	return parts[len(parts)-1]
}

func TestSendNotification(t *testing.T) {
	var hits int32
	server := newTrayServer(t, &hits)
	defer server.Close()
	port := serverPort(server)
	n := New()
	ctx := context.Background()

	if err := n.sendNotification(ctx, port, "test-secret", WebhookPayload{Text: "hello", DurationMs: constants.NotificationDurationMs}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := n.sendNotification(ctx, port, "", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for missing secret")
	}
	if err := n.sendNotification(ctx, port, "wrong-secret", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for wrong secret")
	}
	if err := n.sendNotification(ctx, port, "test-secret", WebhookPayload{Text: "fail"}); err == nil {
		t.Error("expected error for server failure")
	}
}

func setupTray(t *testing.T, lockContent string) func() {
	t.Helper()
	dir := t.TempDir()

	oldUserConfigDirFunc, oldFindProcessFunc, oldDelay := userConfigDirFunc, findProcessFunc, retryDelay
	userConfigDirFunc = func() (string, error) { return dir, nil }
	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: TrayExecutable}, nil
	}
	retryDelay = time.Millisecond

	trayDir := filepath.Join(dir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lockContent), 0600); err != nil {
		t.Fatal(err)
	}

	return func() {
		userConfigDirFunc, findProcessFunc, retryDelay = oldUserConfigDirFunc, oldFindProcessFunc, oldDelay
	}
}

func TestNotify(t *testing.T) {
	var hits int32
	server := newTrayServer(t, &hits)
	defer server.Close()

	cleanup := setupTray(t, serverPort(server)+"|4242|test-secret")
	defer cleanup()

	n := New()
	if err := n.Notify(context.Background(), Notification{Title: "Drink Water", Text: "Reminder: 09:00", Channel: "hydration", Action: "+250 mL"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	// Server errors are retried.
	atomic.StoreInt32(&hits, 0)
	if err := n.Notify(context.Background(), Notification{Text: "fail"}); err == nil {
		t.Error("expected error for failing tray")
	}
	if got := atomic.LoadInt32(&hits); got != constants.NotifyMaxRetries {
		t.Errorf("server hits = %d, want %d", got, constants.NotifyMaxRetries)
	}
}

func TestNotifyDoesNotRetryRejections(t *testing.T) {
	var hits int32
	server := newTrayServer(t, &hits)
	defer server.Close()

	cleanup := setupTray(t, serverPort(server)+"|4242|stale-secret")
	defer cleanup()

	if err := New().Notify(context.Background(), Notification{Text: "hello"}); err == nil {
		t.Fatal("expected error for rejected secret")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestNotifyTrayNotRunning(t *testing.T) {
	oldUserConfigDirFunc := userConfigDirFunc
	defer func() { userConfigDirFunc = oldUserConfigDirFunc }()
	dir := t.TempDir()
	userConfigDirFunc = func() (string, error) { return dir, nil }

	if err := New().Notify(context.Background(), Notification{Text: "hello"}); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("Notify() error = %v, want ErrTrayNotRunning", err)
	}
}
