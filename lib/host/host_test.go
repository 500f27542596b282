// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/fnhost/lib/hostapi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type staticSettings struct {
	values map[string]string
	err    error
}

func (s staticSettings) GetAll() (map[string]string, error) {
	return s.values, s.err
}

// startHost runs a host on a loopback port and waits for it to serve.
// The returned channel receives Run's result.
func startHost(t *testing.T, config Config) (*Host, context.CancelFunc, <-chan error) {
	t.Helper()
	if config.Address == "" {
		config.Address = "127.0.0.1:0"
	}
	h, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- h.Run(ctx)
		close(finished)
	}()

	select {
	case <-h.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("Run returned before ready: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("host did not become ready")
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
		}
	})
	return h, cancel, done
}

func clientFor(t *testing.T, h *Host) *hostapi.Client {
	t.Helper()
	base, err := url.Parse("http://" + h.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	return hostapi.NewClient(base, 5*time.Second)
}

func waitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestRun_ServesStatusUntilCancelled(t *testing.T) {
	directory := t.TempDir()
	h, cancel, done := startHost(t, Config{ScriptPath: directory, Version: "test"})

	if h.State() != Serving {
		t.Errorf("State() = %v, want Serving", h.State())
	}

	client := clientFor(t, h)
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Serves(directory) || !status.IsRunning || status.State != hostapi.StateRunning {
		t.Errorf("status = %+v, want running for %s", status, directory)
	}
	if status.InstanceID != h.InstanceID() || status.ProcessID != os.Getpid() {
		t.Errorf("status identity = %+v", status)
	}
	if status.Port == 0 {
		t.Error("status port = 0, want the bound port")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	cancel()
	if err := waitResult(t, done); err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
	if h.State() != Exited {
		t.Errorf("State() = %v after Run, want Exited", h.State())
	}
	if client.Live(context.Background()) {
		t.Error("host still live after shutdown")
	}
}

func TestRun_ExitsWhenSettingsFileChanges(t *testing.T) {
	directory := t.TempDir()
	settingsPath := filepath.Join(directory, "local.settings.json")
	if err := os.WriteFile(settingsPath, []byte(`{"Values":{}}`), 0600); err != nil {
		t.Fatal(err)
	}
	_, _, done := startHost(t, Config{ScriptPath: directory, SettingsFile: "local.settings.json"})

	if err := os.WriteFile(settingsPath, []byte(`{"Values":{"A":"1"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := waitResult(t, done); !errors.Is(err, ErrSettingsChanged) {
		t.Errorf("Run() = %v, want ErrSettingsChanged", err)
	}
}

func TestRun_SettingsFileCreated(t *testing.T) {
	directory := t.TempDir()
	_, _, done := startHost(t, Config{ScriptPath: directory, SettingsFile: "local.settings.json"})

	if err := os.WriteFile(filepath.Join(directory, "local.settings.json"), []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := waitResult(t, done); !errors.Is(err, ErrSettingsChanged) {
		t.Errorf("Run() = %v, want ErrSettingsChanged", err)
	}
}

func TestRun_IgnoresOtherFiles(t *testing.T) {
	directory := t.TempDir()
	_, cancel, done := startHost(t, Config{ScriptPath: directory, SettingsFile: "local.settings.json"})

	if err := os.WriteFile(filepath.Join(directory, "host.json"), []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		t.Fatalf("Run returned %v after an unrelated file changed", err)
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	if err := waitResult(t, done); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestRun_ListenerHookFailure(t *testing.T) {
	var states []State
	h, err := New(Config{
		ScriptPath: t.TempDir(),
		Address:    "127.0.0.1:0",
		Port:       7071,
		EnsureListener: func(ctx context.Context, port int) error {
			if port != 7071 {
				t.Errorf("EnsureListener port = %d, want 7071", port)
			}
			return errors.New("consent denied")
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Record the state the hook observes.
	hook := h.config.EnsureListener
	h.config.EnsureListener = func(ctx context.Context, port int) error {
		states = append(states, h.State())
		return hook(ctx, port)
	}

	err = h.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "consent denied") {
		t.Errorf("Run() = %v, want the hook's error", err)
	}
	if len(states) != 1 || states[0] != AwaitingPrivilege {
		t.Errorf("hook saw states %v, want [AwaitingPrivilege]", states)
	}
	select {
	case <-h.Ready():
		t.Error("Ready closed although the listener was never bound")
	default:
	}
	if h.State() != Exited {
		t.Errorf("State() = %v, want Exited", h.State())
	}
}

func TestRun_SettingsBestEffort(t *testing.T) {
	h, _, _ := startHost(t, Config{
		ScriptPath: t.TempDir(),
		Settings:   staticSettings{err: errors.New("broken json")},
	})
	if len(h.Settings()) != 0 {
		t.Errorf("Settings() = %v, want empty after a failed load", h.Settings())
	}
	if !clientFor(t, h).Live(context.Background()) {
		t.Error("host not live after a settings failure")
	}
}

func TestEnviron_SettingsAreExplicit(t *testing.T) {
	h, _, _ := startHost(t, Config{
		ScriptPath:  t.TempDir(),
		Settings:    staticSettings{values: map[string]string{"FNHOST_TEST_SETTING": "from-file"}},
		Environment: map[string]string{"EDGE_NODE_PARAMS": "--debug=5858"},
	})

	if _, set := os.LookupEnv("FNHOST_TEST_SETTING"); set {
		t.Error("settings leaked into the process environment")
	}
	environment := h.Environ()
	for _, want := range []string{"FNHOST_TEST_SETTING=from-file", "EDGE_NODE_PARAMS=--debug=5858"} {
		if !slices.Contains(environment, want) {
			t.Errorf("Environ() missing %q", want)
		}
	}
}

func TestHandler_Routes(t *testing.T) {
	h, err := New(Config{ScriptPath: "/work/orders", CORSOrigins: []string{"https://portal.example.com"}})
	if err != nil {
		t.Fatal(err)
	}
	handler := h.Handler()

	t.Run("functions default to 404", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
		if recorder.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "no functions loaded") {
			t.Errorf("body = %q", recorder.Body.String())
		}
	})

	t.Run("status before Run is not running", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, hostapi.StatusPath, nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d", recorder.Code)
		}
		if strings.Contains(recorder.Body.String(), `"isRunning":true`) {
			t.Errorf("body = %q, want isRunning false", recorder.Body.String())
		}
	})

	t.Run("cors allows configured origin", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, hostapi.PingPath, nil)
		request.Header.Set("Origin", "https://portal.example.com")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("cors rejects other origins", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, hostapi.PingPath, nil)
		request.Header.Set("Origin", "https://evil.example.com")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
		}
	})

	t.Run("metrics count requests", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, hostapi.MetricsPath, nil))
		body, _ := io.ReadAll(recorder.Body)
		if !strings.Contains(string(body), "fnhost_http_requests_total") {
			t.Errorf("metrics output missing request counter")
		}
		if !strings.Contains(string(body), h.InstanceID()) {
			t.Errorf("metrics output missing instance id")
		}
	})
}

func TestHandler_TrustsOnlyLoopbackProxies(t *testing.T) {
	var logs strings.Builder
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h, err := New(Config{ScriptPath: "/work/orders", Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(logs.String(), "setting trusted proxies") {
		t.Fatalf("trusted proxy list rejected:\n%s", logs.String())
	}
	handler := h.Handler()

	for _, remote := range []string{"127.0.0.1:50000", "192.0.2.1:50000"} {
		request := httptest.NewRequest(http.MethodGet, hostapi.PingPath, nil)
		request.RemoteAddr = remote
		request.Header.Set("X-Forwarded-For", "203.0.113.9")
		handler.ServeHTTP(httptest.NewRecorder(), request)
	}

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2:\n%s", len(lines), logs.String())
	}
	if !strings.Contains(lines[0], "client_ip=203.0.113.9") {
		t.Errorf("loopback proxy not trusted: %s", lines[0])
	}
	if !strings.Contains(lines[1], "client_ip=192.0.2.1") {
		t.Errorf("remote proxy trusted: %s", lines[1])
	}
}

func TestFunctionsHandler(t *testing.T) {
	h, err := New(Config{
		ScriptPath: "/work/orders",
		Functions: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "ran "+r.URL.Path)
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	recorder := httptest.NewRecorder()
	h.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/hello", nil))
	if recorder.Body.String() != "ran /api/hello" {
		t.Errorf("body = %q", recorder.Body.String())
	}
}

func TestCORSPolicy(t *testing.T) {
	logger := discardLogger()

	if _, ok := corsPolicy(nil, logger); ok {
		t.Error("empty origin list enabled CORS")
	}
	if _, ok := corsPolicy([]string{"not-a-url", "ftp://x"}, logger); ok {
		t.Error("only invalid origins enabled CORS")
	}
	policy, ok := corsPolicy([]string{"https://a.example.com", "*"}, logger)
	if !ok || !policy.AllowAllOrigins || len(policy.AllowOrigins) != 0 {
		t.Errorf("wildcard policy = %+v", policy)
	}
	policy, ok = corsPolicy([]string{"https://a.example.com/", "bogus"}, logger)
	if !ok || len(policy.AllowOrigins) != 1 || policy.AllowOrigins[0] != "https://a.example.com" {
		t.Errorf("filtered policy origins = %v", policy.AllowOrigins)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without ScriptPath succeeded")
	}
	if _, err := New(Config{ScriptPath: "/w", Port: 70000}); err == nil {
		t.Error("New with port 70000 succeeded")
	}
}
