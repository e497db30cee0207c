package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

func testConfig() *Config {
	return &Config{
		advanceDelay:     10 * time.Millisecond,
		bind:             "127.0.0.1",
		charadesDuration: 3 * time.Minute,
		port:             8080,
		revealDelay:      10 * time.Millisecond,
		sessionTimeout:   time.Hour,
		log:              zap.NewNop().Sugar(),
	}
}

func newTestRouter(t *testing.T, cfg *Config) *httprouter.Router {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		t.Fatal(err)
	}

	mux, err := newRouter(ctx, cfg, catalog, make(chan error, 64))
	if err != nil {
		t.Fatal(err)
	}

	return mux
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"port zero", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"zero reveal delay", func(c *Config) { c.revealDelay = 0 }, false},
		{"zero advance delay", func(c *Config) { c.advanceDelay = 0 }, false},
		{"negative auto-reset", func(c *Config) { c.autoReset = -time.Second }, false},
		{"auto-reset disabled", func(c *Config) { c.autoReset = 0 }, true},
		{"odd charades duration", func(c *Config) { c.charadesDuration = 90 * time.Second }, false},
		{"fractional charades duration", func(c *Config) { c.charadesDuration = time.Minute + time.Millisecond }, false},
		{"five minute charades", func(c *Config) { c.charadesDuration = 5 * time.Minute }, true},
	}

	for _, tt := range tests {
		cfg := testConfig()
		tt.modify(cfg)

		err := cfg.validate()
		if tt.ok && err != nil {
			t.Errorf("%s: expected no error, got %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

// parseFlags runs flag parsing and the environment pass the way Execute does,
// without starting the server.
func parseFlags(t *testing.T, args ...string) *Config {
	t.Helper()

	cfg := &Config{}
	cmd := newCmd(cfg)

	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	if err := cmd.PreRunE(cmd, nil); err != nil {
		t.Fatal(err)
	}

	return cfg
}

func TestFlagsReadEnvironment(t *testing.T) {
	t.Setenv("PARTYFUN_ENV_FILE", "")
	t.Setenv("PARTYFUN_PORT", "9191")
	t.Setenv("PARTYFUN_REVEAL_DELAY", "3s")

	cfg := parseFlags(t, "--reveal-delay", "4s")

	if cfg.port != 9191 {
		t.Errorf("Expected port 9191, got %d", cfg.port)
	}
	if cfg.revealDelay != 4*time.Second {
		t.Errorf("Expected command line reveal delay 4s, got %s", cfg.revealDelay)
	}
	if cfg.advanceDelay != 500*time.Millisecond {
		t.Errorf("Expected default advance delay 500ms, got %s", cfg.advanceDelay)
	}
}

func TestEnvFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "party.env")
	data := "PARTYFUN_SESSION_TIMEOUT=15m\nPARTYFUN_CHARADES_DURATION=2m\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	// godotenv does not override variables that are already set, so these
	// start unset and are cleared again afterwards.
	for _, key := range []string{"PARTYFUN_SESSION_TIMEOUT", "PARTYFUN_CHARADES_DURATION"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}

	cfg := parseFlags(t, "--env-file", path, "--charades-duration", "4m")

	if cfg.envFile != path {
		t.Errorf("Expected env file %q, got %q", path, cfg.envFile)
	}
	if cfg.sessionTimeout != 15*time.Minute {
		t.Errorf("Expected session timeout 15m from the env file, got %s", cfg.sessionTimeout)
	}
	if cfg.charadesDuration != 4*time.Minute {
		t.Errorf("Expected command line charades duration 4m, got %s", cfg.charadesDuration)
	}
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	cfg := parseFlags(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"))

	if cfg.port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.port)
	}
}

func TestStaticRoutes(t *testing.T) {
	mux := newTestRouter(t, testConfig())

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "Who&#39;s the Spy"},
		{"/healthz", http.StatusOK, "Ok"},
		{"/version", http.StatusOK, "partyfun v" + releaseVersion},
		{"/robots.txt", http.StatusOK, "GPTBot"},
		{"/assets/app.css", http.StatusOK, ":root"},
		{"/assets/nope.css", http.StatusNotFound, ""},
		{"/favicon.svg", http.StatusOK, "<svg"},
		{"/spyword/abcdefgh", http.StatusOK, "spyword/app.js"},
		{"/charades/abcdefgh", http.StatusOK, "charades/app.js"},
		{"/cards/chat", http.StatusOK, "cards/app.js"},
	}

	for _, tt := range tests {
		w := get(t, mux, tt.path)
		if w.Code != tt.status {
			t.Errorf("GET %s: expected status %d, got %d", tt.path, tt.status, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), tt.body) {
			t.Errorf("GET %s: expected body to contain %q", tt.path, tt.body)
		}
		if tt.status == http.StatusOK && w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("GET %s: missing security headers", tt.path)
		}
	}
}

func TestHomePageSkipsDisabledLinks(t *testing.T) {
	mux := newTestRouter(t, testConfig())

	body := get(t, mux, "/").Body.String()
	if !strings.Contains(body, `href="/spyword"`) || !strings.Contains(body, `href="/cards/chat"`) {
		t.Errorf("home page missing game links: %s", body)
	}
	if strings.Contains(body, `href="/cards/emoji"`) {
		t.Error("home page links to a disabled game")
	}
}

func TestNewGameRedirect(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/party"
	mux := newTestRouter(t, cfg)

	w := get(t, mux, "/party/spyword")
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected status %d, got %d", http.StatusTemporaryRedirect, w.Code)
	}

	loc := w.Header().Get("Location")
	id := strings.TrimPrefix(loc, "/party/spyword/")
	if id == loc || len(id) != 8 {
		t.Errorf("Expected /party/spyword/<8 chars>, got %q", loc)
	}
}

func TestAPI(t *testing.T) {
	mux := newTestRouter(t, testConfig())

	w := get(t, mux, "/api/games")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var games []struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &games); err != nil {
		t.Fatal(err)
	}
	if len(games) == 0 || games[0].ID != "chat" {
		t.Errorf("unexpected game list: %+v", games)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/api/games/chat/card", http.StatusOK},
		{"/api/games/haigui/card", http.StatusOK},
		{"/api/games/emoji/card", http.StatusForbidden},
		{"/api/games/wodi/card", http.StatusNotFound},
		{"/api/games/nope/card", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := get(t, mux, tt.path)
		if w.Code != tt.status {
			t.Errorf("GET %s: expected status %d, got %d", tt.path, tt.status, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("GET %s: expected JSON, got %q", tt.path, ct)
		}
	}

	var card struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	w = get(t, mux, "/api/games/chat/card")
	if err := json.Unmarshal(w.Body.Bytes(), &card); err != nil {
		t.Fatal(err)
	}
	if card.Title == "" || card.Body == "" {
		t.Errorf("Expected a populated card, got %+v", card)
	}

	w = get(t, mux, "/api/topics")
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `"Animals"`) {
		t.Errorf("Expected topics to include Animals, got %s", body)
	}
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()

	cfg := testConfig()
	cfg.dataDir = dir

	catalog, err := loadCatalog(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog.WordPairs("wodi")) != 0 {
		t.Error("Expected an empty deck from an empty data directory")
	}

	mux := newTestRouter(t, cfg)
	if w := get(t, mux, "/api/games/chat/card"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d for an empty deck, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500000, "1.5 MB"},
	}

	for _, tt := range tests {
		if got := humanReadableSize(tt.in); got != tt.want {
			t.Errorf("humanReadableSize(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
