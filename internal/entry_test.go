package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/taskservice"
	"github.com/starford/ansuz/internal/testutil"
)

func testHandler(t *testing.T, gw store.Gateway, cfg *Config) (http.Handler, *schema.Cache) {
	t.Helper()
	cache := schema.NewCache(gw, nil)
	svc := taskservice.NewService(gw, cache, nil, nil)
	return newHTTPHandler(cfg, svc, cache, nil), cache
}

func memoryConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Store.Driver = DriverMemory
	return cfg
}

func TestHealthReady(t *testing.T) {
	f := testutil.NewFetcher(store.DefaultTaskSchema())
	f.SetFailing(true)
	handler, cache := testHandler(t, testutil.WithFetcher(testutil.MemoryStore(t), f), memoryConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before schema = %d, want 503", w.Code)
	}

	f.SetFailing(false)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("ready after recovery = %d, want 200", w.Code)
	}
	if !cache.Loaded() {
		t.Error("cache should be loaded")
	}
}

func TestHealthLive(t *testing.T) {
	handler, _ := testHandler(t, testutil.MemoryStore(t), memoryConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}
}

func TestAPIMountedWithAuth(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "tok"}
	handler, _ := testHandler(t, testutil.MemoryStore(t), cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token = %d, want 200", w.Code)
	}
}

func TestCORSPreflightBypassesAuth(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "tok"}
	cfg.App.HTTP.CORS.AllowedOrigins = []string{"*"}
	handler, _ := testHandler(t, testutil.MemoryStore(t), cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestNewGatewayByDriver(t *testing.T) {
	app := &application{config: memoryConfig()}
	gw, err := app.newGateway()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := gw.(*store.Memory); !ok {
		t.Errorf("gateway = %T, want *store.Memory", gw)
	}

	app.config.Store.Driver = DriverNotion
	app.config.Store.Notion.Token = "secret"
	app.config.Store.Notion.DatabaseID = "db"
	gw, err = app.newGateway()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := gw.(*store.Notion); !ok {
		t.Errorf("gateway = %T, want *store.Notion", gw)
	}
}
