package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/auth"
	"github.com/avoronkov/peerchat-server/internal/config"
	"github.com/avoronkov/peerchat-server/internal/core"
	"github.com/avoronkov/peerchat-server/internal/store"
	"github.com/avoronkov/peerchat-server/internal/store/sqlite"
)

// testEnv bundles the wired components behind a running test server.
type testEnv struct {
	ts       *httptest.Server
	store    store.Store
	auth     *auth.Service
	registry *core.Registry
	tracker  *core.Tracker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	logger := zerolog.Nop()
	registry := core.NewRegistry()
	tracker := core.NewTracker()
	watcher := core.NewWatcher(tracker, 20*time.Millisecond)
	router := core.NewRouter(registry, tracker, st, &logger)

	cfg := config.Default()
	cfg.Addr = ":0"

	server := NewServer(cfg, authService, st, registry, tracker, watcher, router, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		ts:       ts,
		store:    st,
		auth:     authService,
		registry: registry,
		tracker:  tracker,
	}
}

// registerUser creates a user and returns its token.
func (e *testEnv) registerUser(t *testing.T, username, email string) string {
	t.Helper()

	token, _, err := e.auth.Register(context.Background(), username, email, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return token
}

// wsURL converts the test server URL into the websocket endpoint for a token.
func (e *testEnv) wsURL(token string) string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws/" + token
}

// saveTestMessage persists a message directly through the store.
func saveTestMessage(t *testing.T, env *testEnv, chatID, sender, content string) {
	t.Helper()

	err := env.store.SaveMessage(context.Background(), &store.Message{
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("save message: %v", err)
	}
}
