package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/botmanager"
	"github.com/wazecore/wazecore/gateway"
	"github.com/wazecore/wazecore/store"
	"github.com/wazecore/wazecore/ui/rest/middleware"
)

type fakeWaker struct{}

func (fakeWaker) Wake(string)                       {}
func (fakeWaker) StartChat(context.Context, string) {}
func (fakeWaker) StopChat(string)                   {}

type fakeGateway struct {
	chats []gateway.Chat
}

func (f fakeGateway) ListChats(ctx context.Context) ([]gateway.Chat, error) {
	return f.chats, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHealth_NoAuthRequired(t *testing.T) {
	app := fiber.New()
	InitRestHealth(app)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SUCCESS", body["code"])
}

func TestAuthLogin_WrongPassword_Returns401Envelope(t *testing.T) {
	st := newTestStore(t)
	_, err := st.CreateUser(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)

	app := newAppWithRecovery()
	InitRestAuth(app, st, []byte("test-secret"), time.Hour)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", loginRequest{Username: "alice", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "BAD_CREDENTIALS", body["error_kind"])
}

func TestAuthLogin_ThenRequireAuth_AcceptsIssuedToken(t *testing.T) {
	st := newTestStore(t)
	_, err := st.CreateUser(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	secret := []byte("test-secret")

	app := newAppWithRecovery()
	InitRestAuth(app, st, secret, time.Hour)

	_, loginBody := doJSON(t, app, http.MethodPost, "/auth/login", loginRequest{Username: "alice", Password: "correct-horse"}, "")
	results := loginBody["results"].(map[string]any)
	token := results["token"].(string)
	require.NotEmpty(t, token)

	registry := botkernel.NewRegistry()
	registry.Register(botkernel.JokeBot{})
	mgr := botmanager.New(st, registry, fakeWaker{})
	protected := app.Group("", middleware.RequireAuth(secret))
	InitRestBot(protected, registry, mgr)

	resp, _ := doJSON(t, app, http.MethodGet, "/bot-types", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "missing token must be rejected")

	resp, _ = doJSON(t, app, http.MethodGet, "/bot-types", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatRegister_RejectsUnknownGatewayJID(t *testing.T) {
	st := newTestStore(t)
	registry := botkernel.NewRegistry()
	mgr := botmanager.New(st, registry, fakeWaker{})
	gw := fakeGateway{chats: []gateway.Chat{{JID: "123@g.us", Name: "Team", Kind: "group"}}}

	app := newAppWithRecovery()
	InitRestChat(app, st, mgr, gw)

	resp, body := doJSON(t, app, http.MethodPost, "/chats", registerChatRequest{JID: "999@g.us", Name: "Ghost", Kind: "group"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["error_kind"])

	resp, body = doJSON(t, app, http.MethodPost, "/chats", registerChatRequest{JID: "123@g.us", Name: "Team", Kind: "group"}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "CREATED", body["code"])

	resp, body = doJSON(t, app, http.MethodPost, "/chats", registerChatRequest{JID: "123@g.us", Name: "Team", Kind: "group"}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", body["error_kind"])
}

func TestBotCreate_UnknownType_Returns404(t *testing.T) {
	st := newTestStore(t)
	registry := botkernel.NewRegistry()
	mgr := botmanager.New(st, registry, fakeWaker{})

	app := newAppWithRecovery()
	InitRestBot(app, registry, mgr)

	resp, body := doJSON(t, app, http.MethodPost, "/bots", createBotRequest{TypeKey: "nonexistent", Name: "X"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_TYPE", body["error_kind"])
}

func TestScheduleCreate_BadCronReturns400(t *testing.T) {
	st := newTestStore(t)
	app := newAppWithRecovery()
	InitRestSchedule(app, st, nil)

	resp, body := doJSON(t, app, http.MethodPost, "/schedules", createScheduleRequest{
		Kind: "cron", Expression: "not a cron", Timezone: "UTC", TargetJID: "123@g.us", Content: "hi",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_CRON", body["error_kind"])
}

// newAppWithRecovery mirrors the wiring NewApp does, minus CORS/logger, so
// handler tests see the same panic-to-envelope behavior production does.
func newAppWithRecovery() *fiber.App {
	app := fiber.New()
	app.Use(middleware.Recovery())
	return app
}
