package botmanager

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/store"
)

type fakeWaker struct {
	mu      sync.Mutex
	woken   []string
	started []string
	stopped []string
}

func (f *fakeWaker) Wake(chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.woken = append(f.woken, chatID)
}

func (f *fakeWaker) StartChat(ctx context.Context, chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, chatID)
}

func (f *fakeWaker) StopChat(chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, chatID)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestManager_CreateBotInstance_ValidatesConfig(t *testing.T) {
	st := newTestStore(t)
	registry := botkernel.NewRegistry()
	registry.Register(botkernel.JokeBot{})
	waker := &fakeWaker{}
	m := New(st, registry, waker)

	_, err := m.CreateBotInstance(context.Background(), "joke", "Jokester", "", map[string]any{"unknown_key": "x"})
	require.Error(t, err)

	inst, err := m.CreateBotInstance(context.Background(), "joke", "Jokester", "", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "[joke]", inst.Config()["prefix"])
}

func TestManager_AssignBot_WakesChat(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	registry := botkernel.NewRegistry()
	registry.Register(botkernel.JokeBot{})
	waker := &fakeWaker{}
	m := New(st, registry, waker)

	chat, err := m.RegisterChat(ctx, "123@g.us", "Team", store.ChatGroup)
	require.NoError(t, err)
	inst, err := m.CreateBotInstance(ctx, "joke", "Jokester", "", map[string]any{})
	require.NoError(t, err)

	_, err = m.AssignBot(ctx, chat.ID, inst.ID, 0)
	require.NoError(t, err)

	assert.Contains(t, waker.started, chat.ID)
	assert.Contains(t, waker.woken, chat.ID)
}
