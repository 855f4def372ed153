package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/gateway"
	"github.com/wazecore/wazecore/llm"
	"github.com/wazecore/wazecore/store"
)

type fakeGateway struct {
	mu       sync.Mutex
	messages map[string][]gateway.Message
	sent     []string
}

func (f *fakeGateway) FetchMessages(ctx context.Context, chatJID, since string, limit int) ([]gateway.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[chatJID]
	f.messages[chatJID] = nil // each tick only sees new messages once, like a real gateway window
	return msgs, nil
}

func (f *fakeGateway) SendText(ctx context.Context, chatJID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return "sent-1", nil
}

func (f *fakeGateway) DownloadMedia(ctx context.Context, messageID string) ([]byte, string, error) {
	return nil, "", nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProcessor_ColdStartSkipsHistoryWithoutDispatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.RegisterChat(ctx, "123@g.us", "Team", store.ChatGroup)
	require.NoError(t, err)
	bot, err := st.CreateBotInstance(ctx, "joke", "Jokester", "", map[string]any{"prefix": "[joke]"})
	require.NoError(t, err)
	_, err = st.AssignBot(ctx, chat.ID, bot.ID, 0)
	require.NoError(t, err)

	registry := botkernel.NewRegistry()
	registry.Register(botkernel.JokeBot{})

	gw := &fakeGateway{messages: map[string][]gateway.Message{
		"123@g.us": {{ID: "m1", Content: "hi there", Timestamp: time.Now()}},
	}}

	p := New(gw, st, registry, nil, nil, Config{PollInterval: time.Hour, MessageLimitPerPoll: 20})
	p.runTick(ctx, chat.ID)

	rows, err := st.ListProcessedForChat(ctx, chat.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, store.StatusSkipped, rows[0].Status)
	assert.Empty(t, gw.sent, "cold start must never dispatch a reply")

	got, err := st.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastProcessedMessageID)
	assert.Equal(t, "m1", *got.LastProcessedMessageID)
}

func TestProcessor_DispatchesAfterWatermarkIsSet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.RegisterChat(ctx, "123@g.us", "Team", store.ChatGroup)
	require.NoError(t, err)
	bot, err := st.CreateBotInstance(ctx, "joke", "Jokester", "", map[string]any{"prefix": "[joke]"})
	require.NoError(t, err)
	_, err = st.AssignBot(ctx, chat.ID, bot.ID, 0)
	require.NoError(t, err)
	require.NoError(t, st.AdvanceChatWatermark(ctx, chat.ID, "m0", time.Now().Add(-time.Hour)))

	registry := botkernel.NewRegistry()
	registry.Register(botkernel.JokeBot{})

	gw := &fakeGateway{messages: map[string][]gateway.Message{
		"123@g.us": {{ID: "m1", Content: "tell me something", Timestamp: time.Now()}},
	}}

	p := New(gw, st, registry, stubLLMProvider{}, nil, Config{PollInterval: time.Hour, MessageLimitPerPoll: 20})
	p.runTick(ctx, chat.ID)

	rows, err := st.ListProcessedForChat(ctx, chat.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, store.StatusOK, rows[0].Status)
	require.Len(t, gw.sent, 1)
}

type stubLLMProvider struct{}

func (stubLLMProvider) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	return "why did the chicken cross the road", nil
}

func (stubLLMProvider) CompleteVision(ctx context.Context, systemPrompt, userText string, image []byte, format llm.ImageFormat) (string, error) {
	return "", nil
}

func (stubLLMProvider) Transcribe(ctx context.Context, audio []byte, format llm.AudioFormat) (string, error) {
	return "", nil
}
