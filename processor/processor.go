// Package processor is the polling + dispatch engine: one
// goroutine per Chat, each driving a sequential bot fan-out per message,
// at-most-once delivery, and graceful shutdown.
package processor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/gateway"
	"github.com/wazecore/wazecore/llm"
	"github.com/wazecore/wazecore/store"
)

// GatewayClient is the subset of *gateway.Client the Processor depends
// on; narrowed to an interface so tests can substitute a fake.
type GatewayClient interface {
	FetchMessages(ctx context.Context, chatJID, since string, limit int) ([]gateway.Message, error)
	SendText(ctx context.Context, chatJID, text string) (string, error)
	DownloadMedia(ctx context.Context, messageID string) ([]byte, string, error)
}

// MediaExtractor is the subset of *media.Pipeline the Processor needs.
type MediaExtractor interface {
	ExtractAudio(ctx context.Context, video []byte) ([]byte, error)
}

// shutdownTimeout bounds how long a chat poller may take to drain its
// current tick on shutdown.
const shutdownTimeout = 30 * time.Second

// backoffLadder is the fetch_messages retry policy.
var backoffLadder = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Config tunes a Processor: PollInterval is the per-chat sleep between
// ticks, and MessageLimitPerPoll caps how many messages a single
// fetch_messages call returns.
type Config struct {
	PollInterval        time.Duration
	MessageLimitPerPoll int
}

// Processor owns one poller per registered Chat.
type Processor struct {
	gw       GatewayClient
	st       *store.Store
	registry *botkernel.Registry
	llm      llm.Provider
	media    MediaExtractor
	cfg      Config

	mu      sync.Mutex
	wakes   map[string]chan struct{}
	stopped map[string]context.CancelFunc
	wg      sync.WaitGroup

	ticks int64 // atomic, total poll ticks executed, for tests/metrics
}

// New builds a Processor. Call Start to begin polling registered chats.
func New(gw GatewayClient, st *store.Store, registry *botkernel.Registry, provider llm.Provider, media MediaExtractor, cfg Config) *Processor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MessageLimitPerPoll <= 0 {
		cfg.MessageLimitPerPoll = 20
	}
	return &Processor{
		gw:       gw,
		st:       st,
		registry: registry,
		llm:      provider,
		media:    media,
		cfg:      cfg,
		wakes:    make(map[string]chan struct{}),
		stopped:  make(map[string]context.CancelFunc),
	}
}

// Start launches a poller goroutine for every currently-enabled chat.
// Chats registered later are picked up by calling StartChat directly
// (botmanager does this on registration).
func (p *Processor) Start(ctx context.Context) error {
	chats, err := p.st.ListChats(ctx, true)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		p.StartChat(ctx, chat.ID)
	}
	return nil
}

// StartChat launches a poller for a single chat if one isn't already
// running.
func (p *Processor) StartChat(parent context.Context, chatID string) {
	p.mu.Lock()
	if _, running := p.stopped[chatID]; running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	p.stopped[chatID] = cancel
	p.wakes[chatID] = make(chan struct{}, 1)
	wake := p.wakes[chatID]
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.pollLoop(ctx, chatID, wake)
	}()
}

// StopChat cancels a single chat's poller, e.g. when the chat is disabled
// or deleted.
func (p *Processor) StopChat(chatID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.stopped[chatID]; ok {
		cancel()
		delete(p.stopped, chatID)
		delete(p.wakes, chatID)
	}
}

// Wake interrupts a chat poller's sleep so its next tick starts at once,
// letting an assignment change or manual action take effect without
// waiting out the rest of the poll interval.
func (p *Processor) Wake(chatID string) {
	p.mu.Lock()
	ch, ok := p.wakes[chatID]
	p.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Ticks returns the total number of poll ticks executed across all chats,
// for tests and health reporting.
func (p *Processor) Ticks() int64 {
	return atomic.LoadInt64(&p.ticks)
}

// Stop cancels every poller and waits up to shutdownTimeout for them to
// drain their current tick.
func (p *Processor) Stop() {
	p.mu.Lock()
	for _, cancel := range p.stopped {
		cancel()
	}
	p.stopped = make(map[string]context.CancelFunc)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logrus.Warn("[PROCESSOR] shutdown timeout exceeded, forcing exit")
	}
}

// pollLoop is the per-chat goroutine: poll tick, then sleep for
// PollInterval or until woken, repeat until ctx is cancelled. Sleeping
// relative to the previous tick's completion (not a fixed grid) is the
// backpressure mechanism.
func (p *Processor) pollLoop(ctx context.Context, chatID string, wake <-chan struct{}) {
	for {
		p.runTick(ctx, chatID)
		atomic.AddInt64(&p.ticks, 1)

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-time.After(p.cfg.PollInterval):
		}
	}
}

// runTick implements one poll tick: fetch new messages, catch up cold
// starts, and dispatch each message to its assigned bots in order.
func (p *Processor) runTick(ctx context.Context, chatID string) {
	chat, err := p.st.GetChat(ctx, chatID)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("[PROCESSOR] chat lookup failed")
		return
	}
	if !chat.Enabled {
		return
	}

	since := ""
	if chat.LastProcessedMessageID != nil {
		since = *chat.LastProcessedMessageID
	}

	messages, err := p.fetchWithRetry(ctx, chat.JID, since)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("[PROCESSOR] fetch_messages failed, skipping tick")
		return
	}
	if len(messages) == 0 {
		return
	}

	if since == "" {
		p.coldStartCatchUp(ctx, chat, messages)
		return
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return // shutdown: finish no further messages, current one already completed
		}
		if msg.IsPresenceOnly() {
			continue
		}
		// Assignments are read per message, so a change made mid-tick
		// applies from the next message on.
		assignments, err := p.st.ListAssignmentsForChat(ctx, chat.ID, true)
		if err != nil {
			logrus.WithError(err).WithField("chat_id", chatID).Error("[PROCESSOR] listing assignments failed")
			return
		}
		p.dispatchMessage(ctx, chat, msg, assignments)
	}
}

// fetchWithRetry retries transient gateway errors per the backoff ladder,
// giving up (and skipping the tick) on a non-retriable error.
func (p *Processor) fetchWithRetry(ctx context.Context, chatJID, since string) ([]gateway.Message, error) {
	for attempt := 0; ; attempt++ {
		msgs, err := p.gw.FetchMessages(ctx, chatJID, since, p.cfg.MessageLimitPerPoll)
		if err == nil {
			return msgs, nil
		}

		var gwErr *gateway.Error
		retriable := false
		if ok := asGatewayError(err, &gwErr); ok {
			retriable = gwErr.Retriable()
		}
		if !retriable || attempt >= len(backoffLadder) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffLadder[attempt]):
		}
	}
}

func asGatewayError(err error, target **gateway.Error) bool {
	ge, ok := err.(*gateway.Error)
	if ok {
		*target = ge
	}
	return ok
}

// coldStartCatchUp implements the first-poll policy: consume history as
// skipped, never dispatch it.
func (p *Processor) coldStartCatchUp(ctx context.Context, chat store.Chat, messages []gateway.Message) {
	assignments, err := p.st.ListAssignmentsForChat(ctx, chat.ID, true)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chat.ID).Error("[PROCESSOR] cold start: listing assignments failed")
		return
	}

	var newest gateway.Message
	for _, msg := range messages {
		for _, a := range assignments {
			_ = p.st.InsertSkipped(ctx, a.Instance.ID, chat.ID, msg.ID, "cold_start_catch_up")
		}
		if msg.Timestamp.After(newest.Timestamp) {
			newest = msg
		}
	}

	if err := p.st.AdvanceChatWatermark(ctx, chat.ID, newest.ID, newest.Timestamp); err != nil {
		logrus.WithError(err).WithField("chat_id", chat.ID).Error("[PROCESSOR] cold start: watermark advance failed")
	}
}

// dispatchMessage runs the per-message, per-assignment fan-out over a
// single message, then advances the watermark.
func (p *Processor) dispatchMessage(ctx context.Context, chat store.Chat, msg gateway.Message, assignments []store.AssignedBot) {
	if msg.IsFromMe && startsWithEnabledPrefix(msg.Content, assignments) {
		for _, a := range assignments {
			_ = p.st.InsertSkipped(ctx, a.Instance.ID, chat.ID, msg.ID, "self_reply_suppressed")
		}
		p.advanceWatermark(ctx, chat.ID, msg)
		return
	}

	for _, a := range assignments {
		p.dispatchOne(ctx, chat, msg, a)
	}
	p.advanceWatermark(ctx, chat.ID, msg)
}

func (p *Processor) advanceWatermark(ctx context.Context, chatID string, msg gateway.Message) {
	if err := p.st.AdvanceChatWatermark(ctx, chatID, msg.ID, msg.Timestamp); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("[PROCESSOR] watermark advance failed")
	}
}

// startsWithEnabledPrefix reports whether content begins with any enabled
// bot instance's configured prefix.
func startsWithEnabledPrefix(content string, assignments []store.AssignedBot) bool {
	for _, a := range assignments {
		prefix, _ := a.Instance.Config()["prefix"].(string)
		if prefix != "" && strings.HasPrefix(content, prefix) {
			return true
		}
	}
	return false
}

// dispatchOne locks, invokes, and finalizes a single (bot, message) pair.
// A dispatch failure is recorded and does not abort the remaining bots
// for this message.
func (p *Processor) dispatchOne(ctx context.Context, chat store.Chat, msg gateway.Message, a store.AssignedBot) {
	rowID, result, err := p.st.TryLockMessage(ctx, a.Instance.ID, chat.ID, msg.ID)
	if err != nil {
		logrus.WithError(err).WithField("bot_instance_id", a.Instance.ID).Error("[PROCESSOR] lock failed")
		return
	}
	if result == store.Existed {
		return
	}

	botType, err := p.registry.Get(a.Instance.TypeKey)
	if err != nil {
		_ = p.st.FinalizeProcessed(ctx, rowID, store.StatusFailed, "", "bot_type_not_registered")
		return
	}

	kernelMsg := p.buildKernelMessage(ctx, msg, botType.Info().Capabilities)
	botCtx := botkernel.Context{LLM: p.llm, Media: p.media, Config: a.Instance.Config()}

	reply, procErr := botType.Process(ctx, kernelMsg, botCtx)
	if procErr != nil {
		_ = p.st.FinalizeProcessed(ctx, rowID, store.StatusFailed, "", classifyErr(procErr))
		return
	}
	if reply == nil {
		_ = p.st.FinalizeProcessed(ctx, rowID, store.StatusSkipped, "", "")
		return
	}

	if _, err := p.gw.SendText(ctx, chat.JID, reply.Text); err != nil {
		_ = p.st.FinalizeProcessed(ctx, rowID, store.StatusFailed, "", "send_failed")
		return
	}
	_ = p.st.FinalizeProcessed(ctx, rowID, store.StatusOK, excerpt(reply.Text), "")
}

// buildKernelMessage maps a gateway message to the kernel's Message and
// downloads its media payload only when the media type matches one of the
// bot type's declared capabilities; otherwise Media stays nil.
func (p *Processor) buildKernelMessage(ctx context.Context, msg gateway.Message, caps []botkernel.Capability) botkernel.Message {
	km := botkernel.Message{
		ExternalID: msg.ID,
		SenderJID:  msg.SenderJID,
		IsFromMe:   msg.IsFromMe,
		Timestamp:  msg.Timestamp,
		Content:    msg.Content,
		MimeType:   msg.MimeType,
	}

	switch msg.MediaType {
	case gateway.MediaImage:
		km.MediaKind = botkernel.CapImage
	case gateway.MediaAudio, gateway.MediaVoice:
		km.MediaKind = botkernel.CapAudio
	case gateway.MediaVideo:
		km.MediaKind = botkernel.CapVideo
	default:
		return km
	}
	if !botkernel.Has(caps, km.MediaKind) {
		return km
	}

	data, _, err := p.gw.DownloadMedia(ctx, msg.ID)
	if err != nil {
		logrus.WithError(err).WithField("message_id", msg.ID).Warn("[PROCESSOR] media download failed")
		return km // Media stays nil; the bot's own media-failure reply path handles it.
	}
	km.Media = data
	return km
}

func classifyErr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func excerpt(text string) string {
	const max = 200
	if len(text) <= max {
		return text
	}
	return text[:max] + "…"
}
