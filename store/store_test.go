package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRegisterChat_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.RegisterChat(ctx, "123@g.us", "Team", ChatGroup)
	require.NoError(t, err)

	b, err := s.RegisterChat(ctx, "123@g.us", "Team Renamed", ChatGroup)
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
}

func TestTryLockMessage_AtMostOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.RegisterChat(ctx, "123@g.us", "Team", ChatGroup)
	require.NoError(t, err)
	bot, err := s.CreateBotInstance(ctx, "translation", "Translator", "", map[string]any{"prefix": "[ai]"})
	require.NoError(t, err)

	rowID, first, err := s.TryLockMessage(ctx, bot.ID, chat.ID, "msg-1")
	require.NoError(t, err)
	require.Equal(t, Locked, first)
	require.NoError(t, s.FinalizeProcessed(ctx, rowID, StatusOK, "hola", ""))

	_, second, err := s.TryLockMessage(ctx, bot.ID, chat.ID, "msg-1")
	require.NoError(t, err)
	require.Equal(t, Existed, second)
}

func TestReconcileProcessed_FinalizesPendingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.RegisterChat(ctx, "123@g.us", "Team", ChatGroup)
	require.NoError(t, err)
	bot, err := s.CreateBotInstance(ctx, "translation", "Translator", "", map[string]any{"prefix": "[ai]"})
	require.NoError(t, err)

	_, _, err = s.TryLockMessage(ctx, bot.ID, chat.ID, "msg-1")
	require.NoError(t, err)

	n, err := s.ReconcileProcessed(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	rows, err := s.ListProcessedForChat(ctx, chat.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusFailed, rows[0].Status)
	assert.Equal(t, InterruptedAtShutdown, rows[0].ErrorKind)
}

func TestAdvanceChatWatermark_IsMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.RegisterChat(ctx, "123@g.us", "Team", ChatGroup)
	require.NoError(t, err)

	newer := time.Now().UTC()
	older := newer.Add(-time.Hour)

	require.NoError(t, s.AdvanceChatWatermark(ctx, chat.ID, "msg-2", newer))
	require.NoError(t, s.AdvanceChatWatermark(ctx, chat.ID, "msg-1", older))

	got, err := s.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, "msg-2", *got.LastProcessedMessageID)
}

func TestAssignBot_RejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.RegisterChat(ctx, "123@g.us", "Team", ChatGroup)
	require.NoError(t, err)
	bot, err := s.CreateBotInstance(ctx, "joke", "Jokester", "", map[string]any{})
	require.NoError(t, err)

	_, err = s.AssignBot(ctx, chat.ID, bot.ID, 0)
	require.NoError(t, err)

	_, err = s.AssignBot(ctx, chat.ID, bot.ID, 1)
	require.Error(t, err)
}

func TestScheduleFire_OnceDisablesAfterFiring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fireAt := time.Now().UTC().Add(time.Minute)
	sched, err := s.CreateSchedule(ctx, ScheduleOnce, &fireAt, "", "", "123@g.us", "reminder")
	require.NoError(t, err)

	require.NoError(t, s.RecordScheduleFire(ctx, sched.ID, time.Now().UTC(), ResultOK))

	got, err := s.GetSchedule(ctx, sched.ID)
	require.NoError(t, err)
	require.Nil(t, got.NextFireAt)
	require.False(t, got.Enabled)
}

func TestScheduleFire_CronRecomputesNextFire(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sched, err := s.CreateSchedule(ctx, ScheduleCron, nil, "*/5 * * * *", "UTC", "123@g.us", "ping")
	require.NoError(t, err)
	require.NotNil(t, sched.NextFireAt)

	firstNext := *sched.NextFireAt
	require.NoError(t, s.RecordScheduleFire(ctx, sched.ID, firstNext, ResultOK))

	got, err := s.GetSchedule(ctx, sched.ID)
	require.NoError(t, err)
	require.True(t, got.NextFireAt.After(firstNext))
}

func TestListDueSchedules_OldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	soon := time.Now().UTC().Add(time.Second)
	later := time.Now().UTC().Add(2 * time.Second)

	_, err := s.CreateSchedule(ctx, ScheduleOnce, &later, "", "", "a@g.us", "b")
	require.NoError(t, err)
	_, err = s.CreateSchedule(ctx, ScheduleOnce, &soon, "", "", "c@g.us", "d")
	require.NoError(t, err)

	due, err := s.ListDueSchedules(ctx, time.Now().UTC().Add(3*time.Second))
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "c@g.us", due[0].TargetJID)
}
