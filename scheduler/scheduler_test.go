package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazecore/wazecore/store"
)

type fakeSender struct {
	sent []string
	fail bool
}

func (f *fakeSender) SendText(ctx context.Context, targetJID, text string) (string, error) {
	if f.fail {
		return "", assert.AnError
	}
	f.sent = append(f.sent, text)
	return "sent-1", nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestScheduler_FiresDueOnceSchedule(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	fireAt := time.Now().UTC().Add(-time.Second)
	sched, err := st.CreateSchedule(ctx, store.ScheduleOnce, &fireAt, "", "", "123@g.us", "reminder")
	require.NoError(t, err)

	gw := &fakeSender{}
	s := New(st, gw)
	s.tick(ctx)

	require.Len(t, gw.sent, 1)
	assert.Equal(t, "reminder", gw.sent[0])

	got, err := st.GetSchedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Nil(t, got.NextFireAt)
}

func TestScheduler_SendFailureStillAdvancesCronSchedule(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sched, err := st.CreateSchedule(ctx, store.ScheduleCron, nil, "* * * * *", "UTC", "123@g.us", "ping")
	require.NoError(t, err)
	firstNext := *sched.NextFireAt

	gw := &fakeSender{fail: true}
	s := New(st, gw)

	require.NoError(t, st.FireNow(ctx, sched.ID))
	s.tick(ctx)

	got, err := st.GetSchedule(ctx, sched.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastResult)
	assert.Equal(t, store.ResultFailed, *got.LastResult)
	assert.True(t, got.NextFireAt.After(firstNext) || got.NextFireAt.Equal(firstNext))
}

func TestIsMisfire(t *testing.T) {
	now := time.Now().UTC()
	assert.False(t, IsMisfire(now.Add(-30*time.Second), now))
	assert.True(t, IsMisfire(now.Add(-90*time.Second), now))
}
