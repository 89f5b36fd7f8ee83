package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSubjects(t *testing.T) {
	require.Equal(t, "onboard.abc.>", SubjectForSession("abc"))
	require.Equal(t, "onboard.abc.login", SubjectForEvent("abc", KindLogin))
}

func TestPublishAndHistory(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	events := []Event{
		{Session: "s1", Kind: KindState, State: "submitting"},
		{Session: "s1", Kind: KindSetup, Status: 500, Detail: "setup returned 500"},
		{Session: "s2", Kind: KindState, State: "submitting"},
		{Session: "s1", Kind: KindLogin, Status: 200},
		{Session: "s1", Kind: KindState, State: "redirecting"},
	}
	for _, ev := range events {
		_, err := j.Publish(ctx, ev)
		require.NoError(t, err)
	}

	history, err := j.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)

	kinds := make([]string, 0, len(history))
	for i, ev := range history {
		kinds = append(kinds, ev.Kind)
		require.Equal(t, "s1", ev.Session)
		require.False(t, ev.Timestamp.IsZero())
		if i > 0 {
			require.Greater(t, ev.Seq, history[i-1].Seq)
		}
	}
	require.Equal(t, []string{KindState, KindSetup, KindLogin, KindState}, kinds)
	require.Equal(t, 500, history[1].Status)

	again, err := j.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, again, 4, "history can be replayed")

	empty, err := j.History(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestPublishRejectsBadSession(t *testing.T) {
	j := openTestJournal(t)

	for _, session := range []string{"", "a.b", "a*", "a b"} {
		_, err := j.Publish(context.Background(), Event{Session: session, Kind: KindState})
		require.Error(t, err, "session %q", session)
	}
}

func TestEventString(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	ev := Event{Timestamp: ts, Kind: KindLogin, Status: 401, Detail: "login rejected"}
	require.Equal(t, "03:04:05.006 login status=401 login rejected", ev.String())

	ev = Event{Timestamp: ts, Kind: KindState, State: "failed"}
	require.Equal(t, "03:04:05.006 state state=failed", ev.String())
}

func TestCloseIsIdempotent(t *testing.T) {
	j, err := Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())
	require.NoDirExists(t, j.dir)
}

type failingFetcher struct {
	err error
}

func (f failingFetcher) FetchNoWait(int) (jetstream.MessageBatch, error) {
	return nil, f.err
}

func TestReadAllReturnsFetchError(t *testing.T) {
	boom := errors.New("connection closed")

	events, err := readAll(failingFetcher{err: boom})
	require.ErrorIs(t, err, boom)
	require.Nil(t, events)
}
