package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"favorites-sync/internal/adapters/identity"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayOnReconnect_ReplaysSignedInUsers(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)

	require.NoError(t, e.add.Execute(ctx, "uid-a", aapl))
	require.NoError(t, e.add.Execute(ctx, "uid-b", tsla))
	require.NoError(t, e.add.Execute(ctx, "uid-c", goog))

	trigger, err := usecase.NewReplayOnReconnect(e.oracle, staticSessions{"uid-a", "uid-b"}, e.replay, nil)
	require.NoError(t, err)
	trigger.Start()
	trigger.Start()
	defer trigger.Stop()

	e.oracle.SetOnline(ctx, true)

	assert.Equal(t, []string{"AAPL"}, symbols(e.remote.set("uid-a")))
	assert.Equal(t, []string{"TSLA"}, symbols(e.remote.set("uid-b")))
	assert.Empty(t, e.queued(t, "uid-a"))
	assert.Empty(t, e.queued(t, "uid-b"))
	assert.Len(t, e.queued(t, "uid-c"), 1, "signed-out users are not replayed")

	// Повторный сигнал "онлайн" без перехода не запускает воспроизведение.
	calls := e.remote.callCount()
	e.oracle.SetOnline(ctx, true)
	assert.Equal(t, calls, e.remote.callCount())
}

func TestReplayOnReconnect_FailureKeepsQueueForNextReconnect(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)
	require.NoError(t, e.add.Execute(ctx, uid, aapl))
	require.NoError(t, e.add.Execute(ctx, uid, tsla))

	trigger, err := usecase.NewReplayOnReconnect(e.oracle, staticSessions{uid}, e.replay, nil)
	require.NoError(t, err)

	e.remote.failWrites[1] = errNetwork
	assert.Equal(t, 1, trigger.ReplayAll(ctx))
	assert.Len(t, e.queued(t, uid), 2)

	trigger.Start()
	defer trigger.Stop()
	e.oracle.SetOnline(ctx, true)

	assert.Empty(t, e.queued(t, uid))
	assert.Equal(t, []string{"AAPL", "TSLA"}, symbols(e.remote.set(uid)))
}

func TestReplayOnReconnect_StopUnsubscribes(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)
	require.NoError(t, e.add.Execute(ctx, uid, aapl))

	trigger, err := usecase.NewReplayOnReconnect(e.oracle, staticSessions{uid}, e.replay, nil)
	require.NoError(t, err)
	trigger.Start()
	trigger.Stop()

	e.oracle.SetOnline(ctx, true)
	assert.Len(t, e.queued(t, uid), 1)
}

func TestReplayOnReconnect_CancelledContextCountsRemainingUsers(t *testing.T) {
	e := newEngine(t, true, nil)
	trigger, err := usecase.NewReplayOnReconnect(e.oracle, staticSessions{"a", "b", "c"}, e.replay, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 3, trigger.ReplayAll(ctx))
}

func TestNewReplayOnReconnect_RequiresDependencies(t *testing.T) {
	_, err := usecase.NewReplayOnReconnect(nil, staticSessions{}, nil, nil)
	assert.Error(t, err)
}

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := usecase.NewUserLocks()

	unlock := locks.Lock(uid)
	acquired := make(chan struct{})
	go func() {
		release := locks.Lock(uid)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock was not acquired after unlock")
	}
}

func TestUserLocks_DifferentUsersDoNotBlock(t *testing.T) {
	locks := usecase.NewUserLocks()
	unlockA := locks.Lock("uid-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		locks.Lock("uid-b")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
}

func TestConcurrentOfflineAddsAreAllQueued(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)

	symbolsToAdd := []string{"AAPL", "TSLA", "GOOG", "MSFT", "NVDA", "AMZN", "META", "NFLX"}
	var wg sync.WaitGroup
	for _, s := range symbolsToAdd {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			assert.NoError(t, e.add.Execute(ctx, uid, domain.Favorite{Symbol: symbol}))
		}(s)
	}
	wg.Wait()

	assert.Len(t, e.queued(t, uid), len(symbolsToAdd))
}

func TestReplayOnReconnect_ReleasesDrainedSessions(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)
	require.NoError(t, e.add.Execute(ctx, "uid-owner", aapl))
	require.NoError(t, e.add.Execute(ctx, "uid-drained", tsla))
	require.NoError(t, e.add.Execute(ctx, "uid-failing", goog))

	sessions := identity.NewSessions("uid-owner")
	sessions.SignIn("uid-drained")
	sessions.SignIn("uid-failing")
	sessions.SignIn("uid-idle")

	trigger, err := usecase.NewReplayOnReconnect(e.oracle, sessions, e.replay, nil)
	require.NoError(t, err)

	// Очереди воспроизводятся в порядке ID: drained, failing, idle, owner.
	e.remote.failWrites[2] = errNetwork
	e.oracle.SetOnline(ctx, true)
	assert.Equal(t, 1, trigger.ReplayAll(ctx))

	assert.Equal(t, []string{"uid-failing", "uid-owner"}, sessions.SignedInUsers(),
		"pinned and failed users stay registered, drained ones are released")
	assert.Len(t, e.queued(t, "uid-failing"), 1)
	assert.Empty(t, e.queued(t, "uid-owner"))

	// Следующее переподключение дочищает оставшуюся очередь.
	assert.Equal(t, 0, trigger.ReplayAll(ctx))
	assert.Equal(t, []string{"uid-owner"}, sessions.SignedInUsers())
	assert.Equal(t, []string{"GOOG"}, symbols(e.remote.set("uid-failing")))
}
