package usecase_test

import (
	"context"
	"errors"
	"testing"

	"favorites-sync/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReplay_OfflineAddsThenReconnect(t *testing.T) {
	ctx := context.Background()
	publisher := &mockPublisher{}
	publisher.On("PublishFavoritesSynced", mock.Anything, mock.MatchedBy(func(r domain.SyncReport) bool {
		return r.UserID == uid && r.Applied == 2 && len(r.Favorites) == 2
	})).Return(nil).Once()

	e := newEngine(t, false, publisher)

	require.NoError(t, e.add.Execute(ctx, uid, aapl))
	require.NoError(t, e.add.Execute(ctx, uid, tsla))
	assert.Equal(t, []string{"add:AAPL", "add:TSLA"}, actionSymbols(e.queued(t, uid)))
	assert.Empty(t, e.remote.set(uid))

	e.oracle.SetOnline(ctx, true)
	report, err := e.replay.Execute(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplayReport{UserID: uid, Total: 2, Applied: 2}, report)
	assert.True(t, report.Drained())

	assert.Equal(t, []string{"AAPL", "TSLA"}, symbols(e.remote.set(uid)))
	assert.Empty(t, e.queued(t, uid))

	cached, ok, err := e.cache.Load(ctx, uid)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, e.remote.set(uid), cached)

	publisher.AssertExpectations(t)
}

func TestReplay_AddThenRemoveAgainstEmptyRemote(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)

	require.NoError(t, e.add.Execute(ctx, uid, aapl))
	require.NoError(t, e.remove.Execute(ctx, uid, aapl))

	e.oracle.SetOnline(ctx, true)
	_, err := e.replay.Execute(ctx, uid)
	require.NoError(t, err)

	assert.Empty(t, e.remote.set(uid))
	assert.Empty(t, e.queued(t, uid))
	assert.Equal(t, []string{
		"union:" + uid + ":AAPL",
		"read:" + uid,
		"subtract:" + uid + ":AAPL",
		"read:" + uid,
	}, e.remote.calls)
}

func TestReplay_EmptyQueueIsNoop(t *testing.T) {
	publisher := &mockPublisher{}
	e := newEngine(t, true, publisher)

	report, err := e.replay.Execute(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplayReport{UserID: uid}, report)
	assert.Zero(t, e.remote.callCount())
	publisher.AssertNotCalled(t, "PublishFavoritesSynced", mock.Anything, mock.Anything)
}

func TestReplay_PartialFailureRetainsRemainingSteps(t *testing.T) {
	ctx := context.Background()
	publisher := &mockPublisher{}
	e := newEngine(t, false, publisher)

	require.NoError(t, e.add.Execute(ctx, uid, aapl))
	require.NoError(t, e.add.Execute(ctx, uid, tsla))
	require.NoError(t, e.remove.Execute(ctx, uid, aapl))
	require.NoError(t, e.add.Execute(ctx, uid, goog))

	e.oracle.SetOnline(ctx, true)
	e.remote.failWrites[3] = errNetwork

	report, err := e.replay.Execute(ctx, uid)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReplayPartialFailure)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.ErrorIs(t, err, errNetwork)

	var replayErr *domain.ReplayError
	require.True(t, errors.As(err, &replayErr))
	assert.Equal(t, 3, replayErr.Step)
	assert.Equal(t, 4, replayErr.Total)
	assert.Equal(t, domain.ActionRemove, replayErr.Action.Type)

	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 2, report.Remaining)
	assert.False(t, report.Drained())

	assert.Equal(t, []string{"remove:AAPL", "add:GOOG"}, actionSymbols(e.queued(t, uid)))
	assert.Equal(t, []string{"AAPL", "TSLA"}, symbols(e.remote.set(uid)))
	publisher.AssertNotCalled(t, "PublishFavoritesSynced", mock.Anything, mock.Anything)

	// Повтор после сбоя сходится к тому же состоянию, что и безотказный прогон.
	publisher.On("PublishFavoritesSynced", mock.Anything, mock.Anything).Return(nil).Once()
	report, err = e.replay.Execute(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Empty(t, e.queued(t, uid))
	assert.Equal(t, []string{"TSLA", "GOOG"}, symbols(e.remote.set(uid)))
	publisher.AssertExpectations(t)
}

func TestReplay_ConvergesToSequentialApplication(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)
	e.remote.seed(uid, goog)

	steps := []struct {
		remove bool
		fav    domain.Favorite
	}{
		{false, aapl},
		{true, goog},
		{false, tsla},
		{false, aapl},
		{true, domain.Favorite{Symbol: "MSFT"}},
		{false, goog},
	}
	expected := []domain.Favorite{goog}
	for _, step := range steps {
		if step.remove {
			require.NoError(t, e.remove.Execute(ctx, uid, step.fav))
			expected = domain.SubtractFavorite(expected, step.fav)
		} else {
			require.NoError(t, e.add.Execute(ctx, uid, step.fav))
			expected = domain.UnionFavorite(expected, step.fav)
		}
	}

	e.oracle.SetOnline(ctx, true)
	_, err := e.replay.Execute(ctx, uid)
	require.NoError(t, err)

	assert.ElementsMatch(t, symbols(expected), symbols(e.remote.set(uid)))
}

func TestReplay_RepeatedStepIsHarmless(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, false, nil)

	require.NoError(t, e.add.Execute(ctx, uid, aapl))
	e.oracle.SetOnline(ctx, true)

	// Шаг уже применен удаленно, но очередь еще не обрезана.
	e.remote.seed(uid, aapl)
	_, err := e.replay.Execute(ctx, uid)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, symbols(e.remote.set(uid)))
}

func TestReplay_DropsMalformedActions(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, true, nil)

	require.NoError(t, e.queue.Save(ctx, uid, []domain.PendingAction{
		{ID: "1", Type: "rename", Favorite: aapl},
		{ID: "2", Type: domain.ActionAdd, Favorite: domain.Favorite{}},
		{ID: "3", Type: domain.ActionAdd, Favorite: tsla},
	}))

	report, err := e.replay.Execute(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Applied)
	assert.Equal(t, []string{"TSLA"}, symbols(e.remote.set(uid)))
	assert.Empty(t, e.queued(t, uid))
}

func TestReplay_PublishFailureDoesNotFailReplay(t *testing.T) {
	ctx := context.Background()
	publisher := &mockPublisher{}
	publisher.On("PublishFavoritesSynced", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	e := newEngine(t, false, publisher)
	require.NoError(t, e.add.Execute(ctx, uid, aapl))
	e.oracle.SetOnline(ctx, true)

	report, err := e.replay.Execute(ctx, uid)
	require.NoError(t, err)
	assert.True(t, report.Drained())
	publisher.AssertExpectations(t)
}
