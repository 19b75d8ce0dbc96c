package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"favorites-sync/internal/adapters/connectivity"
	"favorites-sync/internal/adapters/localstorage"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.New("connection reset by peer")

// fakeRemote - удаленное хранилище в памяти с журналом вызовов.
type fakeRemote struct {
	mu    sync.Mutex
	sets  map[string][]domain.Favorite
	calls []string

	writes     int
	failWrites map[int]error
	readErr    error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{sets: make(map[string][]domain.Favorite), failWrites: make(map[int]error)}
}

func (r *fakeRemote) ReadFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "read:"+userID)
	if r.readErr != nil {
		return nil, r.readErr
	}
	set, ok := r.sets[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Favorite(nil), set...), nil
}

func (r *fakeRemote) WriteFavoriteUnion(ctx context.Context, userID string, fav domain.Favorite) error {
	return r.write("union", userID, fav, domain.UnionFavorite)
}

func (r *fakeRemote) WriteFavoriteSubtract(ctx context.Context, userID string, fav domain.Favorite) error {
	return r.write("subtract", userID, fav, domain.SubtractFavorite)
}

func (r *fakeRemote) write(op, userID string, fav domain.Favorite, apply func([]domain.Favorite, domain.Favorite) []domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.calls = append(r.calls, fmt.Sprintf("%s:%s:%s", op, userID, fav.Symbol))
	if err, ok := r.failWrites[r.writes]; ok {
		return err
	}
	r.sets[userID] = apply(r.sets[userID], fav)
	return nil
}

func (r *fakeRemote) seed(userID string, favorites ...domain.Favorite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[userID] = append([]domain.Favorite(nil), favorites...)
}

func (r *fakeRemote) set(userID string) []domain.Favorite {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Favorite{}, r.sets[userID]...)
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRemote) resetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishFavoritesSynced(ctx context.Context, report domain.SyncReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

type staticSessions []string

func (s staticSessions) SignedInUsers() []string { return s }

func (staticSessions) Release(string, time.Time) {}

// engine собирает use case'ы поверх общих фейков.
type engine struct {
	remote  *fakeRemote
	storage *localstorage.MemoryStorage
	oracle  *connectivity.Manual
	cache   *offline_store.CacheStore
	queue   *offline_store.QueueStore

	get       *usecase.GetFavoritesUseCase
	projected *usecase.GetProjectedFavoritesUseCase
	add       *usecase.AddFavoriteUseCase
	remove    *usecase.RemoveFavoriteUseCase
	pending   *usecase.GetPendingActionsUseCase
	replay    *usecase.ReplayQueueUseCase
}

func newEngine(t *testing.T, online bool, publisher *mockPublisher) *engine {
	t.Helper()

	e := &engine{
		remote:  newFakeRemote(),
		storage: localstorage.NewMemoryStorage(),
		oracle:  connectivity.NewManual(online),
	}
	var err error
	e.cache, err = offline_store.NewCacheStore(e.storage)
	require.NoError(t, err)
	e.queue, err = offline_store.NewQueueStore(e.storage)
	require.NoError(t, err)

	locks := usecase.NewUserLocks()
	mutator := usecase.NewFavoritesMutator(e.remote, e.cache, e.queue, e.oracle)

	e.get = usecase.NewGetFavoritesUseCase(e.remote, e.cache, e.oracle, locks)
	e.projected = usecase.NewGetProjectedFavoritesUseCase(e.get, e.queue, locks)
	e.add = usecase.NewAddFavoriteUseCase(mutator, locks)
	e.remove = usecase.NewRemoveFavoriteUseCase(mutator, locks)
	e.pending = usecase.NewGetPendingActionsUseCase(e.queue, locks)
	if publisher != nil {
		e.replay = usecase.NewReplayQueueUseCase(mutator, e.queue, publisher, locks)
	} else {
		e.replay = usecase.NewReplayQueueUseCase(mutator, e.queue, nil, locks)
	}
	return e
}

func (e *engine) queued(t *testing.T, userID string) []domain.PendingAction {
	t.Helper()
	actions, err := e.queue.Load(context.Background(), userID)
	require.NoError(t, err)
	return actions
}

func symbols(favorites []domain.Favorite) []string {
	out := make([]string, 0, len(favorites))
	for _, f := range favorites {
		out = append(out, f.Symbol)
	}
	return out
}

func actionSymbols(actions []domain.PendingAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a.Type)+":"+a.Favorite.Symbol)
	}
	return out
}
