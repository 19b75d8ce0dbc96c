package usecase

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/port"
	"fmt"
	"time"
)

// FavoritesMutator - общий путь мутации для add/remove и воспроизведения очереди.
// Методы не берут блокировку пользователя: ее держит вызывающий use case.
type FavoritesMutator struct {
	remote port.RemoteFavoritesStorePort
	cache  *offline_store.CacheStore
	queue  *offline_store.QueueStore
	oracle port.ConnectivityOraclePort
	now    func() time.Time
}

func NewFavoritesMutator(
	remote port.RemoteFavoritesStorePort,
	cache *offline_store.CacheStore,
	queue *offline_store.QueueStore,
	oracle port.ConnectivityOraclePort,
) *FavoritesMutator {
	return &FavoritesMutator{
		remote: remote,
		cache:  cache,
		queue:  queue,
		oracle: oracle,
		now:    time.Now,
	}
}

// mutate применяет действие сразу, если сеть есть, иначе ставит его в очередь.
func (m *FavoritesMutator) mutate(ctx context.Context, userID string, actionType domain.ActionType, fav domain.Favorite) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	action, err := domain.NewPendingAction(actionType, fav, m.now())
	if err != nil {
		return err
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "FavoritesMutator",
		"user_id":   userID,
		"action":    action.Type,
		"symbol":    action.Favorite.Symbol,
		"action_id": action.ID,
	})

	if !isOnline(ctx, m.oracle) {
		queued, err := m.queue.Append(ctx, userID, action)
		if err != nil {
			logger.Error("Failed to queue offline action", err, nil)
			return fmt.Errorf("failed to queue %s action: %w", action.Type, err)
		}
		logger.Info("Offline, action queued for replay", port.Fields{"queue_length": queued})
		return nil
	}

	if _, err := m.applyOnline(ctx, userID, action); err != nil {
		logger.Error("Online mutation failed", err, nil)
		return err
	}
	logger.Info("Online mutation applied", nil)
	return nil
}

// applyOnline пишет действие в удаленное хранилище и обновляет кэш
// повторным чтением. Возвращает свежий список избранного.
func (m *FavoritesMutator) applyOnline(ctx context.Context, userID string, action domain.PendingAction) ([]domain.Favorite, error) {
	fav := action.Favorite.Normalized()

	var err error
	switch action.Type {
	case domain.ActionAdd:
		err = m.remote.WriteFavoriteUnion(ctx, userID, fav)
	case domain.ActionRemove:
		err = m.remote.WriteFavoriteSubtract(ctx, userID, fav)
	default:
		return nil, fmt.Errorf("unknown pending action type %q", action.Type)
	}
	if err != nil {
		return nil, remoteUnavailable(fmt.Sprintf("failed to %s favorite %s", action.Type, fav.Symbol), err)
	}

	// Кэш обновляется принудительным чтением: запись уже прошла, и свежий
	// снимок нужен даже если оракул успел сменить состояние.
	return fetchAndCache(ctx, m.remote, m.cache, userID)
}
