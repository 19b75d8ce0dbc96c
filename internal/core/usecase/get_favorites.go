package usecase

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/port"
	"fmt"
)

type GetFavoritesUseCase struct {
	remote port.RemoteFavoritesStorePort
	cache  *offline_store.CacheStore
	oracle port.ConnectivityOraclePort
	locks  *UserLocks
}

func NewGetFavoritesUseCase(
	remote port.RemoteFavoritesStorePort,
	cache *offline_store.CacheStore,
	oracle port.ConnectivityOraclePort,
	locks *UserLocks,
) *GetFavoritesUseCase {
	return &GetFavoritesUseCase{
		remote: remote,
		cache:  cache,
		oracle: oracle,
		locks:  locks,
	}
}

// Execute возвращает избранное пользователя.
// Офлайн - кэш как есть, без обращения к сети. Онлайн - удаленное хранилище,
// результат перезаписывает кэш. Ошибка удаленного чтения не подменяется кэшем.
func (uc *GetFavoritesUseCase) Execute(ctx context.Context, userID string) ([]domain.Favorite, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	unlock := uc.locks.Lock(userID)
	defer unlock()

	return uc.load(ctx, userID)
}

func (uc *GetFavoritesUseCase) load(ctx context.Context, userID string) ([]domain.Favorite, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetFavorites",
		"user_id":  userID,
	})

	if !isOnline(ctx, uc.oracle) {
		favorites, cached, err := uc.cache.Load(ctx, userID)
		if err != nil {
			ucLogger.Error("Failed to read favorites cache", err, nil)
			return nil, fmt.Errorf("failed to read cached favorites: %w", err)
		}
		ucLogger.Info("Offline, serving favorites from cache", port.Fields{
			"cache_populated": cached,
			"count":           len(favorites),
		})
		return favorites, nil
	}

	favorites, err := fetchAndCache(ctx, uc.remote, uc.cache, userID)
	if err != nil {
		ucLogger.Error("Failed to get favorites from remote store", err, nil)
		return nil, err
	}

	ucLogger.Debug("Favorites fetched and cached", port.Fields{"count": len(favorites)})
	return favorites, nil
}
