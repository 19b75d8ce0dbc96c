package usecase

import (
	"context"
	"errors"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/port"
	"fmt"
)

// isOnline - оракул, который не передан, считается "онлайн".
func isOnline(ctx context.Context, oracle port.ConnectivityOraclePort) bool {
	if oracle == nil {
		return true
	}
	return oracle.IsOnline(ctx)
}

// remoteUnavailable оборачивает ошибку удаленного хранилища так, чтобы
// errors.Is(err, domain.ErrRemoteUnavailable) было истинно.
func remoteUnavailable(op string, err error) error {
	if errors.Is(err, domain.ErrRemoteUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteUnavailable, err)
}

// fetchAndCache читает избранное из удаленного хранилища и перезаписывает кэш.
// Отсутствующий документ пользователя - пустой список.
func fetchAndCache(
	ctx context.Context,
	remote port.RemoteFavoritesStorePort,
	cache *offline_store.CacheStore,
	userID string,
) ([]domain.Favorite, error) {
	favorites, err := remote.ReadFavorites(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		favorites, err = []domain.Favorite{}, nil
	}
	if err != nil {
		return nil, remoteUnavailable("failed to read remote favorites", err)
	}
	if favorites == nil {
		favorites = []domain.Favorite{}
	}

	if err := cache.Save(ctx, userID, favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}
