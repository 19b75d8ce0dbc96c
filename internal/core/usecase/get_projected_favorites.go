package usecase

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/port"
	"fmt"
)

// GetProjectedFavoritesUseCase накладывает очередь отложенных действий на
// обычное чтение. Результат только отображается и в кэш не попадает.
type GetProjectedFavoritesUseCase struct {
	reader *GetFavoritesUseCase
	queue  *offline_store.QueueStore
	locks  *UserLocks
}

func NewGetProjectedFavoritesUseCase(reader *GetFavoritesUseCase, queue *offline_store.QueueStore, locks *UserLocks) *GetProjectedFavoritesUseCase {
	return &GetProjectedFavoritesUseCase{reader: reader, queue: queue, locks: locks}
}

func (uc *GetProjectedFavoritesUseCase) Execute(ctx context.Context, userID string) ([]domain.Favorite, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	unlock := uc.locks.Lock(userID)
	defer unlock()

	favorites, err := uc.reader.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := uc.queue.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending actions: %w", err)
	}
	if len(pending) == 0 {
		return favorites, nil
	}

	contextkeys.LoggerFromContext(ctx).Debug("Projecting pending actions onto favorites", port.Fields{
		"use_case": "GetProjectedFavorites",
		"user_id":  userID,
		"pending":  len(pending),
	})
	return domain.ApplyActions(favorites, pending), nil
}
