package usecase

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
)

type RemoveFavoriteUseCase struct {
	mutator *FavoritesMutator
	locks   *UserLocks
}

func NewRemoveFavoriteUseCase(mutator *FavoritesMutator, locks *UserLocks) *RemoveFavoriteUseCase {
	return &RemoveFavoriteUseCase{mutator: mutator, locks: locks}
}

// Execute удаляет избранное по символу. Удаление отсутствующего символа - не ошибка.
func (uc *RemoveFavoriteUseCase) Execute(ctx context.Context, userID string, fav domain.Favorite) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "RemoveFavorite",
		"user_id":  userID,
		"symbol":   fav.Key(),
	})

	ucLogger.Info("Use case started", nil)

	unlock := uc.locks.Lock(userID)
	defer unlock()

	if err := uc.mutator.mutate(ctx, userID, domain.ActionRemove, fav); err != nil {
		ucLogger.Error("Remove favorite failed", err, nil)
		return err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}
