package usecase

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
)

type AddFavoriteUseCase struct {
	mutator *FavoritesMutator
	locks   *UserLocks
}

func NewAddFavoriteUseCase(mutator *FavoritesMutator, locks *UserLocks) *AddFavoriteUseCase {
	return &AddFavoriteUseCase{mutator: mutator, locks: locks}
}

func (uc *AddFavoriteUseCase) Execute(ctx context.Context, userID string, fav domain.Favorite) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "AddFavorite",
		"user_id":  userID,
		"symbol":   fav.Key(),
	})

	ucLogger.Info("Use case started", nil)

	unlock := uc.locks.Lock(userID)
	defer unlock()

	if err := uc.mutator.mutate(ctx, userID, domain.ActionAdd, fav); err != nil {
		ucLogger.Error("Add favorite failed", err, nil)
		return err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}
