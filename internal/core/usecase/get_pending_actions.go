package usecase

import (
	"context"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"fmt"
)

type GetPendingActionsUseCase struct {
	queue *offline_store.QueueStore
	locks *UserLocks
}

func NewGetPendingActionsUseCase(queue *offline_store.QueueStore, locks *UserLocks) *GetPendingActionsUseCase {
	return &GetPendingActionsUseCase{queue: queue, locks: locks}
}

func (uc *GetPendingActionsUseCase) Execute(ctx context.Context, userID string) ([]domain.PendingAction, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	unlock := uc.locks.Lock(userID)
	defer unlock()

	actions, err := uc.queue.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending actions: %w", err)
	}
	return actions, nil
}
