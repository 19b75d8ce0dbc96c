package usecases_port

import (
	"context"
	"favorites-sync/internal/core/domain"
)

type GetPendingActionsUseCasePort interface {
	Execute(ctx context.Context, userID string) ([]domain.PendingAction, error)
}
