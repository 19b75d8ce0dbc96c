package usecases_port

import (
	"context"
	"favorites-sync/internal/core/domain"
)

type GetFavoritesUseCasePort interface {
	Execute(ctx context.Context, userID string) ([]domain.Favorite, error)
}

type GetProjectedFavoritesUseCasePort interface {
	// Возвращает избранное с наложенной очередью отложенных действий
	Execute(ctx context.Context, userID string) ([]domain.Favorite, error)
}
