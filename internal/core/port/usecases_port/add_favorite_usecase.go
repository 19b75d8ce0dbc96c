package usecases_port

import (
	"context"
	"favorites-sync/internal/core/domain"
)

type AddFavoriteUseCasePort interface {
	Execute(ctx context.Context, userID string, fav domain.Favorite) error
}
