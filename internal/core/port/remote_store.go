package port

import (
	"context"
	"favorites-sync/internal/core/domain"
)

// RemoteFavoritesStorePort - контракт для источника истины по избранному.
// Union и Subtract обязаны быть идемпотентными: повторное добавление или
// удаление отсутствующего символа - не ошибка.
type RemoteFavoritesStorePort interface {
	// ReadFavorites возвращает domain.ErrNotFound, если документа пользователя нет.
	ReadFavorites(ctx context.Context, userID string) ([]domain.Favorite, error)
	WriteFavoriteUnion(ctx context.Context, userID string, fav domain.Favorite) error
	WriteFavoriteSubtract(ctx context.Context, userID string, fav domain.Favorite) error
}
