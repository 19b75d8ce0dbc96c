package port

import (
	"context"
	"time"
)

// IdentityProviderPort возвращает текущего пользователя.
// Отсутствие пользователя - domain.ErrNotAuthenticated.
type IdentityProviderPort interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// SessionRegistryPort перечисляет пользователей, вошедших на этом устройстве.
// Их очереди воспроизводятся при восстановлении сети. Release сообщает,
// что очередь пользователя опустела после воспроизведения, начатого в since.
type SessionRegistryPort interface {
	SignedInUsers() []string
	Release(userID string, since time.Time)
}
