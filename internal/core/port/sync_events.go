package port

import (
	"context"
	"favorites-sync/internal/core/domain"
)

// SyncEventsPublisherPort публикует событие о завершении синхронизации.
type SyncEventsPublisherPort interface {
	PublishFavoritesSynced(ctx context.Context, report domain.SyncReport) error
}
