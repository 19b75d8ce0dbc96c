package usecases_port

import (
	"context"
	"favorites-sync/internal/core/domain"
)

type ReplayQueueUseCasePort interface {
	Execute(ctx context.Context, userID string) (domain.ReplayReport, error)
}
