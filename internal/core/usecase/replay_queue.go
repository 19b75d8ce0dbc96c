package usecase

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/port"
	"fmt"
	"time"
)

type ReplayQueueUseCase struct {
	mutator   *FavoritesMutator
	queue     *offline_store.QueueStore
	publisher port.SyncEventsPublisherPort
	locks     *UserLocks
}

// NewReplayQueueUseCase - publisher может быть nil, тогда событие не публикуется.
func NewReplayQueueUseCase(
	mutator *FavoritesMutator,
	queue *offline_store.QueueStore,
	publisher port.SyncEventsPublisherPort,
	locks *UserLocks,
) *ReplayQueueUseCase {
	return &ReplayQueueUseCase{
		mutator:   mutator,
		queue:     queue,
		publisher: publisher,
		locks:     locks,
	}
}

// Execute воспроизводит очередь пользователя строго по порядку, по одному шагу.
// После каждого успешного шага очередь перезаписывается без него, так что при
// сбое на шаге k в ней остаются шаги k..n. Повтор уже примененных шагов
// безопасен: union/subtract идемпотентны.
func (uc *ReplayQueueUseCase) Execute(ctx context.Context, userID string) (domain.ReplayReport, error) {
	report := domain.ReplayReport{UserID: userID}
	if userID == "" {
		return report, domain.ErrNotAuthenticated
	}

	unlock := uc.locks.Lock(userID)
	defer unlock()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ReplayQueue",
		"user_id":  userID,
	})

	actions, err := uc.queue.Load(ctx, userID)
	if err != nil {
		ucLogger.Error("Failed to load pending queue", err, nil)
		return report, fmt.Errorf("failed to load pending queue: %w", err)
	}
	report.Total = len(actions)
	if len(actions) == 0 {
		return report, nil
	}

	ucLogger.Info("Replaying pending queue", port.Fields{"queue_length": len(actions)})

	var favorites []domain.Favorite
	for i, action := range actions {
		stepLogger := ucLogger.WithFields(port.Fields{
			"step":      i + 1,
			"action":    action.Type,
			"symbol":    action.Favorite.Symbol,
			"action_id": action.ID,
		})

		if !action.Type.Valid() || action.Favorite.Validate() != nil {
			stepLogger.Warn("Dropping malformed pending action", nil)
		} else {
			fresh, err := uc.mutator.applyOnline(ctx, userID, action)
			if err != nil {
				report.Remaining = len(actions) - i
				stepLogger.Error("Replay step failed, queue retained", err, port.Fields{"remaining": report.Remaining})
				return report, &domain.ReplayError{UserID: userID, Step: i + 1, Total: len(actions), Action: action, Err: err}
			}
			favorites = fresh
		}

		// Шаг закреплен в удаленном хранилище - убираем его из очереди до следующего.
		if err := uc.queue.Save(ctx, userID, actions[i+1:]); err != nil {
			report.Remaining = len(actions) - i
			stepLogger.Error("Failed to trim pending queue after step", err, nil)
			return report, &domain.ReplayError{UserID: userID, Step: i + 1, Total: len(actions), Action: action, Err: err}
		}
		report.Applied++
		stepLogger.Debug("Replay step committed", nil)
	}

	ucLogger.Info("Pending queue replayed", port.Fields{"applied": report.Applied})
	uc.publishSynced(ctx, ucLogger, report, favorites)
	return report, nil
}

func (uc *ReplayQueueUseCase) publishSynced(ctx context.Context, logger port.LoggerPort, report domain.ReplayReport, favorites []domain.Favorite) {
	if uc.publisher == nil {
		return
	}
	if favorites == nil {
		favorites = []domain.Favorite{}
	}
	event := domain.SyncReport{
		UserID:     report.UserID,
		Applied:    report.Applied,
		Favorites:  favorites,
		FinishedAt: time.Now().UTC(),
	}
	if err := uc.publisher.PublishFavoritesSynced(ctx, event); err != nil {
		logger.Warn("Failed to publish favorites synced event", port.Fields{"error": err.Error()})
	}
}
