package usecase

import (
	"context"
	"errors"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"favorites-sync/internal/core/port/usecases_port"
	"fmt"
	"sync"
	"time"
)

// ReplayOnReconnect запускает воспроизведение очередей при каждом переходе в онлайн.
type ReplayOnReconnect struct {
	oracle   port.ConnectivityOraclePort
	sessions port.SessionRegistryPort
	replay   usecases_port.ReplayQueueUseCasePort
	logger   port.LoggerPort

	mu          sync.Mutex
	unsubscribe func()
}

func NewReplayOnReconnect(
	oracle port.ConnectivityOraclePort,
	sessions port.SessionRegistryPort,
	replay usecases_port.ReplayQueueUseCasePort,
	logger port.LoggerPort,
) (*ReplayOnReconnect, error) {
	if oracle == nil || sessions == nil || replay == nil {
		return nil, fmt.Errorf("oracle, sessions and replay use case are required")
	}
	if logger == nil {
		logger = contextkeys.NoopLogger()
	}
	return &ReplayOnReconnect{
		oracle:   oracle,
		sessions: sessions,
		replay:   replay,
		logger:   logger.WithFields(port.Fields{"component": "ReplayOnReconnect"}),
	}, nil
}

// Start подписывается на оракул. Повторный вызов ничего не делает.
func (r *ReplayOnReconnect) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		return
	}
	r.unsubscribe = r.oracle.OnBecameOnline(func(ctx context.Context) {
		r.ReplayAll(ctx)
	})
	r.logger.Info("Subscribed to connectivity changes", nil)
}

func (r *ReplayOnReconnect) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// ReplayAll воспроизводит очереди всех вошедших пользователей по очереди.
// Ошибки только логируются: очередь сохранится до следующего перехода в онлайн.
// Пользователи с опустевшей очередью освобождаются в реестре сессий.
// Возвращает число пользователей, чьи очереди не удалось воспроизвести.
func (r *ReplayOnReconnect) ReplayAll(ctx context.Context) int {
	users := r.sessions.SignedInUsers()
	r.logger.Info("Connectivity restored, replaying pending queues", port.Fields{"users": len(users)})

	failed := 0
	for i, userID := range users {
		if ctx.Err() != nil {
			r.logger.Warn("Replay interrupted", port.Fields{"error": ctx.Err().Error()})
			return failed + len(users) - i
		}
		userCtx := contextkeys.ContextWithLogger(ctx, r.logger.WithFields(port.Fields{"user_id": userID}))
		started := time.Now()
		report, err := r.replay.Execute(userCtx, userID)
		if err != nil {
			failed++
			if errors.Is(err, domain.ErrReplayPartialFailure) {
				r.logger.Warn("Replay stopped early, will retry on next reconnect", port.Fields{
					"user_id":   userID,
					"applied":   report.Applied,
					"remaining": report.Remaining,
					"error":     err.Error(),
				})
				continue
			}
			r.logger.Error("Replay failed", err, port.Fields{"user_id": userID})
			continue
		}
		if report.Total > 0 {
			r.logger.Info("Sync complete", port.Fields{"user_id": userID, "applied": report.Applied})
		}
		if report.Drained() {
			r.sessions.Release(userID, started)
		}
	}
	return failed
}
