package offline_store

import (
	"context"
	"encoding/json"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"fmt"
)

// QueueStore хранит очередь отложенных действий пользователя.
// Каждая запись в хранилище - полный JSON-массив очереди, поэтому
// любая перезапись атомарна на уровне одного ключа.
type QueueStore struct {
	storage port.LocalStoragePort
}

func NewQueueStore(storage port.LocalStoragePort) (*QueueStore, error) {
	if storage == nil {
		return nil, fmt.Errorf("local storage cannot be nil")
	}
	return &QueueStore{storage: storage}, nil
}

// Load возвращает очередь в порядке постановки. Пустая очередь - пустой срез.
func (s *QueueStore) Load(ctx context.Context, userID string) ([]domain.PendingAction, error) {
	key, err := domain.StorageKey(domain.StoreFavoritesQueue, userID)
	if err != nil {
		return nil, err
	}

	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending queue: %w", err)
	}
	if !ok || raw == "" {
		return []domain.PendingAction{}, nil
	}

	var actions []domain.PendingAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil, fmt.Errorf("failed to decode pending queue %s: %w", key, err)
	}
	if actions == nil {
		actions = []domain.PendingAction{}
	}
	return actions, nil
}

// Append добавляет действие в конец очереди и сохраняет ее до возврата.
func (s *QueueStore) Append(ctx context.Context, userID string, action domain.PendingAction) (int, error) {
	actions, err := s.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	actions = append(actions, action)
	if err := s.Save(ctx, userID, actions); err != nil {
		return 0, err
	}
	return len(actions), nil
}

// Save перезаписывает очередь. Пустая очередь удаляет ключ.
func (s *QueueStore) Save(ctx context.Context, userID string, actions []domain.PendingAction) error {
	if len(actions) == 0 {
		return s.Clear(ctx, userID)
	}

	key, err := domain.StorageKey(domain.StoreFavoritesQueue, userID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to encode pending queue: %w", err)
	}
	if err := s.storage.Set(ctx, key, string(body)); err != nil {
		return fmt.Errorf("failed to write pending queue: %w", err)
	}
	return nil
}

// Clear удаляет очередь пользователя целиком.
func (s *QueueStore) Clear(ctx context.Context, userID string) error {
	key, err := domain.StorageKey(domain.StoreFavoritesQueue, userID)
	if err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to clear pending queue: %w", err)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Pending queue cleared", port.Fields{
		"component": "QueueStore",
		"key":       key,
	})
	return nil
}
