package offline_store

import (
	"context"
	"encoding/json"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"fmt"
)

// CacheStore хранит последний успешный снимок избранного пользователя.
type CacheStore struct {
	storage port.LocalStoragePort
}

func NewCacheStore(storage port.LocalStoragePort) (*CacheStore, error) {
	if storage == nil {
		return nil, fmt.Errorf("local storage cannot be nil")
	}
	return &CacheStore{storage: storage}, nil
}

// Load возвращает кэш пользователя. ok=false, если кэш ни разу не заполнялся.
func (s *CacheStore) Load(ctx context.Context, userID string) ([]domain.Favorite, bool, error) {
	key, err := domain.StorageKey(domain.StoreFavoritesCache, userID)
	if err != nil {
		return nil, false, err
	}

	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read favorites cache: %w", err)
	}
	if !ok || raw == "" {
		return []domain.Favorite{}, false, nil
	}

	var favorites []domain.Favorite
	if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
		return nil, false, fmt.Errorf("failed to decode favorites cache %s: %w", key, err)
	}
	if favorites == nil {
		favorites = []domain.Favorite{}
	}
	return favorites, true, nil
}

// Save перезаписывает кэш целиком.
func (s *CacheStore) Save(ctx context.Context, userID string, favorites []domain.Favorite) error {
	key, err := domain.StorageKey(domain.StoreFavoritesCache, userID)
	if err != nil {
		return err
	}
	if favorites == nil {
		favorites = []domain.Favorite{}
	}

	body, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites cache: %w", err)
	}
	if err := s.storage.Set(ctx, key, string(body)); err != nil {
		return fmt.Errorf("failed to write favorites cache: %w", err)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Favorites cache overwritten", port.Fields{
		"component": "CacheStore",
		"key":       key,
		"count":     len(favorites),
	})
	return nil
}
