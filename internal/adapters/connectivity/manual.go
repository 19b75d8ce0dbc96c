package connectivity

import (
	"context"
	"sync"
)

// Manual - оракул, состояние которого задается вручную (флаг --offline, тесты).
type Manual struct {
	mu     sync.RWMutex
	online bool
	subs   *subscribers
}

func NewManual(online bool) *Manual {
	return &Manual{online: online, subs: newSubscribers()}
}

func (m *Manual) IsOnline(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Manual) OnBecameOnline(callback func(ctx context.Context)) func() {
	return m.subs.add(callback)
}

// SetOnline меняет состояние; переход офлайн -> онлайн синхронно уведомляет подписчиков.
func (m *Manual) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	becameOnline := online && !m.online
	m.online = online
	m.mu.Unlock()

	if becameOnline {
		m.subs.notify(ctx)
	}
}
