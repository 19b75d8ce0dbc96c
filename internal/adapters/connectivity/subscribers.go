package connectivity

import (
	"context"
	"sort"
	"sync"
)

// subscribers - реестр callback'ов на переход в онлайн.
type subscribers struct {
	mu    sync.Mutex
	next  int
	items map[int]func(ctx context.Context)
}

func newSubscribers() *subscribers {
	return &subscribers{items: make(map[int]func(ctx context.Context))}
}

func (s *subscribers) add(callback func(ctx context.Context)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.items[id] = callback

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.items, id)
		})
	}
}

// notify вызывает подписчиков последовательно в порядке подписки.
// Блокировка на время вызовов не удерживается.
func (s *subscribers) notify(ctx context.Context) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	callbacks := make([]func(ctx context.Context), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, s.items[id])
	}
	s.mu.Unlock()

	for _, callback := range callbacks {
		callback(ctx)
	}
}
