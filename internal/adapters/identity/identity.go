package identity

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"sort"
	"strings"
	"sync"
	"time"
)

// Static - фиксированный пользователь (CLI, USER_ID из конфигурации).
// Пустой ID означает, что никто не вошел.
type Static struct {
	userID string
}

func NewStatic(userID string) *Static {
	return &Static{userID: strings.TrimSpace(userID)}
}

func (s *Static) CurrentUserID(ctx context.Context) (string, error) {
	if s.userID == "" {
		return "", domain.ErrNotAuthenticated
	}
	return s.userID, nil
}

func (s *Static) SignedInUsers() []string {
	if s.userID == "" {
		return nil
	}
	return []string{s.userID}
}

// FromContext берет пользователя, положенного в контекст auth middleware.
type FromContext struct{}

func (FromContext) CurrentUserID(ctx context.Context) (string, error) {
	userID := contextkeys.UserIDFromContext(ctx)
	if userID == "" {
		return "", domain.ErrNotAuthenticated
	}
	return userID, nil
}

// Sessions запоминает пользователей, обращавшихся к сервису, чтобы
// воспроизвести их очереди при восстановлении сети. Пользователи из
// NewSessions закреплены и не удаляются по Release и лимиту. Остальные
// удаляются после успешного воспроизведения (Release) или, при limit > 0,
// вытесняются самыми давними при переполнении.
type Sessions struct {
	mu       sync.RWMutex
	lastSeen map[string]time.Time
	pinned   map[string]struct{}
	limit    int
	now      func() time.Time
}

func NewSessions(pinned ...string) *Sessions {
	return NewBoundedSessions(0, pinned...)
}

// NewBoundedSessions ограничивает число незакрепленных пользователей.
// limit <= 0 - без ограничения.
func NewBoundedSessions(limit int, pinned ...string) *Sessions {
	s := &Sessions{
		lastSeen: make(map[string]time.Time),
		pinned:   make(map[string]struct{}),
		limit:    limit,
		now:      time.Now,
	}
	for _, userID := range pinned {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		s.pinned[userID] = struct{}{}
		s.lastSeen[userID] = s.now()
	}
	return s
}

func (s *Sessions) SignIn(userID string) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[userID] = s.now()
	s.evictLocked()
}

// evictLocked вызывается под s.mu.
func (s *Sessions) evictLocked() {
	if s.limit <= 0 {
		return
	}
	for len(s.lastSeen)-len(s.pinned) > s.limit {
		oldestID := ""
		var oldest time.Time
		for userID, seen := range s.lastSeen {
			if _, ok := s.pinned[userID]; ok {
				continue
			}
			if oldestID == "" || seen.Before(oldest) || (seen.Equal(oldest) && userID < oldestID) {
				oldestID, oldest = userID, seen
			}
		}
		if oldestID == "" {
			return
		}
		delete(s.lastSeen, oldestID)
	}
}

// SignOut удаляет пользователя, в том числе закрепленного.
func (s *Sessions) SignOut(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastSeen, userID)
	delete(s.pinned, userID)
}

// Release удаляет незакрепленного пользователя, если он не обращался
// к сервису после since. Вызывается, когда очередь пользователя опустела.
func (s *Sessions) Release(userID string, since time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pinned[userID]; ok {
		return
	}
	seen, ok := s.lastSeen[userID]
	if !ok || seen.After(since) {
		return
	}
	delete(s.lastSeen, userID)
}

// SignedInUsers возвращает пользователей в стабильном порядке.
func (s *Sessions) SignedInUsers() []string {
	s.mu.RLock()
	users := make([]string, 0, len(s.lastSeen))
	for userID := range s.lastSeen {
		users = append(users, userID)
	}
	s.mu.RUnlock()
	sort.Strings(users)
	return users
}
