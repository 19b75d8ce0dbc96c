package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated - нет текущего пользователя.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRemoteUnavailable - сбой сети или удаленного хранилища во время онлайн-операции.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrNotFound - документ пользователя в удаленном хранилище не существует.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFavorite - у избранного нет символа.
	ErrInvalidFavorite = errors.New("favorite symbol is required")
	// ErrReplayPartialFailure - один из шагов воспроизведения очереди не удался.
	ErrReplayPartialFailure = errors.New("replay partial failure")
)

// ReplayError описывает шаг, на котором остановилось воспроизведение.
// Step считается с единицы. Очередь после ошибки содержит шаги Step..Total.
type ReplayError struct {
	UserID string
	Step   int
	Total  int
	Action PendingAction
	Err    error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay of %s %s failed at step %d of %d for user %s: %v",
		e.Action.Type, e.Action.Favorite.Symbol, e.Step, e.Total, e.UserID, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// Is позволяет errors.Is(err, ErrReplayPartialFailure).
func (e *ReplayError) Is(target error) bool {
	return target == ErrReplayPartialFailure
}
