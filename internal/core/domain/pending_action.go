package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType - тип отложенной мутации избранного.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionRemove ActionType = "remove"
)

// Valid проверяет, что тип действия известен.
func (t ActionType) Valid() bool {
	return t == ActionAdd || t == ActionRemove
}

// PendingAction - мутация, поставленная в очередь, пока устройство было офлайн.
// Порядок в очереди значим (FIFO).
type PendingAction struct {
	ID       string     `json:"id,omitempty"`
	Type     ActionType `json:"type"`
	Favorite Favorite   `json:"favorite"`
	QueuedAt time.Time  `json:"queuedAt,omitzero"`
}

// NewPendingAction создает действие с новым ID и временем постановки в очередь.
func NewPendingAction(actionType ActionType, fav Favorite, now time.Time) (PendingAction, error) {
	if !actionType.Valid() {
		return PendingAction{}, fmt.Errorf("unknown pending action type %q", actionType)
	}
	if err := fav.Validate(); err != nil {
		return PendingAction{}, err
	}
	return PendingAction{
		ID:       uuid.NewString(),
		Type:     actionType,
		Favorite: fav.Normalized(),
		QueuedAt: now.UTC(),
	}, nil
}

// ApplyActions проецирует очередь на набор избранного с той же
// семантикой union/subtract, что и удаленное хранилище.
// Исходный срез не изменяется.
func ApplyActions(favorites []Favorite, actions []PendingAction) []Favorite {
	result := make([]Favorite, 0, len(favorites))
	result = append(result, favorites...)
	for _, action := range actions {
		switch action.Type {
		case ActionAdd:
			result = UnionFavorite(result, action.Favorite)
		case ActionRemove:
			result = SubtractFavorite(result, action.Favorite)
		}
	}
	return result
}
