package domain

import "fmt"

// LocalStore - логическое имя хранилища в локальном key-value.
type LocalStore string

const (
	StoreFavoritesCache LocalStore = "favoritesCache"
	StoreFavoritesQueue LocalStore = "favoritesQueue"
)

// StorageKey строит ключ локального хранилища, изолированный по пользователю.
func StorageKey(store LocalStore, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	if store == "" {
		return "", fmt.Errorf("local store name is required")
	}
	return fmt.Sprintf("%s_%s", store, userID), nil
}
