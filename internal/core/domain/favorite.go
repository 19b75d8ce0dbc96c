package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Favorite - тикер, который пользователь отслеживает.
// Идентичность определяется только символом: name/shortName могут
// отличаться между моментом добавления и удаления.
type Favorite struct {
	Symbol    string `json:"symbol" firestore:"symbol"`
	ShortName string `json:"shortName,omitempty" firestore:"shortName,omitempty"`
	Name      string `json:"name,omitempty" firestore:"name,omitempty"`
}

// NormalizeSymbol приводит символ тикера к каноническому виду ("aapl " -> "AAPL").
// Caser хранит состояние, поэтому создается на каждый вызов.
func NormalizeSymbol(symbol string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(symbol))
}

// Key возвращает ключ равенства избранного.
func (f Favorite) Key() string {
	return NormalizeSymbol(f.Symbol)
}

// Normalized возвращает копию с нормализованным символом.
func (f Favorite) Normalized() Favorite {
	f.Symbol = f.Key()
	return f
}

// Validate проверяет, что у избранного есть символ.
func (f Favorite) Validate() error {
	if f.Key() == "" {
		return ErrInvalidFavorite
	}
	return nil
}

// DisplayName - подпись для отображения, как в карточке избранного.
func (f Favorite) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ShortName
}

// ContainsFavorite сообщает, есть ли в наборе избранное с тем же символом.
func ContainsFavorite(favorites []Favorite, fav Favorite) bool {
	return indexOf(favorites, fav.Key()) >= 0
}

// UnionFavorite добавляет избранное в набор, если символа там еще нет.
// Порядок существующих элементов сохраняется, новый элемент идет в конец.
func UnionFavorite(favorites []Favorite, fav Favorite) []Favorite {
	result := make([]Favorite, 0, len(favorites)+1)
	result = append(result, favorites...)
	if indexOf(favorites, fav.Key()) >= 0 {
		return result
	}
	return append(result, fav.Normalized())
}

// SubtractFavorite удаляет из набора все элементы с тем же символом.
// Удаление отсутствующего символа - no-op.
func SubtractFavorite(favorites []Favorite, fav Favorite) []Favorite {
	key := fav.Key()
	result := make([]Favorite, 0, len(favorites))
	for _, existing := range favorites {
		if existing.Key() == key {
			continue
		}
		result = append(result, existing)
	}
	return result
}

func indexOf(favorites []Favorite, key string) int {
	for i, existing := range favorites {
		if existing.Key() == key {
			return i
		}
	}
	return -1
}
