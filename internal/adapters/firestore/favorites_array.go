package firestore_adapter

import (
	"favorites-sync/internal/core/domain"
	"fmt"
)

// Массив favorites переписывается как есть: элементы остаются
// map[string]interface{}, поэтому поля, которых нет в domain.Favorite,
// сохраняются. Сравнение идет по нормализованному ключу "symbol".

func rawFavorites(data map[string]interface{}) ([]interface{}, error) {
	value, ok := data[favoritesField]
	if !ok || value == nil {
		return []interface{}{}, nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, expected array", favoritesField, value)
	}
	return items, nil
}

func rawKey(item interface{}) string {
	m, ok := item.(map[string]interface{})
	if !ok {
		return ""
	}
	symbol, ok := m["symbol"].(string)
	if !ok {
		return ""
	}
	return domain.NormalizeSymbol(symbol)
}

func rawFavorite(fav domain.Favorite) map[string]interface{} {
	fav = fav.Normalized()
	m := map[string]interface{}{"symbol": fav.Symbol}
	if fav.ShortName != "" {
		m["shortName"] = fav.ShortName
	}
	if fav.Name != "" {
		m["name"] = fav.Name
	}
	return m
}

// unionRaw добавляет элемент в конец, если символа еще нет.
func unionRaw(items []interface{}, fav domain.Favorite) []interface{} {
	key := fav.Key()
	result := make([]interface{}, 0, len(items)+1)
	result = append(result, items...)
	for _, item := range items {
		if rawKey(item) == key {
			return result
		}
	}
	return append(result, rawFavorite(fav))
}

// subtractRaw убирает все элементы с тем же символом. Элементы
// неизвестной формы не трогаются.
func subtractRaw(items []interface{}, fav domain.Favorite) []interface{} {
	key := fav.Key()
	result := make([]interface{}, 0, len(items))
	for _, item := range items {
		if rawKey(item) == key {
			continue
		}
		result = append(result, item)
	}
	return result
}
