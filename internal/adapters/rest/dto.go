package rest

import (
	"favorites-sync/internal/core/domain"
	"time"
)

// AddFavoriteRequest - тело POST /api/v1/favorites.
type AddFavoriteRequest struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortName,omitempty"`
	Name      string `json:"name,omitempty"`
}

func (r AddFavoriteRequest) toDomain() domain.Favorite {
	return domain.Favorite{Symbol: r.Symbol, ShortName: r.ShortName, Name: r.Name}
}

type FavoriteResponse struct {
	Symbol      string `json:"symbol"`
	ShortName   string `json:"shortName,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type FavoritesResponse struct {
	Favorites []FavoriteResponse `json:"favorites"`
	Online    bool               `json:"online"`
	Projected bool               `json:"projected"`
}

type PendingActionResponse struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Favorite FavoriteResponse `json:"favorite"`
	QueuedAt *time.Time       `json:"queuedAt,omitempty"`
}

type PendingActionsResponse struct {
	Pending []PendingActionResponse `json:"pending"`
}

type SyncResponse struct {
	Total     int    `json:"total"`
	Applied   int    `json:"applied"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

type ConnectivityResponse struct {
	Online bool `json:"online"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toFavoriteResponse(f domain.Favorite) FavoriteResponse {
	return FavoriteResponse{
		Symbol:      f.Symbol,
		ShortName:   f.ShortName,
		Name:        f.Name,
		DisplayName: f.DisplayName(),
	}
}

func toFavoritesResponse(favorites []domain.Favorite, online, projected bool) FavoritesResponse {
	resp := FavoritesResponse{
		Favorites: make([]FavoriteResponse, len(favorites)),
		Online:    online,
		Projected: projected,
	}
	for i, f := range favorites {
		resp.Favorites[i] = toFavoriteResponse(f)
	}
	return resp
}

func toPendingActionsResponse(actions []domain.PendingAction) PendingActionsResponse {
	resp := PendingActionsResponse{Pending: make([]PendingActionResponse, len(actions))}
	for i, a := range actions {
		item := PendingActionResponse{
			ID:       a.ID,
			Type:     string(a.Type),
			Favorite: toFavoriteResponse(a.Favorite),
		}
		if !a.QueuedAt.IsZero() {
			queuedAt := a.QueuedAt
			item.QueuedAt = &queuedAt
		}
		resp.Pending[i] = item
	}
	return resp
}
