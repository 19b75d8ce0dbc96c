package firestore_adapter

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DefaultCollection = "users"
	favoritesField    = "favorites"
	pingDocument      = "_connectivity_probe"
)

// userDocument - документ users/{uid}. Остальные поля документа не трогаются.
type userDocument struct {
	Favorites []domain.Favorite `firestore:"favorites"`
}

// FirestoreFavoritesRepository хранит избранное массивом в документе пользователя.
// Union/subtract выполняются в транзакции и сравнивают элементы по символу.
type FirestoreFavoritesRepository struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreFavoritesRepository(client *firestore.Client, collection string) (*FirestoreFavoritesRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreFavoritesRepository{client: client, collection: collection}, nil
}

func (r *FirestoreFavoritesRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(userID)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ReadFavorites возвращает domain.ErrNotFound, если документа пользователя нет.
func (r *FirestoreFavoritesRepository) ReadFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "FirestoreFavoritesRepository",
		"method":    "ReadFavorites",
		"user_id":   userID,
	})

	snap, err := r.doc(userID).Get(ctx)
	if isNotFound(err) {
		repoLogger.Debug("User document does not exist", nil)
		return nil, fmt.Errorf("user document %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		repoLogger.Error("Failed to read user document", err, nil)
		return nil, fmt.Errorf("failed to read user document: %w", err)
	}

	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		repoLogger.Error("Failed to decode user document", err, nil)
		return nil, fmt.Errorf("failed to decode user document %s: %w", userID, err)
	}
	if doc.Favorites == nil {
		doc.Favorites = []domain.Favorite{}
	}
	return doc.Favorites, nil
}

func (r *FirestoreFavoritesRepository) WriteFavoriteUnion(ctx context.Context, userID string, fav domain.Favorite) error {
	return r.update(ctx, "WriteFavoriteUnion", userID, fav, unionRaw)
}

func (r *FirestoreFavoritesRepository) WriteFavoriteSubtract(ctx context.Context, userID string, fav domain.Favorite) error {
	return r.update(ctx, "WriteFavoriteSubtract", userID, fav, subtractRaw)
}

func (r *FirestoreFavoritesRepository) update(
	ctx context.Context,
	method, userID string,
	fav domain.Favorite,
	apply func([]interface{}, domain.Favorite) []interface{},
) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "FirestoreFavoritesRepository",
		"method":    method,
		"user_id":   userID,
		"symbol":    fav.Key(),
	})

	ref := r.doc(userID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		items := []interface{}{}
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if items, err = rawFavorites(snap.Data()); err != nil {
				return fmt.Errorf("failed to decode user document %s: %w", userID, err)
			}
		case !isNotFound(err):
			return fmt.Errorf("failed to read user document %s: %w", userID, err)
		}

		next := apply(items, fav)
		return tx.Set(ref, map[string]interface{}{favoritesField: next}, firestore.MergeAll)
	})
	if err != nil {
		repoLogger.Error("Favorites transaction failed", err, nil)
		return fmt.Errorf("failed to update favorites: %w", err)
	}

	repoLogger.Debug("Favorites updated", nil)
	return nil
}

// Check реализует HealthCheckerPort. Отсутствие документа - успешный ответ.
func (r *FirestoreFavoritesRepository) Check(ctx context.Context) error {
	_, err := r.client.Collection(r.collection).Doc(pingDocument).Get(ctx)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}
