package postgres_adapter

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_favorites (
	user_id    TEXT        NOT NULL,
	symbol     TEXT        NOT NULL,
	short_name TEXT        NOT NULL DEFAULT '',
	name       TEXT        NOT NULL DEFAULT '',
	seq        BIGSERIAL,
	added_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, symbol)
)`

// PostgresFavoritesRepository - удаленное хранилище избранного в PostgreSQL.
// Каждая строка - элемент набора пользователя, порядок - порядок добавления.
// Таблица создается при первом обращении, поэтому репозиторий можно
// собрать без доступа к базе.
type PostgresFavoritesRepository struct {
	pool *pgxpool.Pool

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewPostgresFavoritesRepository(pool *pgxpool.Pool) (*PostgresFavoritesRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresFavoritesRepository{pool: pool}, nil
}

// EnsureSchema создает таблицу user_favorites, если ее нет. После первого
// успеха повторные вызовы не ходят в базу; неудача повторяется при следующем вызове.
func (r *PostgresFavoritesRepository) EnsureSchema(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if r.schemaReady {
		return nil
	}
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure user_favorites schema: %w", err)
	}
	r.schemaReady = true
	contextkeys.LoggerFromContext(ctx).Info("user_favorites schema is ready", port.Fields{
		"component": "PostgresFavoritesRepository",
	})
	return nil
}

func (r *PostgresFavoritesRepository) ReadFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresFavoritesRepository",
		"method":    "ReadFavorites",
		"user_id":   userID,
	})

	if err := r.EnsureSchema(ctx); err != nil {
		repoLogger.Error("Favorites schema is not available", err, nil)
		return nil, err
	}

	query := `SELECT symbol, short_name, name FROM user_favorites WHERE user_id = $1 ORDER BY seq`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		repoLogger.Error("Failed to query favorites", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]domain.Favorite, 0)
	for rows.Next() {
		var fav domain.Favorite
		if err := rows.Scan(&fav.Symbol, &fav.ShortName, &fav.Name); err != nil {
			repoLogger.Error("Failed to scan favorite row", err, nil)
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		repoLogger.Error("Error during favorites iteration", err, nil)
		return nil, fmt.Errorf("error during favorites iteration: %w", err)
	}

	repoLogger.Debug("Favorites read", port.Fields{"count": len(favorites)})
	return favorites, nil
}

// WriteFavoriteUnion добавляет символ в набор. Повторное добавление ничего не меняет.
func (r *PostgresFavoritesRepository) WriteFavoriteUnion(ctx context.Context, userID string, fav domain.Favorite) error {
	fav = fav.Normalized()
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresFavoritesRepository",
		"method":    "WriteFavoriteUnion",
		"user_id":   userID,
		"symbol":    fav.Symbol,
	})

	if err := r.EnsureSchema(ctx); err != nil {
		repoLogger.Error("Favorites schema is not available", err, nil)
		return err
	}

	query := `INSERT INTO user_favorites (user_id, symbol, short_name, name) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, symbol) DO NOTHING`
	cmdTag, err := r.pool.Exec(ctx, query, userID, fav.Symbol, fav.ShortName, fav.Name)
	if err != nil {
		repoLogger.Error("Failed to add favorite", err, port.Fields{"query": query})
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		repoLogger.Debug("Favorite already present", nil)
	} else {
		repoLogger.Debug("Favorite added", nil)
	}
	return nil
}

// WriteFavoriteSubtract удаляет символ из набора. Отсутствующий символ - не ошибка.
func (r *PostgresFavoritesRepository) WriteFavoriteSubtract(ctx context.Context, userID string, fav domain.Favorite) error {
	symbol := fav.Key()
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresFavoritesRepository",
		"method":    "WriteFavoriteSubtract",
		"user_id":   userID,
		"symbol":    symbol,
	})

	if err := r.EnsureSchema(ctx); err != nil {
		repoLogger.Error("Favorites schema is not available", err, nil)
		return err
	}

	query := `DELETE FROM user_favorites WHERE user_id = $1 AND symbol = $2`
	cmdTag, err := r.pool.Exec(ctx, query, userID, symbol)
	if err != nil {
		repoLogger.Error("Failed to remove favorite", err, port.Fields{"query": query})
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		repoLogger.Debug("Favorite was not present", nil)
	} else {
		repoLogger.Debug("Favorite removed", nil)
	}
	return nil
}

// Check реализует HealthCheckerPort: доступность БД как признак сети.
func (r *PostgresFavoritesRepository) Check(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
