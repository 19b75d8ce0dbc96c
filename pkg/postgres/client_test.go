package postgres_test

import (
	"context"
	"testing"
	"time"

	"favorites-sync/pkg/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unreachableURL = "postgres://u:p@127.0.0.1:1/db"

func TestNewClient_LazyDoesNotDial(t *testing.T) {
	pool, err := postgres.NewClient(context.Background(), postgres.Config{
		DatabaseURL:    unreachableURL,
		ConnectTimeout: 2 * time.Second,
		Lazy:           true,
	})
	require.NoError(t, err)
	defer pool.Close()

	// Ошибка сети проявляется только при первом запросе.
	assert.Error(t, pool.Ping(context.Background()))
}

func TestNewClient_EagerPingFails(t *testing.T) {
	_, err := postgres.NewClient(context.Background(), postgres.Config{
		DatabaseURL:    unreachableURL,
		ConnectTimeout: 2 * time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to ping database")
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := postgres.NewClient(context.Background(), postgres.Config{Lazy: true})
	assert.Error(t, err)
}
