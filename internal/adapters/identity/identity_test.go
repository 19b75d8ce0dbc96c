package identity_test

import (
	"context"
	"testing"
	"time"

	"favorites-sync/internal/adapters/identity"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	signedIn := identity.NewStatic(" uid-1 ")
	userID, err := signedIn.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", userID)
	assert.Equal(t, []string{"uid-1"}, signedIn.SignedInUsers())

	anonymous := identity.NewStatic("")
	_, err = anonymous.CurrentUserID(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Empty(t, anonymous.SignedInUsers())
}

func TestFromContext(t *testing.T) {
	_, err := identity.FromContext{}.CurrentUserID(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	userID, err := identity.FromContext{}.CurrentUserID(contextkeys.ContextWithUserID(context.Background(), "uid-7"))
	require.NoError(t, err)
	assert.Equal(t, "uid-7", userID)
}

func TestSessions(t *testing.T) {
	sessions := identity.NewSessions("uid-b", "")
	sessions.SignIn("uid-a")
	sessions.SignIn("uid-b")
	sessions.SignIn("  ")
	assert.Equal(t, []string{"uid-a", "uid-b"}, sessions.SignedInUsers())

	sessions.SignOut("uid-b")
	assert.Equal(t, []string{"uid-a"}, sessions.SignedInUsers())
}

func TestSessions_ReleaseKeepsPinnedAndRecentUsers(t *testing.T) {
	sessions := identity.NewSessions("uid-owner")
	sessions.SignIn("uid-a")
	sessions.SignIn("uid-b")

	sessions.Release("uid-owner", time.Now())
	sessions.Release("uid-a", time.Now())
	// uid-b обращался после начала воспроизведения.
	sessions.Release("uid-b", time.Now().Add(-time.Hour))
	sessions.Release("uid-unknown", time.Now())

	assert.Equal(t, []string{"uid-b", "uid-owner"}, sessions.SignedInUsers())

	sessions.SignOut("uid-owner")
	assert.Equal(t, []string{"uid-b"}, sessions.SignedInUsers())
}

func TestBoundedSessions_EvictsLeastRecentlySeen(t *testing.T) {
	sessions := identity.NewBoundedSessions(2, "uid-owner")
	sessions.SignIn("a")
	sessions.SignIn("b")
	sessions.SignIn("c")
	assert.Equal(t, []string{"b", "c", "uid-owner"}, sessions.SignedInUsers())

	time.Sleep(time.Millisecond)
	sessions.SignIn("b")
	sessions.SignIn("d")
	assert.Equal(t, []string{"b", "d", "uid-owner"}, sessions.SignedInUsers())
}
