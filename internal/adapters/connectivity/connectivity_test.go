package connectivity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"favorites-sync/internal/adapters/connectivity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err atomic.Pointer[error]
}

func (s *stubChecker) fail(err error) { s.err.Store(&err) }
func (s *stubChecker) pass()          { s.err.Store(nil) }

func (s *stubChecker) Check(ctx context.Context) error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

func TestManual_NotifiesOnlyOnTransitionToOnline(t *testing.T) {
	ctx := context.Background()
	oracle := connectivity.NewManual(false)
	assert.False(t, oracle.IsOnline(ctx))

	var calls int
	unsubscribe := oracle.OnBecameOnline(func(ctx context.Context) { calls++ })

	oracle.SetOnline(ctx, true)
	assert.True(t, oracle.IsOnline(ctx))
	oracle.SetOnline(ctx, true)
	assert.Equal(t, 1, calls)

	oracle.SetOnline(ctx, false)
	oracle.SetOnline(ctx, true)
	assert.Equal(t, 2, calls)

	unsubscribe()
	unsubscribe()
	oracle.SetOnline(ctx, false)
	oracle.SetOnline(ctx, true)
	assert.Equal(t, 2, calls)
}

func TestManual_SubscribersRunInOrder(t *testing.T) {
	ctx := context.Background()
	oracle := connectivity.NewManual(false)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		oracle.OnBecameOnline(func(ctx context.Context) { order = append(order, i) })
	}
	oracle.SetOnline(ctx, true)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestProber_UnknownStateCountsAsOnline(t *testing.T) {
	prober, err := connectivity.NewProber(&stubChecker{}, connectivity.ProberConfig{}, nil)
	require.NoError(t, err)
	assert.True(t, prober.IsOnline(context.Background()))
}

func TestProber_EdgeTriggeredNotifications(t *testing.T) {
	ctx := context.Background()
	checker := &stubChecker{}
	prober, err := connectivity.NewProber(checker, connectivity.ProberConfig{Timeout: time.Second}, nil)
	require.NoError(t, err)

	var calls int
	prober.OnBecameOnline(func(ctx context.Context) { calls++ })

	checker.fail(errors.New("no route to host"))
	assert.False(t, prober.ProbeOnce(ctx))
	assert.False(t, prober.IsOnline(ctx))
	assert.Zero(t, calls)

	checker.pass()
	assert.True(t, prober.ProbeOnce(ctx))
	assert.True(t, prober.IsOnline(ctx))
	assert.Equal(t, 1, calls)

	assert.True(t, prober.ProbeOnce(ctx))
	assert.Equal(t, 1, calls, "staying online must not notify again")
}

func TestProber_FirstSuccessfulProbeNotifies(t *testing.T) {
	ctx := context.Background()
	prober, err := connectivity.NewProber(&stubChecker{}, connectivity.ProberConfig{}, nil)
	require.NoError(t, err)

	var calls int
	prober.OnBecameOnline(func(ctx context.Context) { calls++ })
	prober.ProbeOnce(ctx)
	assert.Equal(t, 1, calls)
}

func TestProber_RunStopsOnCancel(t *testing.T) {
	prober, err := connectivity.NewProber(&stubChecker{}, connectivity.ProberConfig{Interval: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		prober.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("prober did not stop")
	}
}

func TestNewProber_RequiresChecker(t *testing.T) {
	_, err := connectivity.NewProber(nil, connectivity.ProberConfig{}, nil)
	assert.Error(t, err)
}

func TestHTTPChecker(t *testing.T) {
	status := atomic.Int32{}
	status.Store(http.StatusNoContent)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	checker, err := connectivity.NewHTTPChecker(server.URL, time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, checker.Check(ctx))

	status.Store(http.StatusNotFound)
	assert.NoError(t, checker.Check(ctx), "any response below 500 means the network is reachable")

	status.Store(http.StatusBadGateway)
	assert.Error(t, checker.Check(ctx))

	server.Close()
	assert.Error(t, checker.Check(ctx))
}

func TestNewHTTPChecker_RequiresURL(t *testing.T) {
	_, err := connectivity.NewHTTPChecker("", time.Second)
	assert.Error(t, err)
}
