package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFlightTracker_Count(t *testing.T) {
	tracker := &InFlightTracker{}
	assert.Equal(t, int64(0), tracker.Count())

	tracker.Increment()
	tracker.Increment()
	assert.Equal(t, int64(2), tracker.Count())

	tracker.Decrement()
	tracker.Decrement()
	assert.Equal(t, int64(0), tracker.Count())
}

func TestInFlightTracker_WaitForZero(t *testing.T) {
	t.Run("returns immediately when idle", func(t *testing.T) {
		tracker := &InFlightTracker{}
		require.NoError(t, tracker.WaitForZero(context.Background(), time.Hour))
	})

	t.Run("returns once drained", func(t *testing.T) {
		tracker := &InFlightTracker{}
		tracker.Increment()
		go func() {
			time.Sleep(20 * time.Millisecond)
			tracker.Decrement()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, tracker.WaitForZero(ctx, 5*time.Millisecond))
	})

	t.Run("gives up at the deadline", func(t *testing.T) {
		tracker := &InFlightTracker{}
		tracker.Increment()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		err := tracker.WaitForZero(ctx, 5*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestMetricsMiddleware_TracksInFlight(t *testing.T) {
	var during int64
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		during = InFlightCount()
		w.WriteHeader(http.StatusNoContent)
	}))

	before := InFlightCount()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/news", nil))

	assert.Equal(t, before+1, during)
	assert.Equal(t, before, InFlightCount())
}
