package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/platform/metrics"
	"warden/pkg/requestcontext"
)

func TestMemoryCounterStoreWindow(t *testing.T) {
	store := NewMemoryCounterStore(10, time.Hour, 0)
	defer store.Destroy()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(offset time.Duration) context.Context {
		return requestcontext.WithTime(context.Background(), base.Add(offset))
	}

	for i := 1; i <= 3; i++ {
		n, err := store.Increment(at(0), "u1:verify", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	n, err := store.Increment(at(0), "u2:verify", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "keys are independent")

	n, err = store.Increment(at(61*time.Second), "u1:verify", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "elapsed window restarts the count")
}

func TestMemoryCounterStoreEvictionMetric(t *testing.T) {
	met := metrics.New(prometheus.NewRegistry())
	store := NewMemoryCounterStore(1, time.Hour, 0, EvictionMetric(met, "rate_limit"))
	defer store.Destroy()

	ctx := context.Background()
	_, err := store.Increment(ctx, "first", time.Minute)
	require.NoError(t, err)

	// Capacity is one, so tracking a second key evicts the first.
	_, err = store.Increment(ctx, "second", time.Minute)
	require.NoError(t, err)

	evictions := testutil.ToFloat64(met.StateStoreEvictions.WithLabelValues("rate_limit"))
	assert.Equal(t, 1.0, evictions)
}

func TestMemoryCounterStoreSerializesIncrements(t *testing.T) {
	store := NewMemoryCounterStore(10, time.Hour, 0)
	defer store.Destroy()

	ctx := context.Background()
	const workers = 50

	var wg sync.WaitGroup
	counts := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Increment(ctx, "shared", time.Minute)
			assert.NoError(t, err)
			counts <- n
		}()
	}
	wg.Wait()
	close(counts)

	seen := map[int]bool{}
	for n := range counts {
		assert.False(t, seen[n], "count %d observed twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}
