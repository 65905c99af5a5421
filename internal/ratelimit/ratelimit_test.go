package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenReject(t *testing.T) {
	krl := New(1, 3)
	defer krl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, krl.Allow("10.0.0.1"), "request %d should pass", i)
	}
	assert.False(t, krl.Allow("10.0.0.1"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"))
	assert.True(t, krl.Allow("b"))
	assert.Equal(t, 2, krl.Len())
}

func TestPerInterval(t *testing.T) {
	krl := PerInterval(60, time.Minute, 2)
	defer krl.Stop()

	assert.InDelta(t, 1.0, float64(krl.limit), 0.0001)
	assert.Equal(t, 2, krl.burst)
}

func TestSweep_EvictsIdleKeys(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	base := time.Now()
	krl.now = func() time.Time { return base }
	krl.Allow("old")

	krl.now = func() time.Time { return base.Add(defaultIdleTTL - time.Second) }
	krl.Allow("fresh")

	krl.now = func() time.Time { return base.Add(defaultIdleTTL + time.Second) }
	krl.sweep()

	assert.Equal(t, 1, krl.Len())
	krl.mu.Lock()
	_, ok := krl.entries["fresh"]
	krl.mu.Unlock()
	assert.True(t, ok)
}

func TestAllow_Concurrent(t *testing.T) {
	krl := New(1000, 1000)
	defer krl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			krl.Allow("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, krl.Len())
}

func TestStop_Idempotent(t *testing.T) {
	krl := New(1, 1)
	assert.NotPanics(t, func() {
		krl.Stop()
		krl.Stop()
	})
}
