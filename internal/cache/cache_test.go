package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_Add(t *testing.T) {
	c := New(time.Minute)

	assert.True(t, c.Add("hostbeat/heartbeats/host1@7", 7, 0))
	assert.False(t, c.Add("hostbeat/heartbeats/host1@7", 7, 0))
	assert.True(t, c.Add("hostbeat/heartbeats/host1@8", 8, 0))

	v, ok := c.Get("hostbeat/heartbeats/host1@7")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, c.Len())
}

func TestTTLCache_AddAfterExpiry(t *testing.T) {
	c := New(time.Minute)

	assert.True(t, c.Add("key", 1, 5*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
	assert.True(t, c.Add("key", 2, 0))
}

func TestTTLCache_Delete(t *testing.T) {
	c := New(time.Minute)
	c.Add("key", 1, 0)

	c.Delete("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
	assert.True(t, c.Add("key", 1, 0))
}

func TestTTLCache_AddIsAtomic(t *testing.T) {
	c := New(time.Minute)

	var added atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Add("key", struct{}{}, 0) {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), added.Load())
}
