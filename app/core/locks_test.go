package core_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyhall-ai/studyhall/app/core"
)

func TestSingleLockOneHolderPerKey(t *testing.T) {
	locks := core.NewSingleLock()
	key := core.SessionTurnKey("tenant-a", "session-1")

	assert.True(t, locks.TryLock(key))
	assert.False(t, locks.TryLock(key))

	// a different session is independent
	assert.True(t, locks.TryLock(core.SessionTurnKey("tenant-a", "session-2")))

	locks.Unlock(key)
	assert.True(t, locks.TryLock(key))
}

func TestSingleLockConcurrentAcquire(t *testing.T) {
	locks := core.NewSingleLock()
	key := core.DocumentWriteKey("tenant-a", "doc-1")

	var acquired int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if locks.TryLock(key) {
				atomic.AddInt64(&acquired, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), acquired)
}
