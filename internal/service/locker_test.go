package service

import (
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock("a")
	// another key is not blocked
	unlockB := locks.Lock("b")
	unlockB()

	acquired := make(chan struct{})
	go func() {
		unlock := locks.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked key")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired

	assert.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, time.Millisecond)
}

func TestKeyedMutexSerializes(t *testing.T) {
	locks := newKeyedMutex()
	counter := 0

	var wg conc.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Go(func() {
			unlock := locks.Lock("shared")
			defer unlock()
			counter++
		})
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, locks.size())
}

func TestHighWater(t *testing.T) {
	marks := newHighWater()

	assert.Equal(t, int64(5), marks.next("DEL-2025-", 5))
	marks.record("DEL-2025-", 5)

	// the store has not caught up yet
	assert.Equal(t, int64(6), marks.next("DEL-2025-", 5))
	// the store is ahead
	assert.Equal(t, int64(9), marks.next("DEL-2025-", 9))

	marks.record("DEL-2025-", 3)
	assert.Equal(t, int64(6), marks.next("DEL-2025-", 1))

	// keys are independent
	assert.Equal(t, int64(1), marks.next("INV-2025-", 1))
}
