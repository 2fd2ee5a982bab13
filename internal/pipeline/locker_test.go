package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockerSerializesSameKey(t *testing.T) {
	locker := NewKeyLocker()

	var (
		active  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("jane_doe")
			defer unlock()

			now := atomic.AddInt32(&active, 1)
			for {
				prev := atomic.LoadInt32(&maxSeen)
				if now <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, locker.size())
}

func TestKeyLockerIndependentKeys(t *testing.T) {
	locker := NewKeyLocker()

	unlockA := locker.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locker.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}

	unlockA()
	assert.Equal(t, 0, locker.size())
}
