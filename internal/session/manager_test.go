package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSerialisesOneSession(t *testing.T) {
	m := NewManager()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("s1")
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.Active())
}

func TestLockDoesNotBlockOtherSessions(t *testing.T) {
	m := NewManager()
	unlockA := m.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session b blocked by session a")
	}
	assert.Equal(t, 1, m.Active())
}

func TestUnlockIsIdempotent(t *testing.T) {
	m := NewManager()
	unlock := m.Lock("s")
	unlock()
	unlock()
	assert.Equal(t, 0, m.Active())

	// после двойной разблокировки сессию снова можно занять
	unlock = m.Lock("s")
	assert.Equal(t, 1, m.Active())
	unlock()
}
