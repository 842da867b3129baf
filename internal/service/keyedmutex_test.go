package service

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	// an unrelated key is not blocked
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked by a")
	}

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()
	select {
	case <-acquired:
		t.Fatal("second lock on a acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	unlockA()
	<-acquired

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("c")()
		}()
	}
	wg.Wait()
	if n := k.size(); n != 0 {
		t.Errorf("expected no retained keys, got %d", n)
	}
}
