package lockset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesKey(t *testing.T) {
	s := New()
	counter := 0

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("doc")
			defer unlock()

			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, s.size())
}

func TestLockIndependentKeys(t *testing.T) {
	s := New()

	unlockA := s.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := s.Lock("b")
		unlock()
		close(done)
	}()

	<-done
	unlockA()
	assert.Zero(t, s.size())
}
