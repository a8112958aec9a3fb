package shutdown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerClosesDone(t *testing.T) {
	c := NewCoordinator()
	assert.False(t, c.InShutdown())

	c.Trigger()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after Trigger()")
	}
	assert.True(t, c.InShutdown())
}

func TestTriggerIsIdempotent(t *testing.T) {
	c := NewCoordinator()
	c.Trigger()
	// second trigger must not panic on the closed channel
	assert.NotPanics(t, c.Trigger)
	assert.True(t, c.InShutdown())
}

func TestConcurrentTriggers(t *testing.T) {
	c := NewCoordinator()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Trigger()
		}()
	}
	wg.Wait()

	assert.True(t, c.InShutdown())
}

func TestAllReadersObserveShutdown(t *testing.T) {
	c := NewCoordinator()

	var wg sync.WaitGroup
	observed := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-c.Done()
			observed <- struct{}{}
		}()
	}

	c.Trigger()
	wg.Wait()
	assert.Len(t, observed, 3)
}
