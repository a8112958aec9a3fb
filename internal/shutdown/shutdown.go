// Package shutdown provides the broadcast cancellation primitive shared by
// the sync loop, the web listeners and the signal handler.
package shutdown

import "sync"

// Coordinator is a single-writer, multi-reader shutdown flag. The transition
// to shutting-down is monotone: once triggered it never reverts. Any task may
// trigger it; triggering again is a no-op, so OS signals, a failed listener
// and an explicit stop can all race safely.
//
// Long-running tasks select on Done() at their cooperative wait points. An
// in-flight store or network call is always allowed to finish before the
// task checks the flag again.
type Coordinator struct {
	once sync.Once
	done chan struct{}
}

// NewCoordinator returns a coordinator in the running state.
func NewCoordinator() *Coordinator {
	return &Coordinator{done: make(chan struct{})}
}

// Trigger moves the coordinator into the shutting-down state. Safe to call
// concurrently and repeatedly.
func (c *Coordinator) Trigger() {
	c.once.Do(func() { close(c.done) })
}

// Done returns the channel that is closed when shutdown is triggered.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// InShutdown reports whether shutdown has been triggered.
func (c *Coordinator) InShutdown() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
