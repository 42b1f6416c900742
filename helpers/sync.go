package helpers

// Random synchronisation util stash

import (
	"sync"

	"github.com/temoto/alive/v2"
)

// AliveSub stops leaf when root is stopped. Blocks until either one stops.
func AliveSub(root, leaf *alive.Alive) {
	select {
	case <-root.StopChan():
		leaf.Stop()
	case <-leaf.StopChan():
	}
}

// WrapErrChan is for `go helpers.WrapErrChan(&wg, errch, fun)`.
func WrapErrChan(wg *sync.WaitGroup, ch chan<- error, f func() error) {
	defer wg.Done()
	if err := f(); err != nil {
		ch <- err
	}
}
