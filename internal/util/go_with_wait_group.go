package util

import "sync"

// GoWithWaitGroup starts fn on a new goroutine. When wg is not nil it is
// incremented before the goroutine starts and released when fn returns.
func GoWithWaitGroup(wg *sync.WaitGroup, fn func()) {
	if wg == nil {
		go fn()
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()
}
