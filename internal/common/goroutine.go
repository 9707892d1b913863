// -----------------------------------------------------------------------
// Bounded workers - Panic-protected fan-out helpers
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/ternarybob/arbor"
)

// PanicError is returned for a call that panicked.
type PanicError struct {
	Name  string
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Value)
}

// Recover runs fn and converts a panic into a *PanicError.
// The panic and its stack are logged when logger is non-nil.
func Recover(logger arbor.ILogger, name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			stackTrace := string(buf[:n])

			if logger != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("Recovered from panic in worker - continuing run")
			}
			err = &PanicError{Name: name, Value: r, Stack: stackTrace}
		}
	}()

	fn()
	return nil
}

// ForEachBounded calls fn for every index in [0, n) using at most workers
// goroutines and returns once all calls have finished. Indices not yet started
// when ctx is cancelled are skipped. The returned slice holds one entry per
// index: nil, a *PanicError, or ctx.Err() for skipped indices.
func ForEachBounded(ctx context.Context, logger arbor.ILogger, name string, workers, n int, fn func(ctx context.Context, i int)) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			for j := i; j < n; j++ {
				errs[j] = ctx.Err()
			}
			wg.Wait()
			return errs
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = Recover(logger, name, func() { fn(ctx, i) })
		}(i)
	}

	wg.Wait()
	return errs
}
