package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck returns a liveness check that fails when the goroutine
// count exceeds threshold, a cheap proxy for leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return fmt.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
