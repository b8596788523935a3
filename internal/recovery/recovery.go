// internal/recovery/recovery.go
package recovery

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
)

// ErrPanic marks an error produced from a recovered panic.
var ErrPanic = errors.New("recovered panic")

// HandlePanic should be deferred at the top of main().
// It prints panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
		os.Exit(1)
	}
}

// Guard runs fn and converts a panic inside it into an error wrapping ErrPanic.
// Decoders of untrusted image data can panic on malformed input; one bad
// image must not take down the whole scan.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
