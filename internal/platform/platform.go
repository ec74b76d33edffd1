// Package platform holds OS-specific file helpers.
package platform

import (
	"fmt"
	"os"
)

// Preallocate reserves size bytes of disk for f without changing its
// length, so a download that dies early still looks incomplete. Where the
// OS or filesystem cannot do this the error wraps errors.ErrUnsupported.
func Preallocate(f *os.File, size int64) error {
	if size <= 0 {
		return nil
	}
	if err := preallocate(f, size); err != nil {
		return fmt.Errorf("preallocate %s: %w", f.Name(), err)
	}
	return nil
}
