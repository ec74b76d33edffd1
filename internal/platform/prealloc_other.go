//go:build !linux

package platform

import (
	"errors"
	"os"
)

func preallocate(*os.File, int64) error {
	return errors.ErrUnsupported
}
