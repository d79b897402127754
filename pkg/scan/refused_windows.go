//go:build windows

package scan

import (
	"errors"
	"syscall"
)

// wsaeconnrefused is WSAECONNREFUSED from winsock.
const wsaeconnrefused syscall.Errno = 10061

func isPlatformRefused(err error) bool {
	return errors.Is(err, wsaeconnrefused)
}
