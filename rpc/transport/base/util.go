package base

import (
	"errors"
	"net"
	"syscall"
	"time"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// transientAcceptErrors lists the errno values after which accepting again can succeed
var transientAcceptErrors = []syscall.Errno{
	syscall.ECONNABORTED,
	syscall.ECONNRESET,
	syscall.EINTR,
	syscall.EAGAIN,
	syscall.EWOULDBLOCK,
	syscall.EMFILE,
	syscall.ENFILE,
}

// isTransientAcceptError reports whether the accept loop should keep running after err
func isTransientAcceptError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range transientAcceptErrors {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// nextAcceptDelay doubles the wait after a transient accept error, starting at
// minAcceptDelay and capped at maxAcceptDelay
func nextAcceptDelay(current time.Duration) time.Duration {
	if current == 0 {
		return minAcceptDelay
	}
	if next := current * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}
