package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TransientError marks an error as safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// transientPatterns are Chrome network error codes and transport failures
// that usually clear on a second attempt.
var transientPatterns = []string{
	"net::err_timed_out",
	"net::err_connection_reset",
	"net::err_connection_closed",
	"net::err_network_changed",
	"net::err_internet_disconnected",
	"net::err_empty_response",
	"net::err_http2_protocol_error",
	"connection reset by peer",
	"i/o timeout",
	"tls handshake timeout",
}

// IsTransient reports whether err is worth retrying. A per-attempt deadline
// counts as transient; the caller's own cancellation is checked separately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
