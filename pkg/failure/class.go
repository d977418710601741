// Package failure names the short error classes shown to users when a
// backend call fails.
package failure

import (
	"context"
	"errors"
	"net"
)

const (
	Timeout = "Timeout"
	Cancel  = "Canceled"
	Network = "NetworkError"
	Generic = "Error"
)

// Classify maps transport-level failures to a class. Callers with their own
// typed errors check those first and fall back to Classify.
func Classify(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return Cancel
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return Timeout
		}
		return Network
	default:
		return Generic
	}
}
