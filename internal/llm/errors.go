package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNetwork           = errors.New("correction request failed")
	ErrTimeout           = errors.New("correction timed out")
	ErrMalformedResponse = errors.New("malformed correction response")
	ErrEmptyResponse     = errors.New("empty correction response")
)

// Kind returns a short label for a correction error, used in logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "network"
	}
}

// transportError maps a failed round trip onto the taxonomy.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
