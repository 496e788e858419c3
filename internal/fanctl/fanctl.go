// Package fanctl drives the external USB fan controller.
package fanctl

import "github.com/aprilwade/teslafanctl/internal/errors"

const (
	ErrInitFailed  = errors.ErrorCode("fanctl_init_failed")
	ErrNotFound    = errors.ErrorCode("fanctl_not_found")
	ErrWriteFailed = errors.ErrorCode("fanctl_write_failed")
)

// Connection is an open channel to the fan controller. Send is atomic: the
// command frame is either delivered whole or the connection is unusable.
type Connection interface {
	Send(dutyCycle byte) error
	Close() error
}

// Opener locates the fan controller and opens a connection to it. The
// control loop re-opens through this after any write failure, since the
// device may be unplugged and replugged while the daemon runs.
type Opener interface {
	Open() (Connection, error)
}
