// Package inhibit keeps the machine awake while music streams.
package inhibit

import "errors"

// ErrUnavailable is returned when the platform offers no inhibitor.
var ErrUnavailable = errors.New("sleep inhibitor unavailable")

// Inhibitor holds a sleep lock between Acquire and Release.
type Inhibitor interface {
	Acquire() error
	Release()
}
