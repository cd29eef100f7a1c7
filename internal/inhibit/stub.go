//go:build !linux

package inhibit

type noop struct{}

// New returns an inhibitor that always fails with ErrUnavailable.
func New(_, _ string) Inhibitor { return noop{} }

func (noop) Acquire() error { return ErrUnavailable }
func (noop) Release()       {}
