//go:build !windows

package stderr

import (
	"os"
	"syscall"
)

// Start redirects fd 2 into a pipe. Must be called early in main(), before
// any C library initialization. On error the returned capture is inactive
// and output keeps going to the original stderr.
func Start() (*Capture, error) {
	c := newCapture()

	r, w, err := os.Pipe()
	if err != nil {
		return c, err
	}

	origFd, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return c, err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origFd)
		r.Close()
		w.Close()
		return c, err
	}

	c.orig = os.NewFile(uintptr(origFd), "stderr")
	c.r, c.w = r, w
	go pump(r, c.lines)
	return c, nil
}

// Stop restores the original stderr.
func (c *Capture) Stop() {
	if !c.Active() {
		return
	}
	c.stopOnce.Do(func() {
		_ = syscall.Dup2(int(c.orig.Fd()), int(os.Stderr.Fd()))
		// closing the write end ends pump, which closes lines
		c.w.Close()
	})
}
