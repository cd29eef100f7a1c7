// Package stderr captures output that C libraries (ALSA, minimp3) write
// directly to file descriptor 2, bypassing Go's os.Stderr, and forwards it
// to the logger.
package stderr

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const bufferedLines = 100

// Capture owns the redirected descriptor. The zero value is inactive and
// writes go to os.Stderr.
type Capture struct {
	orig  *os.File
	r, w  *os.File
	lines chan string

	stopOnce sync.Once
}

func newCapture() *Capture {
	return &Capture{lines: make(chan string, bufferedLines)}
}

// Active reports whether fd 2 is redirected.
func (c *Capture) Active() bool { return c != nil && c.orig != nil }

// Original returns a writer to the real stderr, for the logger itself.
func (c *Capture) Original() io.Writer {
	if !c.Active() {
		return os.Stderr
	}
	return c.orig
}

// Forward logs captured lines until Stop.
func (c *Capture) Forward(logger *zap.Logger) {
	if !c.Active() {
		return
	}
	logger = logger.Named("native")
	go func() {
		for line := range c.lines {
			logger.Warn(line)
		}
	}()
}

// pump sends the non-blank lines of r to out, dropping them when out is
// full, and closes out at EOF.
func pump(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case out <- line:
		default:
		}
	}
}
