//go:build linux

package inhibit

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest    = "org.freedesktop.login1"
	login1Path    = "/org/freedesktop/login1"
	login1Inhibit = "org.freedesktop.login1.Manager.Inhibit"
)

// logind takes a "sleep" block lock from systemd-logind. The lock lives
// as long as the returned file descriptor stays open.
type logind struct {
	who, why string

	mu   sync.Mutex
	conn *dbus.Conn
	fd   int
	held bool
}

// New returns an inhibitor presenting itself as who with reason why.
func New(who, why string) Inhibitor {
	return &logind{who: who, why: why, fd: -1}
}

func (l *logind) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil
	}
	if l.conn == nil {
		conn, err := dbus.SystemBus()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		l.conn = conn
	}

	var fd dbus.UnixFD
	err := l.conn.Object(login1Dest, login1Path).
		Call(login1Inhibit, 0, "sleep", l.who, l.why, "block").
		Store(&fd)
	if err != nil {
		return fmt.Errorf("inhibit sleep: %w", err)
	}
	l.fd = int(fd)
	l.held = true
	return nil
}

func (l *logind) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return
	}
	_ = syscall.Close(l.fd)
	l.fd = -1
	l.held = false
}
