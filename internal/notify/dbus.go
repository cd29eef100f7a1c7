//go:build linux

package notify

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"
	dbusActionInvoked   = "ActionInvoked"
)

// dbusNotifier sends notifications via D-Bus.
type dbusNotifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
	done    chan struct{}
	once    sync.Once

	mu       sync.Mutex
	onAction ActionFunc
}

// New creates a Notifier that sends desktop notifications via D-Bus.
// Returns a no-op notifier if D-Bus is unavailable.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		// D-Bus not available, return no-op notifier (intentional graceful degradation)
		return &stubNotifier{}, nil //nolint:nilerr // graceful fallback when D-Bus unavailable
	}

	n := &dbusNotifier{
		conn:    conn,
		obj:     conn.Object(dbusNotifyDest, dbusNotifyPath),
		signals: make(chan *dbus.Signal, 10),
		done:    make(chan struct{}),
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusNotifyInterface),
		dbus.WithMatchMember(dbusActionInvoked),
	); err != nil {
		// Notifications still work, actions are just not delivered.
		return n, nil //nolint:nilerr // actions are optional
	}
	conn.Signal(n.signals)
	go n.listen()
	return n, nil
}

func (n *dbusNotifier) listen() {
	for {
		select {
		case <-n.done:
			return
		case sig, ok := <-n.signals:
			if !ok {
				return
			}
			if sig.Name != dbusNotifyInterface+"."+dbusActionInvoked || len(sig.Body) < 2 {
				continue
			}
			id, okID := sig.Body[0].(uint32)
			key, okKey := sig.Body[1].(string)
			if !okID || !okKey {
				continue
			}
			n.mu.Lock()
			fn := n.onAction
			n.mu.Unlock()
			if fn != nil {
				fn(id, key)
			}
		}
	}
}

// Notify sends a notification via D-Bus.
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	hints, actions := encode(notif)

	// D-Bus Notify method signature:
	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,                // flags
		"Wavecast",       // app_name
		notif.ReplacesID, // replaces_id
		notif.Icon,       // app_icon (path or icon name)
		notif.Title,      // summary
		notif.Body,       // body
		actions,          // actions as key, label pairs
		hints,            // hints
		notif.Timeout,    // expire_timeout
	)

	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// encode flattens actions into key, label pairs and builds the hint map.
func encode(notif Notification) (map[string]dbus.Variant, []string) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant("wavecast"),
	}
	if notif.Resident {
		hints["resident"] = dbus.MakeVariant(true)
	}

	actions := make([]string, 0, 2*len(notif.Actions))
	for _, a := range notif.Actions {
		actions = append(actions, a.Key, a.Label)
	}
	return hints, actions
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	call := n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	return call.Err
}

func (n *dbusNotifier) OnAction(fn ActionFunc) {
	n.mu.Lock()
	n.onAction = fn
	n.mu.Unlock()
}

func (n *dbusNotifier) Shutdown() error {
	n.once.Do(func() {
		n.conn.RemoveSignal(n.signals)
		close(n.done)
	})
	return nil
}

// stubNotifier is used when D-Bus is unavailable.
type stubNotifier struct{}

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return 0, nil
}

func (s *stubNotifier) Close(_ uint32) error {
	return nil
}

func (s *stubNotifier) OnAction(ActionFunc) {}

func (s *stubNotifier) Shutdown() error { return nil }
