// Package notify provides desktop notifications via D-Bus.
package notify

// Urgency is the freedesktop notification urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Action is a button shown on a notification.
type Action struct {
	Key   string
	Label string
}

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string   // Summary text (required)
	Body       string   // Body text (optional, supports basic markup)
	Icon       string   // Path to image file or icon name (optional)
	Timeout    int32    // ms, -1 = server default, 0 = never expire
	ReplacesID uint32   // 0 = new notification, >0 = replace existing
	Urgency    Urgency  // Low, Normal, Critical
	Actions    []Action // Buttons, in display order
	Resident   bool     // Keep the notification after an action is invoked
}

// ActionFunc is called when the user invokes an action of notification id.
type ActionFunc func(id uint32, key string)

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
	// OnAction registers the handler for invoked actions, replacing any
	// previous one.
	OnAction(fn ActionFunc)
	// Shutdown stops listening for actions.
	Shutdown() error
}
