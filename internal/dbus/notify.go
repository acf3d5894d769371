package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
)

// Urgency levels from the desktop notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Notification is a desktop notification to send.
type Notification struct {
	AppName string
	Icon    string
	Summary string
	Body    string
	Urgency byte
	Timeout int32 // Milliseconds, -1 for server default
}

// Notifier sends desktop notifications through the session bus.
type Notifier struct {
	conn *dbus.Conn
}

// NewNotifier uses conn, or the shared session bus when conn is nil.
func NewNotifier(conn *dbus.Conn) (*Notifier, error) {
	if conn == nil {
		c, err := dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		conn = c
	}
	return &Notifier{conn: conn}, nil
}

// Send delivers n and returns the server's notification ID.
func (n *Notifier) Send(note Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":   dbus.MakeVariant(note.Urgency),
		"transient": dbus.MakeVariant(true),
	}
	if note.AppName != "" {
		hints["desktop-entry"] = dbus.MakeVariant(note.AppName)
	}

	var id uint32
	obj := n.conn.Object(notificationsName, notificationsPath)
	err := obj.Call(notificationsIface+".Notify", 0,
		note.AppName, uint32(0), note.Icon, note.Summary, note.Body,
		[]string{}, hints, note.Timeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	return id, nil
}
