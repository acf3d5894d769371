// Package dbus exposes perch on the session bus.
//
// The daemon exports io.github.jmylchreest.Perch with methods to create
// and remove widgets and an ActiveChanged signal mirroring the widget
// lifecycle. The CLI talks to it through Client. Notifier sends desktop
// notifications through org.freedesktop.Notifications.
package dbus
