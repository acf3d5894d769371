package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/perch/internal/model"
)

// ErrNotRunning means no daemon owns the perch bus name.
var ErrNotRunning = errors.New("perchd is not running")

// ErrPermissionDenied mirrors the daemon's permission error.
var ErrPermissionDenied = errors.New("overlay permission not granted, request issued")

// Client calls a running daemon.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Connect opens the session bus and checks that the daemon is running.
func Connect() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned); err != nil {
		return nil, fmt.Errorf("failed to query bus name: %w", err)
	}
	if !owned {
		return nil, ErrNotRunning
	}

	return &Client{conn: conn, obj: conn.Object(BusName, Path)}, nil
}

func (c *Client) call(ctx context.Context, method string, args []any, out ...any) error {
	err := c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...).Store(out...)
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) && dbusErr.Name == ErrorPermissionDenied {
		return ErrPermissionDenied
	}
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// ShowWidget asks the daemon to create a widget.
func (c *Client) ShowWidget(ctx context.Context) (model.WidgetID, error) {
	var id string
	err := c.call(ctx, "ShowWidget", nil, &id)
	return model.WidgetID(id), err
}

// HideTopWidget removes the newest widget.
func (c *Client) HideTopWidget(ctx context.Context) (bool, error) {
	var removed bool
	err := c.call(ctx, "HideTopWidget", nil, &removed)
	return removed, err
}

// HideAllWidgets removes every widget.
func (c *Client) HideAllWidgets(ctx context.Context) (int, error) {
	var n uint32
	err := c.call(ctx, "HideAllWidgets", nil, &n)
	return int(n), err
}

// HideWidget removes one widget by ID.
func (c *Client) HideWidget(ctx context.Context, id model.WidgetID) (bool, error) {
	var removed bool
	err := c.call(ctx, "HideWidget", []any{string(id)}, &removed)
	return removed, err
}

// HasActiveWidget reports whether the daemon shows any widget.
func (c *Client) HasActiveWidget(ctx context.Context) (bool, error) {
	var active bool
	err := c.call(ctx, "HasActiveWidget", nil, &active)
	return active, err
}

// Widgets lists the daemon's widgets, bottom to top.
func (c *Client) Widgets(ctx context.Context) ([]model.Snapshot, error) {
	var data string
	if err := c.call(ctx, "ListWidgets", nil, &data); err != nil {
		return nil, err
	}
	var list []model.Snapshot
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to decode widget list: %w", err)
	}
	return list, nil
}

// WatchActive delivers ActiveChanged signals until ctx is done.
func (c *Client) WatchActive(ctx context.Context) (<-chan bool, error) {
	if err := c.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("ActiveChanged"),
	); err != nil {
		return nil, fmt.Errorf("failed to add signal match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	out := make(chan bool, 16)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				if sig == nil || sig.Name != Interface+".ActiveChanged" || len(sig.Body) != 1 {
					continue
				}
				if active, ok := sig.Body[0].(bool); ok {
					select {
					case out <- active:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}
