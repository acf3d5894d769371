package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/perch/internal/engine"
	"github.com/jmylchreest/perch/internal/model"
)

const (
	// Interface is the perch interface name.
	Interface = "io.github.jmylchreest.Perch"
	// Path is the perch object path.
	Path = "/io/github/jmylchreest/Perch"
	// BusName is the bus name claimed by the daemon.
	BusName = "io.github.jmylchreest.Perch"

	// ErrorPermissionDenied is returned when overlays may not be drawn.
	ErrorPermissionDenied = Interface + ".Error.PermissionDenied"
	// ErrorFailed is returned for any other failure.
	ErrorFailed = Interface + ".Error.Failed"
)

// DefaultCallTimeout bounds how long a method waits for the engine.
const DefaultCallTimeout = 5 * time.Second

// Service is the widget engine as seen by the bus.
type Service interface {
	ShowWidget(ctx context.Context) (model.WidgetID, error)
	HideTopWidget(ctx context.Context) (bool, error)
	HideAllWidgets(ctx context.Context) (int, error)
	HideWidget(ctx context.Context, id model.WidgetID) (bool, error)
	HasActiveWidget() bool
	Widgets(ctx context.Context) ([]model.Snapshot, error)
}

// Server exports a Service on the session bus.
type Server struct {
	svc     Service
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	conn    *dbus.Conn
	running bool
}

// NewServer creates a server for svc.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger, timeout: DefaultCallTimeout}
}

// Start connects to the session bus, exports the object and claims the name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: perchMethods(),
				Signals: perchSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken, is perchd already running?", BusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus server started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	_ = s.conn.Export(nil, Path, Interface)

	s.logger.Info("D-Bus server stopped")
	return nil
}

// Connection returns the bus connection, nil before Start.
func (s *Server) Connection() *dbus.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Server) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// ShowWidget creates a widget and returns its ID.
// D-Bus method: ShowWidget() -> s
func (s *Server) ShowWidget() (string, *dbus.Error) {
	ctx, cancel := s.context()
	defer cancel()

	id, err := s.svc.ShowWidget(ctx)
	if err != nil {
		s.logger.Debug("ShowWidget failed", "error", err)
		return "", toDBusError(err)
	}
	s.logger.Debug("ShowWidget called", "widget_id", id)
	return string(id), nil
}

// HideTopWidget removes the newest widget.
// D-Bus method: HideTopWidget() -> b
func (s *Server) HideTopWidget() (bool, *dbus.Error) {
	ctx, cancel := s.context()
	defer cancel()

	removed, err := s.svc.HideTopWidget(ctx)
	if err != nil {
		return false, toDBusError(err)
	}
	return removed, nil
}

// HideAllWidgets removes every widget.
// D-Bus method: HideAllWidgets() -> u
func (s *Server) HideAllWidgets() (uint32, *dbus.Error) {
	ctx, cancel := s.context()
	defer cancel()

	n, err := s.svc.HideAllWidgets(ctx)
	if err != nil {
		return 0, toDBusError(err)
	}
	return uint32(n), nil
}

// HideWidget removes one widget by ID.
// D-Bus method: HideWidget(s) -> b
func (s *Server) HideWidget(id string) (bool, *dbus.Error) {
	ctx, cancel := s.context()
	defer cancel()

	removed, err := s.svc.HideWidget(ctx, model.WidgetID(id))
	if err != nil {
		return false, toDBusError(err)
	}
	return removed, nil
}

// HasActiveWidget reports whether any widget exists.
// D-Bus method: HasActiveWidget() -> b
func (s *Server) HasActiveWidget() (bool, *dbus.Error) {
	return s.svc.HasActiveWidget(), nil
}

// ListWidgets returns the widgets as a JSON array, bottom to top.
// D-Bus method: ListWidgets() -> s
func (s *Server) ListWidgets() (string, *dbus.Error) {
	ctx, cancel := s.context()
	defer cancel()

	list, err := s.svc.Widgets(ctx)
	if err != nil {
		return "", toDBusError(err)
	}
	if list == nil {
		list = []model.Snapshot{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

func toDBusError(err error) *dbus.Error {
	name := ErrorFailed
	if errors.Is(err, engine.ErrPermissionDenied) {
		name = ErrorPermissionDenied
	}
	return dbus.NewError(name, []any{err.Error()})
}

func perchMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "ShowWidget",
			Args: []introspect.Arg{{Name: "id", Type: "s", Direction: "out"}},
		},
		{
			Name: "HideTopWidget",
			Args: []introspect.Arg{{Name: "removed", Type: "b", Direction: "out"}},
		},
		{
			Name: "HideAllWidgets",
			Args: []introspect.Arg{{Name: "count", Type: "u", Direction: "out"}},
		},
		{
			Name: "HideWidget",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
				{Name: "removed", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "HasActiveWidget",
			Args: []introspect.Arg{{Name: "active", Type: "b", Direction: "out"}},
		},
		{
			Name: "ListWidgets",
			Args: []introspect.Arg{{Name: "widgets", Type: "s", Direction: "out"}},
		},
	}
}

func perchSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "ActiveChanged",
			Args: []introspect.Arg{{Name: "active", Type: "b"}},
		},
	}
}
