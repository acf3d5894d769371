package dbus

import (
	"context"
	"fmt"
)

// EmitActiveChanged emits the ActiveChanged signal.
func (s *Server) EmitActiveChanged(active bool) error {
	conn := s.Connection()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	if err := conn.Emit(Path, Interface+".ActiveChanged", active); err != nil {
		return fmt.Errorf("failed to emit ActiveChanged signal: %w", err)
	}
	s.logger.Debug("emitted ActiveChanged signal", "active", active)
	return nil
}

// ForwardLifecycle emits ActiveChanged for every value received on ch
// until ch closes or ctx is done.
func (s *Server) ForwardLifecycle(ctx context.Context, ch <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case active, ok := <-ch:
			if !ok {
				return
			}
			if err := s.EmitActiveChanged(active); err != nil {
				s.logger.Warn("failed to forward lifecycle change", "error", err)
			}
		}
	}
}
