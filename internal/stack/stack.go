// Package stack holds the ordered set of live widgets.
package stack

import (
	"errors"
	"slices"
	"sync"

	"github.com/jmylchreest/perch/internal/model"
)

// ErrClosed is returned when pushing to a closed stack.
var ErrClosed = errors.New("stack is closed")

// subscriberBuffer is the channel capacity per subscriber.
const subscriberBuffer = 16

// Stack is an ordered sequence of widgets, newest on top. Every push and
// pop publishes the resulting "has active widget" state to subscribers.
//
// The structure is guarded so HasActive and Len may be called from any
// goroutine. The widgets themselves are owned by the engine loop.
type Stack struct {
	mu      sync.RWMutex
	widgets []*model.Widget

	subMu       sync.Mutex
	subscribers []chan bool
	closed      bool
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push adds a widget on top.
func (s *Stack) Push(w *model.Widget) error {
	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		return ErrClosed
	}
	s.widgets = append(s.widgets, w)
	s.mu.Unlock()

	s.notifyChange(true)
	return nil
}

// Pop removes and returns the top widget. It returns false on an empty stack.
func (s *Stack) Pop() (*model.Widget, bool) {
	s.mu.Lock()
	n := len(s.widgets)
	if n == 0 {
		s.mu.Unlock()
		return nil, false
	}
	w := s.widgets[n-1]
	s.widgets[n-1] = nil
	s.widgets = s.widgets[:n-1]
	active := len(s.widgets) > 0
	s.mu.Unlock()

	s.notifyChange(active)
	return w, true
}

// Remove takes a widget out of the stack wherever it is.
func (s *Stack) Remove(id model.WidgetID) (*model.Widget, bool) {
	s.mu.Lock()
	i := slices.IndexFunc(s.widgets, func(w *model.Widget) bool { return w.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return nil, false
	}
	w := s.widgets[i]
	s.widgets = slices.Delete(s.widgets, i, i+1)
	active := len(s.widgets) > 0
	s.mu.Unlock()

	s.notifyChange(active)
	return w, true
}

// Len returns the number of widgets.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.widgets)
}

// HasActive reports whether at least one widget exists.
func (s *Stack) HasActive() bool {
	return s.Len() > 0
}

// Widgets returns the widgets bottom to top.
func (s *Stack) Widgets() []*model.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.widgets)
}

// Subscribe returns a channel that receives the active state after every
// structural change. A slow subscriber loses its oldest pending values,
// never the latest.
func (s *Stack) Subscribe() <-chan bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan bool, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Stack) Unsubscribe(ch <-chan bool) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels. Pushes fail afterwards.
func (s *Stack) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}

func (s *Stack) isClosed() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.closed
}

func (s *Stack) notifyChange(active bool) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- active:
			continue
		default:
		}
		// Full: drop the oldest value and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- active:
		default:
		}
	}
}
