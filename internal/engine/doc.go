// Package engine runs the floating widget lifecycle.
//
// All state changes happen on a single goroutine, the one running
// Engine.Run. Touch events from the overlay host, dim timer fires and
// public API calls are queued as closures in one FIFO mailbox and
// processed in arrival order, so a dim fire can never interleave with a
// half-applied drag.
//
// Public operations that return results (ShowWidget, HideTopWidget,
// HideAllWidgets, Widgets) wait for their closure to run. Touch is fire
// and forget. HasActiveWidget reads the stack directly and may be called
// from any goroutine.
package engine
