// Package overlay defines the windowing primitives perch draws with.
//
// A Host paints views at absolute screen coordinates above other
// applications and delivers raw touch events back through each view's
// OnTouch callback. Permission gates whether overlays may be drawn at all.
//
// MemoryHost is a virtual touchscreen implementing Host. It is used by the
// terminal simulator and by tests to drive gestures without a compositor.
package overlay
