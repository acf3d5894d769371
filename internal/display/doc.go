// Package display implements the overlay host on Wayland compositors
// that support wlr-layer-shell. Every view is its own layer surface on
// the overlay layer, positioned with top and left margins.
//
// GTK may only be touched from the main loop. Host methods are called
// from the engine goroutine, so each one is marshalled onto the main
// loop with glib.IdleAdd and waits for the result.
package display
