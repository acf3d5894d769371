// Package daemon holds the background pieces of perchd that sit around
// the engine: configuration hot reload and rate-limited desktop
// notifications about problems the user should see.
package daemon
