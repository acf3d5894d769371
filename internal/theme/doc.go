// Package theme styles perch's overlay surfaces with GTK CSS.
// Bundled themes are embedded; a file with the same name in
// ~/.config/perch/themes/ overrides the bundled one.
package theme
