package theme

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed themes/*.css
var embedded embed.FS

// DefaultThemeName is the built-in fallback theme.
const DefaultThemeName = "default"

// Embedded returns the CSS of a bundled theme or partial.
func Embedded(name string) (string, bool) {
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	data, err := embedded.ReadFile(path.Join("themes", name))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// BundledNames lists the embedded themes, excluding partials.
func BundledNames() []string {
	entries, err := fs.ReadDir(embedded, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || path.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	slices.Sort(names)
	return names
}
