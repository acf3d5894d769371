package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jmylchreest/perch/internal/overlay"
)

// importRe matches @import "x.css"; @import 'x.css'; and @import url("x.css");
var importRe = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// CSS classes applied to overlay surfaces.
const (
	ClassSurface = "perch-surface"
	ClassLocked  = "locked"
	ClassLight   = "light"
)

// ClassFor returns the CSS class of a view kind.
func ClassFor(kind overlay.Kind) string {
	return "perch-" + kind.String()
}

// Theme is resolved CSS with its origin.
type Theme struct {
	Name    string
	Path    string // Empty for bundled themes
	CSS     string
	Bundled bool
}

// ThemesDir returns the user's theme directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "perch", "themes"), nil
}

// Resolve finds a theme by name, preferring userDir over bundled themes and
// falling back to the default theme. The returned error is non-nil only
// when the fallback was used.
func Resolve(name, userDir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if userDir != "" {
		p := filepath.Join(userDir, name+".css")
		if data, err := os.ReadFile(p); err == nil {
			return &Theme{Name: name, Path: p, CSS: Inline(string(data), userDir)}, nil
		}
	}

	if css, ok := Embedded(name); ok {
		return &Theme{Name: name, CSS: Inline(css, ""), Bundled: true}, nil
	}

	css, _ := Embedded(DefaultThemeName)
	return &Theme{Name: DefaultThemeName, CSS: Inline(css, ""), Bundled: true},
		fmt.Errorf("theme %q not found", name)
}

// Inline replaces @import statements with the imported CSS. Paths resolve
// against baseDir first and then against the bundled files. Each file is
// inlined at most once.
func Inline(css, baseDir string) string {
	return inline(css, baseDir, make(map[string]bool))
}

func inline(css, baseDir string, seen map[string]bool) string {
	return importRe.ReplaceAllStringFunc(css, func(stmt string) string {
		m := importRe.FindStringSubmatch(stmt)
		ref := m[1]

		key := ref
		if baseDir != "" && !filepath.IsAbs(ref) {
			key = filepath.Join(baseDir, ref)
		}
		if seen[key] {
			return "/* already imported: " + ref + " */"
		}
		seen[key] = true

		if baseDir != "" || filepath.IsAbs(ref) {
			if data, err := os.ReadFile(key); err == nil {
				return inline(string(data), filepath.Dir(key), seen)
			}
		}
		if data, ok := Embedded(filepath.Base(ref)); ok {
			return inline(data, "", seen)
		}
		return "/* import not found: " + strings.TrimSpace(ref) + " */"
	})
}
