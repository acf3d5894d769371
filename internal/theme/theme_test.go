package theme

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/overlay"
)

func TestBundledNames(t *testing.T) {
	names := BundledNames()
	assert.Equal(t, []string{"default", "high-contrast"}, names)
}

func TestEmbedded(t *testing.T) {
	css, ok := Embedded("default")
	require.True(t, ok)
	assert.Contains(t, css, ".perch-widget")

	_, ok = Embedded("_base.css")
	assert.True(t, ok)

	_, ok = Embedded("nope")
	assert.False(t, ok)
}

func TestResolve_Bundled(t *testing.T) {
	th, err := Resolve("high-contrast", t.TempDir())
	require.NoError(t, err)
	assert.True(t, th.Bundled)
	assert.NotContains(t, th.CSS, "@import")
	assert.Contains(t, th.CSS, "border-radius", "base partial is inlined")
}

func TestResolve_UserOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.css"),
		[]byte("@import \"colors.css\";\n.perch-widget { color: red; }"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "colors.css"),
		[]byte("@define-color accent #ff0000;"), 0600))

	th, err := Resolve("default", dir)
	require.NoError(t, err)
	assert.False(t, th.Bundled)
	assert.Equal(t, filepath.Join(dir, "default.css"), th.Path)
	assert.Contains(t, th.CSS, "@define-color accent")
	assert.Contains(t, th.CSS, "color: red")
}

func TestResolve_Fallback(t *testing.T) {
	th, err := Resolve("missing", "")
	assert.Error(t, err)
	assert.Equal(t, DefaultThemeName, th.Name)
	assert.NotEmpty(t, th.CSS)
}

func TestInline_Cycles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.css"), []byte("@import 'b.css'; .a{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.css"), []byte("@import url(\"a.css\"); .b{}"), 0600))

	out := Inline("@import \"a.css\";", dir)
	assert.Contains(t, out, ".a{}")
	assert.Contains(t, out, ".b{}")
	assert.Contains(t, out, "already imported: a.css")

	assert.Contains(t, Inline("@import 'zzz.css';", dir), "import not found: zzz.css")
}

func TestClassFor(t *testing.T) {
	assert.Equal(t, "perch-widget", ClassFor(overlay.KindWidget))
	assert.Equal(t, "perch-scrim", ClassFor(overlay.KindScrim))
	assert.Equal(t, "perch-delete-zone", ClassFor(overlay.KindDeleteZone))
}

func TestWatcher_ReportsCSSChanges(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, nil)
	w.SetDebounce(10 * time.Millisecond)

	changed := make(chan struct{}, 4)
	w.SetChangeCallback(func() { changed <- struct{}{} })
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	assert.True(t, w.IsRunning())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	select {
	case <-changed:
		t.Fatal("reported a non-CSS file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.css"), []byte(".perch-widget {}"), 0o644))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported after CSS write")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.IsRunning())
	w.Stop()
}
