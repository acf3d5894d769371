package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

// paint is the look of one terminal cell.
type paint int

const (
	paintBackground paint = iota
	paintScrim
	paintZone
	paintWidget
	paintWidgetDim
	paintWidgetLocked
)

var paintStyles = map[paint]lipgloss.Style{
	paintBackground:   lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	paintScrim:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("234")),
	paintZone:         lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("52")),
	paintWidget:       lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("25")),
	paintWidgetDim:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Background(lipgloss.Color("17")),
	paintWidgetLocked: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("130")),
}

type cell struct {
	text  string
	paint paint
	cont  bool // Right half of a wide glyph
}

// Canvas maps a virtual screen onto a block of terminal cells.
type Canvas struct {
	Cols, Rows  int
	Screen      model.Size
	LockedGlyph string
}

// ToScreen returns the screen point at the centre of a cell.
func (c Canvas) ToScreen(col, row int) model.Point {
	if c.Cols <= 0 || c.Rows <= 0 {
		return model.Point{}
	}
	return model.Point{
		X: (float64(col) + 0.5) * c.Screen.Width / float64(c.Cols),
		Y: (float64(row) + 0.5) * c.Screen.Height / float64(c.Rows),
	}
}

// Contains reports whether a cell lies on the canvas.
func (c Canvas) Contains(col, row int) bool {
	return col >= 0 && row >= 0 && col < c.Cols && row < c.Rows
}

// cellRect returns the half-open cell range covered by a screen rectangle.
func (c Canvas) cellRect(r model.Rect) (c0, r0, c1, r1 int) {
	sx := float64(c.Cols) / c.Screen.Width
	sy := float64(c.Rows) / c.Screen.Height
	c0 = clamp(int(math.Floor(r.Origin.X*sx)), 0, c.Cols)
	r0 = clamp(int(math.Floor(r.Origin.Y*sy)), 0, c.Rows)
	c1 = clamp(int(math.Ceil((r.Origin.X+r.Size.Width)*sx)), 0, c.Cols)
	r1 = clamp(int(math.Ceil((r.Origin.Y+r.Size.Height)*sy)), 0, c.Rows)
	return c0, r0, c1, r1
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Render draws views, bottom to top, and returns Rows lines.
func (c Canvas) Render(views []overlay.MemoryView) string {
	if c.Cols <= 0 || c.Rows <= 0 || c.Screen.IsZero() {
		return ""
	}

	grid := make([][]cell, c.Rows)
	for r := range grid {
		grid[r] = make([]cell, c.Cols)
		for col := range grid[r] {
			grid[r][col] = cell{text: "·", paint: paintBackground}
		}
	}

	for _, v := range views {
		c0, r0, c1, r1 := c.cellRect(v.Bounds())
		if c0 >= c1 || r0 >= r1 {
			continue
		}
		p, fill := c.paintFor(v)
		for r := r0; r < r1; r++ {
			for col := c0; col < c1; col++ {
				grid[r][col] = cell{text: fill, paint: p}
			}
		}
		if v.Kind == overlay.KindWidget && v.Glyph != "" {
			c.drawGlyph(grid, v.Glyph, p, c0, r0, c1, r1)
		}
		if v.Kind == overlay.KindDeleteZone {
			drawLabel(grid, "drop here to delete", p, c0, r0, c1, r1)
		}
	}

	lines := make([]string, c.Rows)
	for r, row := range grid {
		lines[r] = renderRow(row)
	}
	return strings.Join(lines, "\n")
}

func (c Canvas) paintFor(v overlay.MemoryView) (paint, string) {
	switch v.Kind {
	case overlay.KindScrim:
		return paintScrim, "░"
	case overlay.KindDeleteZone:
		return paintZone, " "
	}
	switch {
	case c.LockedGlyph != "" && v.Glyph == c.LockedGlyph:
		return paintWidgetLocked, " "
	case v.Opacity < model.OpacityOpaque:
		return paintWidgetDim, " "
	default:
		return paintWidget, " "
	}
}

func (c Canvas) drawGlyph(grid [][]cell, glyph string, p paint, c0, r0, c1, r1 int) {
	w := lipgloss.Width(glyph)
	row := r0 + (r1-r0-1)/2
	col := c0 + (c1-c0-w)/2
	if col < c0 {
		col = c0
	}
	grid[row][col] = cell{text: glyph, paint: p}
	for i := 1; i < w && col+i < c1; i++ {
		grid[row][col+i] = cell{paint: p, cont: true}
	}
}

func drawLabel(grid [][]cell, label string, p paint, c0, r0, c1, r1 int) {
	runes := []rune(label)
	if len(runes) > c1-c0 {
		return
	}
	row := r0 + (r1-r0-1)/2
	col := c0 + (c1-c0-len(runes))/2
	for i, r := range runes {
		grid[row][col+i] = cell{text: string(r), paint: p}
	}
}

// renderRow styles runs of equal paint together.
func renderRow(row []cell) string {
	var sb strings.Builder
	var run strings.Builder
	current := paint(-1)

	flush := func() {
		if run.Len() > 0 {
			sb.WriteString(paintStyles[current].Render(run.String()))
			run.Reset()
		}
	}
	for _, c := range row {
		if c.paint != current {
			flush()
			current = c.paint
		}
		if !c.cont {
			run.WriteString(c.text)
		}
	}
	flush()
	return sb.String()
}
