package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

// ink selects the style a canvas cell is painted with.
type ink uint8

const (
	inkNone ink = iota
	inkFaint
	inkStroke
	inkPoint
	inkMarker
	inkActive
	inkSwipe
	inkPending
	inkBubble
	inkBubbleText
)

var inkStyles = map[ink]lipgloss.Style{
	inkFaint:      lipgloss.NewStyle().Foreground(colorSubtle),
	inkStroke:     lipgloss.NewStyle().Foreground(colorPrimary),
	inkPoint:      lipgloss.NewStyle().Foreground(colorHighlight).Bold(true),
	inkMarker:     lipgloss.NewStyle().Foreground(colorSecondary).Bold(true),
	inkActive:     lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
	inkSwipe:      lipgloss.NewStyle().Foreground(colorSecondary),
	inkPending:    lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
	inkBubble:     lipgloss.NewStyle().Foreground(colorBubble),
	inkBubbleText: lipgloss.NewStyle().Foreground(colorFg).Bold(true),
}

// canvas is a fixed grid of cells that shapes are rasterised onto. Cells
// outside the grid are silently dropped.
type canvas struct {
	width, height int
	runes         []rune
	inks          []ink
}

func newCanvas(w, h int) *canvas {
	w, h = max(w, 0), max(h, 0)
	c := &canvas{
		width:  w,
		height: h,
		runes:  make([]rune, w*h),
		inks:   make([]ink, w*h),
	}
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

func (c *canvas) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.width && y < c.height
}

func (c *canvas) set(x, y int, r rune, k ink) {
	if !c.in(x, y) {
		return
	}
	c.runes[y*c.width+x] = r
	c.inks[y*c.width+x] = k
}

func (c *canvas) at(x, y int) rune {
	if !c.in(x, y) {
		return 0
	}
	return c.runes[y*c.width+x]
}

// line draws a Bresenham line between both endpoints inclusive.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, k ink) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, r, k)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) text(x, y int, s string, k ink) {
	for _, r := range s {
		c.set(x, y, r, k)
		x++
	}
}

func (c *canvas) fill(rect surface.Rect, r rune, k ink) {
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			c.set(x, y, r, k)
		}
	}
}

// frame draws a rounded border along the edge of rect and blanks the inside.
func (c *canvas) frame(rect surface.Rect, k ink) {
	if rect.Width < 2 || rect.Height < 2 {
		return
	}
	c.fill(rect, ' ', k)
	right := rect.X + rect.Width - 1
	bottom := rect.Y + rect.Height - 1
	for x := rect.X + 1; x < right; x++ {
		c.set(x, rect.Y, '─', k)
		c.set(x, bottom, '─', k)
	}
	for y := rect.Y + 1; y < bottom; y++ {
		c.set(rect.X, y, '│', k)
		c.set(right, y, '│', k)
	}
	c.set(rect.X, rect.Y, '╭', k)
	c.set(right, rect.Y, '╮', k)
	c.set(rect.X, bottom, '╰', k)
	c.set(right, bottom, '╯', k)
}

// String renders the grid, styling runs of cells that share an ink.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := y * c.width
		start := 0
		for x := 1; x <= c.width; x++ {
			if x < c.width && c.inks[row+x] == c.inks[row+start] {
				continue
			}
			run := string(c.runes[row+start : row+x])
			if st, ok := inkStyles[c.inks[row+start]]; ok {
				run = st.Render(run)
			}
			b.WriteString(run)
			start = x
		}
	}
	return b.String()
}

// plain renders the grid without styles.
func (c *canvas) plain() string {
	lines := make([]string, c.height)
	for y := range lines {
		lines[y] = string(c.runes[y*c.width : (y+1)*c.width])
	}
	return strings.Join(lines, "\n")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
