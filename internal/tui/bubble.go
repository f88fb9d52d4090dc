package tui

import (
	"fmt"
	"strings"

	"github.com/sadopc/gesturekeeper/internal/sequence"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

const (
	bubbleCollapsedW = 14
	bubbleCollapsedH = 4
	bubbleExpandedW  = 24
	bubbleExpandedH  = 7
	bubbleIconLimit  = 4
)

// bubble is the draggable overlay used by the floating recorder and the
// player. Its position is relative to the canvas it is drawn on and stays
// inside that canvas.
type bubble struct {
	x, y     int
	expanded bool

	dragging   bool
	moved      bool
	offX, offY int

	viewW, viewH int
}

// newBubble parks the bubble near the top right corner of a w x h viewport.
func newBubble(w, h int) bubble {
	b := bubble{viewW: w, viewH: h}
	b.moveTo(w-bubbleCollapsedW-2, 1)
	return b
}

func (b bubble) size() (int, int) {
	if b.expanded {
		return bubbleExpandedW, bubbleExpandedH
	}
	return bubbleCollapsedW, bubbleCollapsedH
}

func (b bubble) rect() surface.Rect {
	w, h := b.size()
	return surface.Rect{X: b.x, Y: b.y, Width: w, Height: h}
}

// moveTo places the top left corner at (x, y), clamped to 0..view-size on
// each axis.
func (b *bubble) moveTo(x, y int) {
	w, h := b.size()
	b.x = clamp(x, 0, b.viewW-w)
	b.y = clamp(y, 0, b.viewH-h)
}

func (b *bubble) resize(w, h int) {
	b.viewW, b.viewH = w, h
	b.moveTo(b.x, b.y)
}

func (b *bubble) toggle() {
	b.expanded = !b.expanded
	b.moveTo(b.x, b.y)
}

// press starts a drag when (x, y) hits the bubble.
func (b *bubble) press(x, y int) bool {
	if !b.rect().Contains(x, y) {
		return false
	}
	b.dragging = true
	b.moved = false
	b.offX, b.offY = x-b.x, y-b.y
	return true
}

func (b *bubble) drag(x, y int) {
	if !b.dragging {
		return
	}
	nx, ny := x-b.offX, y-b.offY
	if nx != b.x || ny != b.y {
		b.moved = true
	}
	b.moveTo(nx, ny)
}

// release ends a drag. It reports a click when the pointer never moved.
func (b *bubble) release() (clicked bool) {
	if !b.dragging {
		return false
	}
	b.dragging = false
	return !b.moved
}

// row returns which interior row of the bubble (x, y) falls on, or -1.
func (b bubble) row(x, y int) int {
	r := b.rect()
	if !r.Contains(x, y) {
		return -1
	}
	return y - r.Y - 1
}

// draw paints the bubble. Collapsed it shows the step count; expanded it
// shows the name, the first step icons and a control label.
func (b bubble) draw(c *canvas, name string, steps []sequence.Step, control string) {
	r := b.rect()
	c.frame(r, inkBubble)
	inner := r.Width - 2

	if !b.expanded {
		c.text(r.X+1, r.Y+1, center("Sequence", inner), inkBubbleText)
		c.text(r.X+1, r.Y+2, center(fmt.Sprintf("%d steps", len(steps)), inner), inkBubble)
		return
	}

	c.text(r.X+1, r.Y+1, "×"+center("", inner-2)+"×", inkBubble)
	c.text(r.X+1, r.Y+2, center(truncate(name, inner), inner), inkBubbleText)
	c.text(r.X+1, r.Y+3, center(stepIcons(steps), inner), inkBubble)
	c.text(r.X+1, r.Y+5, center(control, inner), inkBubbleText)
}

// Interior rows of the expanded bubble that respond to clicks.
const (
	bubbleRowClose   = 0
	bubbleRowControl = 4
)

// stepIcons lists the first few step icons followed by +N for the rest.
func stepIcons(steps []sequence.Step) string {
	var s []rune
	for i, st := range steps {
		if i == bubbleIconLimit {
			break
		}
		if i > 0 {
			s = append(s, ' ')
		}
		s = append(s, actionIcon(st.Type))
	}
	out := string(s)
	if len(steps) > bubbleIconLimit {
		out += fmt.Sprintf(" +%d", len(steps)-bubbleIconLimit)
	}
	return out
}

func actionIcon(a sequence.Action) rune {
	switch a {
	case sequence.DoubleTap:
		return '◎'
	case sequence.Swipe:
		return '→'
	}
	return '●'
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}

func center(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	left := (w - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-n-left)
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:max(w, 0)])
	}
	return string(r[:w-1]) + "…"
}
