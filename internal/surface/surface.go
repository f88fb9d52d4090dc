// Package surface describes where pointer input is captured: a bounded
// element on screen, or the whole viewport.
package surface

// Rect is a bounding box in screen cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether (x, y) lies inside r. An empty rect contains
// nothing.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Scope maps an absolute pointer position to surface coordinates.
type Scope interface {
	// Locate returns the position relative to the surface, or ok=false when
	// the event does not belong to it.
	Locate(x, y int) (rx, ry int, ok bool)
}

// Bounded captures inside a single element.
type Bounded struct {
	Rect Rect
}

func (b Bounded) Locate(x, y int) (int, int, bool) {
	if !b.Rect.Contains(x, y) {
		return 0, 0, false
	}
	return x - b.Rect.X, y - b.Rect.Y, true
}

// Viewport captures anywhere on screen except over the excluded rects, which
// belong to overlays such as the floating toolbar.
type Viewport struct {
	Width, Height int
	Exclude       []Rect
}

func (v Viewport) Locate(x, y int) (int, int, bool) {
	if x < 0 || y < 0 || x >= v.Width || y >= v.Height {
		return 0, 0, false
	}
	for _, r := range v.Exclude {
		if r.Contains(x, y) {
			return 0, 0, false
		}
	}
	return x, y, true
}
