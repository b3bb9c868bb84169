// Package geo provides the two coordinate spaces the viewport engine works
// in: integer screen-space points and rectangles, and float document-space
// boundaries as reported by document backends.
package geo

import "math"

// Point is a position in screen space, in pixels.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y int) Point { return Point{x, y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rectangle is a half-open screen-space rectangle: Min is included, Max is
// excluded.
type Rectangle struct {
	Min, Max Point
}

// Rect is shorthand for Rectangle{Pt(x0, y0), Pt(x1, y1)}.
func Rect(x0, y0, x1, y1 int) Rectangle {
	return Rectangle{Point{x0, y0}, Point{x1, y1}}
}

func (r Rectangle) Width() int  { return r.Max.X - r.Min.X }
func (r Rectangle) Height() int { return r.Max.Y - r.Min.Y }

// Empty reports whether the rectangle contains no points.
func (r Rectangle) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

// Add returns the rectangle translated by p.
func (r Rectangle) Add(p Point) Rectangle {
	return Rectangle{r.Min.Add(p), r.Max.Add(p)}
}

// Sub returns the rectangle translated by -p.
func (r Rectangle) Sub(p Point) Rectangle {
	return Rectangle{r.Min.Sub(p), r.Max.Sub(p)}
}

// Includes reports whether p lies inside the rectangle.
func (r Rectangle) Includes(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Overlaps reports whether r and s share at least one point.
func (r Rectangle) Overlaps(s Rectangle) bool {
	return r.Min.X < s.Max.X && s.Min.X < r.Max.X &&
		r.Min.Y < s.Max.Y && s.Min.Y < r.Max.Y
}

// Intersection returns the largest rectangle contained in both r and s.
func (r Rectangle) Intersection(s Rectangle) (Rectangle, bool) {
	out := Rectangle{
		Point{max(r.Min.X, s.Min.X), max(r.Min.Y, s.Min.Y)},
		Point{min(r.Max.X, s.Max.X), min(r.Max.Y, s.Max.Y)},
	}
	if out.Empty() {
		return Rectangle{}, false
	}
	return out, true
}

// Absorb returns the smallest rectangle containing both r and s.
func (r Rectangle) Absorb(s Rectangle) Rectangle {
	return Rectangle{
		Point{min(r.Min.X, s.Min.X), min(r.Min.Y, s.Min.Y)},
		Point{max(r.Max.X, s.Max.X), max(r.Max.Y, s.Max.Y)},
	}
}

// Dist2 returns the squared distance from p to the rectangle, zero when p is
// inside it.
func (r Rectangle) Dist2(p Point) int {
	dx := 0
	if p.X < r.Min.X {
		dx = r.Min.X - p.X
	} else if p.X >= r.Max.X {
		dx = p.X - r.Max.X + 1
	}
	dy := 0
	if p.Y < r.Min.Y {
		dy = r.Min.Y - p.Y
	} else if p.Y >= r.Max.Y {
		dy = p.Y - r.Max.Y + 1
	}
	return dx*dx + dy*dy
}

// Boundary returns the rectangle as a document-space boundary.
func (r Rectangle) Boundary() Boundary {
	return Boundary{float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)}
}

// Boundary is a rectangle in document units.
type Boundary struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Boundary) Width() float64  { return b.MaxX - b.MinX }
func (b Boundary) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether o lies entirely inside b.
func (b Boundary) Contains(o Boundary) bool {
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX &&
		o.MinY >= b.MinY && o.MaxY <= b.MaxY
}

// Scaled returns the boundary with all edges multiplied by f.
func (b Boundary) Scaled(f float64) Boundary {
	return Boundary{b.MinX * f, b.MinY * f, b.MaxX * f, b.MaxY * f}
}

// ToRect converts the boundary to a screen rectangle, expanding outward so
// that no covered pixel is lost.
func (b Boundary) ToRect() Rectangle {
	return Rectangle{
		Point{int(math.Floor(b.MinX)), int(math.Floor(b.MinY))},
		Point{int(math.Ceil(b.MaxX)), int(math.Ceil(b.MaxY))},
	}
}

// LinearDir is a direction along the document's reading order.
type LinearDir int

const (
	Forward LinearDir = iota
	Backward
)

// CycleDir is a direction for discrete next/previous navigation.
type CycleDir int

const (
	CycleNext CycleDir = iota
	CyclePrevious
)
