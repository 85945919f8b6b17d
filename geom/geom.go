// SPDX-License-Identifier: Unlicense OR MIT

/*
Package geom provides the float64 geometry types shared by the windowing
core: points, sizes and rectangles.

The coordinate space has the origin in the top left corner with the axes
extending right and down. Values are in logical units unless a function
documents otherwise; multiply by a window's scale factor to obtain
physical pixels.
*/
package geom

// A Point is a two dimensional point, or a vector such as a scroll delta.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the point p+p2.
func (p Point) Add(p2 Point) Point {
	return Point{X: p.X + p2.X, Y: p.Y + p2.Y}
}

// Sub returns the vector p-p2.
func (p Point) Sub(p2 Point) Point {
	return Point{X: p.X - p2.X, Y: p.Y - p2.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// A Size is a width and a height.
type Size struct {
	Width, Height float64
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// Scale returns s scaled by f.
func (s Size) Scale(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// A Rect is an axis-aligned rectangle anchored at its top left corner.
type Rect struct {
	X, Y, Width, Height float64
}

// Rc is shorthand for Rect{X: x, Y: y, Width: w, Height: h}.
func Rc(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Scale returns r scaled by s.
func (r Rect) Scale(s float64) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, Width: r.Width * s, Height: r.Height * s}
}

// Union returns the smallest rectangle containing both r and r2.
func (r Rect) Union(r2 Rect) Rect {
	if r.Width == 0 && r.Height == 0 {
		return r2
	}
	if r2.Width == 0 && r2.Height == 0 {
		return r
	}
	x0 := min(r.X, r2.X)
	y0 := min(r.Y, r2.Y)
	x1 := max(r.X+r.Width, r2.X+r2.Width)
	y1 := max(r.Y+r.Height, r2.Y+r2.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
