package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
)

// ErrInvalidGeometry is returned when a rectangle would have a negative extent.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point represents a 2D point in pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rectangle is an axis-aligned integer rectangle defined by its top-left
// corner and a non-negative size.
//
// Edges, corners, center and area are derived on demand from the three stored
// values. The zero value is a zero-area rectangle at the origin.
type Rectangle struct {
	topLeft Point
	width   int
	height  int
}

// New creates a rectangle from its top-left corner and size.
//
// Returns ErrInvalidGeometry if width or height is negative. A zero extent is
// allowed and yields a rectangle with zero area.
func New(topLeft Point, width, height int) (Rectangle, error) {
	if width < 0 {
		return Rectangle{}, fmt.Errorf("%w: width %d cannot be negative", ErrInvalidGeometry, width)
	}
	if height < 0 {
		return Rectangle{}, fmt.Errorf("%w: height %d cannot be negative", ErrInvalidGeometry, height)
	}
	return Rectangle{topLeft: topLeft, width: width, height: height}, nil
}

// FromCorners creates a rectangle spanning topLeft to bottomRight.
func FromCorners(topLeft, bottomRight Point) (Rectangle, error) {
	return New(topLeft, bottomRight.X-topLeft.X, bottomRight.Y-topLeft.Y)
}

// FromCenter creates a rectangle of the given size whose Center is center.
//
// Integer halving matches Center, so FromCenter(c, w, h).Center() == c for
// every non-negative w and h.
func FromCenter(center Point, width, height int) (Rectangle, error) {
	return New(Point{X: center.X - width/2, Y: center.Y - height/2}, width, height)
}

// TopLeft returns the top-left corner.
func (r Rectangle) TopLeft() Point { return r.topLeft }

// Width returns the horizontal extent.
func (r Rectangle) Width() int { return r.width }

// Height returns the vertical extent.
func (r Rectangle) Height() int { return r.height }

func (r Rectangle) Left() int   { return r.topLeft.X }
func (r Rectangle) Top() int    { return r.topLeft.Y }
func (r Rectangle) Right() int  { return r.topLeft.X + r.width }
func (r Rectangle) Bottom() int { return r.topLeft.Y + r.height }

// TopRight returns the corner at (Right, Top).
func (r Rectangle) TopRight() Point { return Point{X: r.Right(), Y: r.Top()} }

// BottomLeft returns the corner at (Left, Bottom).
func (r Rectangle) BottomLeft() Point { return Point{X: r.Left(), Y: r.Bottom()} }

// BottomRight returns the corner at (Right, Bottom).
func (r Rectangle) BottomRight() Point { return Point{X: r.Right(), Y: r.Bottom()} }

// Center returns the center point, rounded toward the top-left.
func (r Rectangle) Center() Point {
	return Point{X: r.topLeft.X + r.width/2, Y: r.topLeft.Y + r.height/2}
}

// Area returns Width * Height.
func (r Rectangle) Area() int {
	return r.width * r.height
}

// IsValid reports whether the rectangle has a non-zero extent on both axes.
func (r Rectangle) IsValid() bool {
	return r.width != 0 && r.height != 0
}

// Union returns the bounding box of r and other.
func (r Rectangle) Union(other Rectangle) Rectangle {
	l := min(r.Left(), other.Left())
	t := min(r.Top(), other.Top())
	rr := max(r.Right(), other.Right())
	b := max(r.Bottom(), other.Bottom())

	return Rectangle{topLeft: Point{X: l, Y: t}, width: rr - l, height: b - t}
}

// Intersection returns the overlapping region of r and other.
//
// When the rectangles do not overlap, a zero-area rectangle is returned
// instead of an error. Rectangles that only touch along an edge produce a
// rectangle with zero width or height.
func (r Rectangle) Intersection(other Rectangle) Rectangle {
	l := max(r.Left(), other.Left())
	t := max(r.Top(), other.Top())
	rr := min(r.Right(), other.Right())
	b := min(r.Bottom(), other.Bottom())

	if l > rr || t > b {
		return Rectangle{topLeft: Point{X: l, Y: t}}
	}

	return Rectangle{topLeft: Point{X: l, Y: t}, width: rr - l, height: b - t}
}

// IoU computes the Intersection-over-Union of r and other.
//
// The result is in [0, 1]. If both rectangles have zero area the union is
// empty and IoU returns 0 rather than dividing by zero.
func (r Rectangle) IoU(other Rectangle) float64 {
	union := r.Union(other).Area()
	if union == 0 {
		return 0
	}
	return float64(r.Intersection(other).Area()) / float64(union)
}

// ContainsPoint reports whether p lies inside r. Edges are inclusive.
func (r Rectangle) ContainsPoint(p Point) bool {
	if p.X < r.Left() || p.X > r.Right() {
		return false
	}
	if p.Y < r.Top() || p.Y > r.Bottom() {
		return false
	}
	return true
}

// Translate returns r moved by (dx, dy).
func (r Rectangle) Translate(dx, dy int) Rectangle {
	r.topLeft = Point{X: r.topLeft.X + dx, Y: r.topLeft.Y + dy}
	return r
}

// Bounds converts r to an image.Rectangle with exclusive max corner.
func (r Rectangle) Bounds() image.Rectangle {
	return image.Rect(r.Left(), r.Top(), r.Right(), r.Bottom())
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle((%d, %d), %d, %d)", r.topLeft.X, r.topLeft.Y, r.width, r.height)
}

type rectangleJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MarshalJSON encodes the rectangle as {"x","y","width","height"}.
func (r Rectangle) MarshalJSON() ([]byte, error) {
	return json.Marshal(rectangleJSON{X: r.topLeft.X, Y: r.topLeft.Y, Width: r.width, Height: r.height})
}

// UnmarshalJSON decodes {"x","y","width","height"}, rejecting negative sizes.
func (r *Rectangle) UnmarshalJSON(data []byte) error {
	var v rectangleJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	rect, err := New(Point{X: v.X, Y: v.Y}, v.Width, v.Height)
	if err != nil {
		return err
	}
	*r = rect
	return nil
}
