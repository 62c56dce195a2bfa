package polar

import (
	"fmt"
	"image"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
)

// SlidingWindows enumerates windowSize windows over an image of imageSize at
// the given stride, keeping those that lie inside the field of view.
//
// The mask is resampled to imageSize first when the shapes differ. Top-left
// corners range over x in [0, imageSize.X-windowSize.X) and y in
// [0, imageSize.Y-windowSize.Y). A window is kept only when the mask is
// non-zero at its four corners and its center; a sample point outside the mask
// rejects the window.
//
// Windows are returned with x as the outer loop and y as the inner loop.
func SlidingWindows(imageSize, windowSize image.Point, mask *image.Gray, stride int) ([]geometry.Rectangle, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", stride)
	}
	if windowSize.X <= 0 || windowSize.Y <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %dx%d", windowSize.X, windowSize.Y)
	}

	m := ResampleMask(mask, imageSize)
	b := m.Bounds()

	valid := func(p geometry.Point) bool {
		x, y := b.Min.X+p.X, b.Min.Y+p.Y
		if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
			return false
		}
		return m.GrayAt(x, y).Y != 0
	}

	var windows []geometry.Rectangle
	for x := 0; x < imageSize.X-windowSize.X; x += stride {
		for y := 0; y < imageSize.Y-windowSize.Y; y += stride {
			if !valid(geometry.Point{X: x, Y: y}) {
				continue
			}

			r, err := geometry.New(geometry.Point{X: x, Y: y}, windowSize.X, windowSize.Y)
			if err != nil {
				return nil, err
			}

			if valid(r.TopRight()) && valid(r.BottomLeft()) && valid(r.BottomRight()) && valid(r.Center()) {
				windows = append(windows, r)
			}
		}
	}

	return windows, nil
}
