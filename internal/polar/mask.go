package polar

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/transform"
)

const (
	Outside uint8 = 0
	Inside  uint8 = 255
)

// ExtractMask computes the field-of-view mask of img.
//
// Pixels reachable from (0, 0) through exactly-zero pixels under
// 4-connectivity are marked Outside; every other pixel is Inside, including
// zero pixels enclosed by the fan. When the origin is non-zero the mask is
// entirely Inside.
func ExtractMask(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = Inside
	}
	if w == 0 || h == 0 || img.GrayAt(b.Min.X, b.Min.Y).Y != 0 {
		return mask
	}

	visited := make([]bool, w*h)
	queue := []image.Point{{X: 0, Y: 0}}
	visited[0] = true

	neighbors := [4]image.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		mask.Pix[p.Y*mask.Stride+p.X] = Outside

		for _, d := range neighbors {
			n := p.Add(d)
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
				continue
			}
			idx := n.Y*w + n.X
			if visited[idx] || img.GrayAt(b.Min.X+n.X, b.Min.Y+n.Y).Y != 0 {
				continue
			}
			visited[idx] = true
			queue = append(queue, n)
		}
	}

	return mask
}

// ResampleMask returns mask scaled to size with bilinear interpolation.
// A mask already at size is returned as is.
func ResampleMask(mask *image.Gray, size image.Point) *image.Gray {
	if mask.Bounds().Size() == size {
		return mask
	}

	resized := transform.Resize(mask, size.X, size.Y, transform.Linear)
	out := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(out, out.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return out
}

// ValidFraction returns the share of Inside pixels in mask.
func ValidFraction(mask *image.Gray) float64 {
	b := mask.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	return float64(CountValid(mask)) / float64(total)
}

// CountValid returns the number of non-zero pixels in mask.
func CountValid(mask *image.Gray) int {
	b := mask.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				n++
			}
		}
	}
	return n
}
